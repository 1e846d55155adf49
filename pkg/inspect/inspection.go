// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package inspect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/kraklabs/siginspect/pkg/gofunc"
	"github.com/kraklabs/siginspect/pkg/signature"
)

// NoAnnotation is reported for parameters and returns without a declared type.
const NoAnnotation = "<empty>"

// InspectionError is returned when a callable's signature cannot be obtained.
// Re-exported from pkg/signature for convenience.
type InspectionError = signature.InspectionError

// Causes wrapped by InspectionError; test with errors.Is.
var (
	ErrNotCallable = signature.ErrNotCallable
	ErrNoSignature = signature.ErrNoSignature
	ErrMalformed   = signature.ErrMalformed
)

// Kind is the primary classification of an inspected callable.
type Kind int

const (
	// KindFunction covers free functions, static methods, constructors and
	// methods accessed through their class.
	KindFunction Kind = iota
	// KindMethod is a method bound to an instance.
	KindMethod
	// KindClassMethod is a method bound to a type.
	KindClassMethod
)

// String returns "function", "method" or "classmethod".
func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindClassMethod:
		return "classmethod"
	default:
		return "function"
	}
}

func kindOf(b signature.Binding) Kind {
	switch b {
	case signature.Instance:
		return KindMethod
	case signature.Type:
		return KindClassMethod
	default:
		return KindFunction
	}
}

// Parameter describes one declared parameter.
type Parameter struct {
	Name string         `json:"name" yaml:"name"`
	Kind signature.Kind `json:"kind" yaml:"kind"`

	// Annotation is the declared type, or NoAnnotation.
	Annotation string `json:"annotation" yaml:"annotation"`

	HasDefault bool `json:"has_default" yaml:"has_default"`

	// Default is the Python repr of the default value; nil without one.
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`

	// IsOptional is set for defaulted and variadic parameters.
	IsOptional bool `json:"is_optional" yaml:"is_optional"`

	// Position is the zero-based index among positional-capable parameters;
	// nil for keyword-only and variadic parameters.
	Position *int `json:"position,omitempty" yaml:"position,omitempty"`

	// DefaultValue is the Go value of a literal default.
	DefaultValue any `json:"-" yaml:"-"`
}

// IsRequired reports whether the parameter must be supplied.
func (p Parameter) IsRequired() bool {
	return !p.IsOptional
}

// FunctionInspection is the immutable result of inspecting one callable.
type FunctionInspection struct {
	name             string
	qualName         string
	params           []Parameter
	returnAnnotation string
	awaitable        bool
	kind             Kind
}

// Name returns the callable's simple name.
func (fi *FunctionInspection) Name() string { return fi.name }

// QualName returns the dotted path of the callable.
func (fi *FunctionInspection) QualName() string { return fi.qualName }

// Parameters returns all parameters in declaration order. The slice is a copy.
func (fi *FunctionInspection) Parameters() []Parameter {
	return fi.filter(func(Parameter) bool { return true })
}

// ReturnAnnotation returns the declared return type, or NoAnnotation.
func (fi *FunctionInspection) ReturnAnnotation() string { return fi.returnAnnotation }

// Awaitable reports whether calling the callable yields an awaitable.
func (fi *FunctionInspection) Awaitable() bool { return fi.awaitable }

// Kind returns the primary classification.
func (fi *FunctionInspection) Kind() Kind { return fi.kind }

// Exactly one of IsFunction, IsMethod and IsClassMethod is true.

func (fi *FunctionInspection) IsFunction() bool          { return fi.kind == KindFunction }
func (fi *FunctionInspection) IsMethod() bool            { return fi.kind == KindMethod }
func (fi *FunctionInspection) IsClassMethod() bool       { return fi.kind == KindClassMethod }
func (fi *FunctionInspection) IsCoroutineFunction() bool { return fi.awaitable }

// PositionalOnlyParams returns parameters declared before "/".
func (fi *FunctionInspection) PositionalOnlyParams() []Parameter {
	return fi.ofKind(signature.KindPositionalOnly)
}

// PositionalOrKeywordParams returns parameters that bind by position or name.
func (fi *FunctionInspection) PositionalOrKeywordParams() []Parameter {
	return fi.ofKind(signature.KindPositionalOrKeyword)
}

// KeywordOnlyParams returns parameters declared after "*" or "*args".
func (fi *FunctionInspection) KeywordOnlyParams() []Parameter {
	return fi.ofKind(signature.KindKeywordOnly)
}

// VarPositionalParam returns the "*args" parameter, if any.
func (fi *FunctionInspection) VarPositionalParam() (Parameter, bool) {
	return fi.single(signature.KindVarPositional)
}

// VarKeywordParam returns the "**kwargs" parameter, if any.
func (fi *FunctionInspection) VarKeywordParam() (Parameter, bool) {
	return fi.single(signature.KindVarKeyword)
}

// RequiredParams returns the parameters that are not optional.
func (fi *FunctionInspection) RequiredParams() []Parameter {
	return fi.filter(func(p Parameter) bool { return !p.IsOptional })
}

// OptionalParams returns the parameters that declare a default.
func (fi *FunctionInspection) OptionalParams() []Parameter {
	return fi.filter(func(p Parameter) bool { return p.HasDefault })
}

func (fi *FunctionInspection) ofKind(k signature.Kind) []Parameter {
	return fi.filter(func(p Parameter) bool { return p.Kind == k })
}

func (fi *FunctionInspection) single(k signature.Kind) (Parameter, bool) {
	for _, p := range fi.params {
		if p.Kind == k {
			return p, true
		}
	}
	return Parameter{}, false
}

func (fi *FunctionInspection) filter(keep func(Parameter) bool) []Parameter {
	out := make([]Parameter, 0, len(fi.params))
	for _, p := range fi.params {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Record is the serializable view of a FunctionInspection, including the
// derived classification flags.
type Record struct {
	Name                string      `json:"name" yaml:"name"`
	QualName            string      `json:"qualname" yaml:"qualname"`
	Kind                string      `json:"kind" yaml:"kind"`
	Parameters          []Parameter `json:"parameters" yaml:"parameters"`
	ReturnAnnotation    string      `json:"return_annotation" yaml:"return_annotation"`
	Awaitable           bool        `json:"awaitable" yaml:"awaitable"`
	IsFunction          bool        `json:"is_function" yaml:"is_function"`
	IsMethod            bool        `json:"is_method" yaml:"is_method"`
	IsClassMethod       bool        `json:"is_classmethod" yaml:"is_classmethod"`
	IsCoroutineFunction bool        `json:"is_coroutine_function" yaml:"is_coroutine_function"`
}

// Record returns the serializable view.
func (fi *FunctionInspection) Record() Record {
	return Record{
		Name:                fi.name,
		QualName:            fi.qualName,
		Kind:                fi.kind.String(),
		Parameters:          fi.Parameters(),
		ReturnAnnotation:    fi.returnAnnotation,
		Awaitable:           fi.awaitable,
		IsFunction:          fi.IsFunction(),
		IsMethod:            fi.IsMethod(),
		IsClassMethod:       fi.IsClassMethod(),
		IsCoroutineFunction: fi.IsCoroutineFunction(),
	}
}

// MarshalJSON implements json.Marshaler.
func (fi *FunctionInspection) MarshalJSON() ([]byte, error) {
	return json.Marshal(fi.Record())
}

// =============================================================================
// INSPECTOR
// =============================================================================

// Inspector extracts signatures and records metrics. The zero value is ready
// to use and logs to slog.Default().
type Inspector struct {
	logger *slog.Logger
}

// NewInspector creates an Inspector. A nil logger falls back to slog.Default().
func NewInspector(logger *slog.Logger) *Inspector {
	return &Inspector{logger: logger}
}

func (in *Inspector) log() *slog.Logger {
	if in == nil || in.logger == nil {
		return slog.Default()
	}
	return in.logger
}

var defaultInspector = &Inspector{}

// InspectFunction inspects c with the default Inspector.
func InspectFunction(c signature.Callable) (*FunctionInspection, error) {
	return defaultInspector.InspectFunction(c)
}

// InspectAny inspects a signature.Callable or a Go func value with the
// default Inspector.
func InspectAny(v any) (*FunctionInspection, error) {
	return defaultInspector.InspectAny(v)
}

// InspectFunction reads c's signature once and builds its inspection.
// Failures are returned as *InspectionError.
func (in *Inspector) InspectFunction(c signature.Callable) (*FunctionInspection, error) {
	fi, err := in.inspect(c)
	if err != nil {
		recordInspectionError()
		in.log().Debug("inspect.function.failed", "target", targetName(c), "error", err)
		return nil, err
	}
	recordInspection(fi.kind)
	in.log().Debug("inspect.function",
		"target", fi.qualName,
		"kind", fi.kind.String(),
		"params", len(fi.params),
		"awaitable", fi.awaitable,
	)
	return fi, nil
}

// InspectAny accepts a signature.Callable or any Go func value. Other
// values fail with ErrNotCallable.
func (in *Inspector) InspectAny(v any) (*FunctionInspection, error) {
	if c, ok := v.(signature.Callable); ok {
		return in.InspectFunction(c)
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		return in.InspectFunction(gofunc.Of(v))
	}
	recordInspectionError()
	return nil, signature.NewInspectionError(fmt.Sprintf("%T", v), ErrNotCallable, "value of type %T", v)
}

func (in *Inspector) inspect(c signature.Callable) (*FunctionInspection, error) {
	if isNil(c) {
		return nil, signature.NewInspectionError("<nil>", ErrNotCallable, "nil callable")
	}
	sig, err := c.Signature()
	if err != nil {
		return nil, signature.AsInspectionError(targetName(c), err)
	}
	if err := signature.Validate(sig); err != nil {
		return nil, signature.AsInspectionError(targetName(c), err)
	}
	return newInspection(sig), nil
}

func newInspection(sig *signature.Signature) *FunctionInspection {
	fi := &FunctionInspection{
		name:             sig.Name,
		qualName:         sig.Target(),
		params:           make([]Parameter, 0, len(sig.Params)),
		returnAnnotation: annotationOrSentinel(sig.Return),
		awaitable:        sig.Async,
		kind:             kindOf(sig.Binding),
	}

	position := 0
	for _, sp := range sig.Params {
		p := Parameter{
			Name:       sp.Name,
			Kind:       sp.Kind,
			Annotation: annotationOrSentinel(sp.Annotation),
			HasDefault: sp.HasDefault(),
			IsOptional: sp.HasDefault() || sp.Kind.IsVariadic(),
		}
		if sp.Default != nil {
			repr := sp.Default.Repr
			p.Default = &repr
			p.DefaultValue = sp.Default.Value
		}
		if sp.Kind.IsPositional() {
			pos := position
			p.Position = &pos
			position++
		}
		fi.params = append(fi.params, p)
	}
	return fi
}

func annotationOrSentinel(a string) string {
	if a == "" {
		return NoAnnotation
	}
	return a
}

// isNil catches both a nil interface and a typed nil pointer.
func isNil(c signature.Callable) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func targetName(c signature.Callable) string {
	if n, ok := c.(interface{ Name() string }); ok && !isNil(c) {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
