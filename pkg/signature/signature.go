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

package signature

import (
	"fmt"
	"strings"
)

// Callable is implemented by anything that can describe its own signature.
type Callable interface {
	// Signature returns the callable's declared shape. Implementations
	// return an *InspectionError when the description cannot be produced.
	Signature() (*Signature, error)
}

// Expr is a default value that is not a literal; it holds the source text
// of the expression.
type Expr string

// Default is a parameter's default value.
type Default struct {
	// Repr is the Python repr of the default ("'hello'", "None", "42").
	Repr string

	// Value is the Go value for literal defaults, or an Expr.
	Value any
}

// Param is a single declared parameter.
type Param struct {
	Name string
	Kind Kind

	// Annotation is the declared type as written; empty when undeclared.
	Annotation string

	// Default is nil when the parameter has no default.
	Default *Default
}

// HasDefault reports whether the parameter declares a default.
func (p Param) HasDefault() bool {
	return p.Default != nil
}

// String renders the parameter the way it appears in a def.
func (p Param) String() string {
	var b strings.Builder
	switch p.Kind {
	case KindVarPositional:
		b.WriteString("*")
	case KindVarKeyword:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	if p.Annotation != "" {
		b.WriteString(": ")
		b.WriteString(p.Annotation)
	}
	if p.Default != nil {
		if p.Annotation != "" {
			b.WriteString(" = ")
		} else {
			b.WriteString("=")
		}
		b.WriteString(p.Default.Repr)
	}
	return b.String()
}

// Signature is the declared shape of a callable.
type Signature struct {
	// Name is the callable's simple name.
	Name string

	// QualName is the dotted path used to reach the callable ("C.m").
	QualName string

	// Params lists parameters in declaration order. Bound signatures have
	// already dropped their receiver.
	Params []Param

	// Return is the declared return annotation; empty when undeclared.
	Return string

	// Async is set for coroutine functions.
	Async bool

	// Binding records whether the callable is bound to an instance or type.
	Binding Binding
}

// Target returns the most specific name available for error messages.
func (s *Signature) Target() string {
	if s.QualName != "" {
		return s.QualName
	}
	return s.Name
}

// Clone returns a deep copy; callers may mutate the result freely.
func (s *Signature) Clone() *Signature {
	if s == nil {
		return nil
	}
	out := *s
	out.Params = make([]Param, len(s.Params))
	for i, p := range s.Params {
		out.Params[i] = p
		if p.Default != nil {
			d := *p.Default
			out.Params[i].Default = &d
		}
	}
	return &out
}

// Param looks up a parameter by name.
func (s *Signature) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// DropFirst returns a copy of s without its first positional parameter and
// with the given binding. It is how bound methods and class methods are
// derived from the underlying function.
func (s *Signature) DropFirst(b Binding) (*Signature, error) {
	if len(s.Params) == 0 || !s.Params[0].Kind.IsPositional() {
		return nil, NewInspectionError(s.Target(), ErrMalformed,
			"cannot bind %s: no positional receiver parameter", b)
	}
	out := s.Clone()
	out.Params = out.Params[1:]
	out.Binding = b
	return out, nil
}

// String renders the signature in def syntax.
func (s *Signature) String() string {
	var b strings.Builder
	if s.Async {
		b.WriteString("async ")
	}
	b.WriteString("def ")
	b.WriteString(s.Name)
	b.WriteString("(")

	parts := make([]string, 0, len(s.Params)+2)
	seenVarPositional := false
	for i, p := range s.Params {
		if p.Kind == KindVarPositional {
			seenVarPositional = true
		}
		if p.Kind == KindKeywordOnly && !seenVarPositional {
			parts = append(parts, "*")
			seenVarPositional = true
		}
		parts = append(parts, p.String())
		if p.Kind == KindPositionalOnly && (i+1 == len(s.Params) || s.Params[i+1].Kind != KindPositionalOnly) {
			parts = append(parts, "/")
		}
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
	if s.Return != "" {
		b.WriteString(" -> ")
		b.WriteString(s.Return)
	}
	return b.String()
}

// Validate checks the structural invariants of a parameter list: unique
// names, at most one collector of each kind, kinds in declaration order and
// no required positional parameter after a defaulted one.
func Validate(s *Signature) error {
	if s == nil {
		return NewInspectionError("", ErrNoSignature, "nil signature")
	}
	seen := make(map[string]bool, len(s.Params))
	var (
		last      = KindPositionalOnly
		varPos    int
		varKw     int
		defaulted string
	)
	for _, p := range s.Params {
		if p.Name == "" {
			return NewInspectionError(s.Target(), ErrMalformed, "parameter without a name")
		}
		if seen[p.Name] {
			return NewInspectionError(s.Target(), ErrMalformed, "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true

		if p.Kind < KindPositionalOnly || p.Kind > KindVarKeyword {
			return NewInspectionError(s.Target(), ErrMalformed, "parameter %q has invalid kind %d", p.Name, int(p.Kind))
		}
		if p.Kind < last {
			return NewInspectionError(s.Target(), ErrMalformed,
				"%s parameter %q follows a %s parameter", p.Kind, p.Name, last)
		}
		last = p.Kind

		switch p.Kind {
		case KindVarPositional:
			varPos++
		case KindVarKeyword:
			varKw++
		}
		if varPos > 1 || varKw > 1 {
			return NewInspectionError(s.Target(), ErrMalformed, "more than one %s parameter", p.Kind)
		}
		if p.Kind.IsVariadic() && p.Default != nil {
			return NewInspectionError(s.Target(), ErrMalformed, "variadic parameter %q cannot have a default", p.Name)
		}

		if p.Kind.IsPositional() {
			if p.Default != nil {
				defaulted = p.Name
			} else if defaulted != "" {
				return NewInspectionError(s.Target(), ErrMalformed,
					"parameter %q without a default follows parameter %q with a default", p.Name, defaulted)
			}
		}
	}
	return nil
}

// Describe returns a one-line summary used in logs.
func Describe(s *Signature) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s [%s, %d params]", s.Target(), s.Binding, len(s.Params))
}
