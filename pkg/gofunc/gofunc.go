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

// Package gofunc describes Go func values as signatures.
//
// Go parameters have no names at runtime, so names are recovered from the
// declaring source file when it is readable; otherwise they are arg0, arg1
// and so on. Every parameter is positional-only, and a variadic final
// parameter becomes "*name" annotated with its element type. Method values
// (obj.Method) are reported as bound to an instance.
package gofunc

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/kraklabs/siginspect/pkg/signature"
)

// ErrBadArgument is returned by Call for arguments that cannot be passed.
var ErrBadArgument = errors.New("bad argument")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Func wraps a Go func value.
type Func struct {
	v   any
	fn  reflect.Value
	rt  *runtime.Func
	err error

	once  sync.Once
	names []string
}

// Of wraps fn. Values that are not funcs are accepted here and reported by
// Signature as not callable.
func Of(fn any) *Func {
	f := &Func{v: fn}
	if fn == nil {
		f.err = signature.NewInspectionError("<nil>", signature.ErrNotCallable, "nil value")
		return f
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		f.err = signature.NewInspectionError(fmt.Sprintf("%T", fn), signature.ErrNotCallable, "not a func")
		return f
	}
	if rv.IsNil() {
		f.err = signature.NewInspectionError(rv.Type().String(), signature.ErrNotCallable, "nil func")
		return f
	}
	f.fn = rv
	f.rt = runtime.FuncForPC(rv.Pointer())
	return f
}

// Name returns the qualified Go name without package path, such as
// "Parse" or "Server.Handle".
func (f *Func) Name() string {
	if f.rt == nil {
		if f.err != nil {
			return fmt.Sprintf("%T", f.v)
		}
		return "func"
	}
	qual, _, _ := splitRuntimeName(f.rt.Name())
	return qual
}

// Signature implements signature.Callable.
func (f *Func) Signature() (*signature.Signature, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := f.fn.Type()

	var full string
	if f.rt != nil {
		full = f.rt.Name()
	}
	qual, simple, bound := splitRuntimeName(full)
	if simple == "" {
		simple, qual = "func", "func"
	}

	names := f.paramNames()
	sig := &signature.Signature{
		Name:     simple,
		QualName: qual,
		Params:   make([]signature.Param, 0, t.NumIn()),
		Return:   returnAnnotation(t),
	}
	if bound {
		sig.Binding = signature.Instance
	}
	for i := 0; i < t.NumIn(); i++ {
		p := signature.Param{
			Name:       names[i],
			Kind:       signature.KindPositionalOnly,
			Annotation: t.In(i).String(),
		}
		if t.IsVariadic() && i == t.NumIn()-1 {
			p.Kind = signature.KindVarPositional
			p.Annotation = t.In(i).Elem().String()
		}
		sig.Params = append(sig.Params, p)
	}
	return sig, nil
}

func (f *Func) paramNames() []string {
	f.once.Do(func() {
		n := f.fn.Type().NumIn()
		var found []string
		if f.rt != nil {
			file, line := f.rt.FileLine(f.rt.Entry())
			_, simple, _ := splitRuntimeName(f.rt.Name())
			found, _ = lookupParamNames(file, line, simple, n)
		}
		f.names = make([]string, n)
		seen := make(map[string]bool, n)
		for i := range f.names {
			name := ""
			if i < len(found) {
				name = found[i]
			}
			if name == "" || name == "_" || seen[name] {
				name = fmt.Sprintf("arg%d", i)
			}
			seen[name] = true
			f.names[i] = name
		}
	})
	return f.names
}

// Call invokes the func with positional arguments. Values are converted to
// the parameter type when Go allows it, so JSON numbers can feed int
// parameters. A trailing error result is returned as the error.
func (f *Func) Call(args []any, kwargs map[string]any) ([]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: keyword arguments are not supported: %w", f.Name(), ErrBadArgument)
	}
	t := f.fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	if len(args) < fixed || (!t.IsVariadic() && len(args) > fixed) {
		return nil, fmt.Errorf("%s: takes %d arguments, got %d: %w", f.Name(), t.NumIn(), len(args), ErrBadArgument)
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(t, i)
		v, err := convert(a, pt)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", f.Name(), i, err)
		}
		in[i] = v
	}

	out := f.fn.Call(in)
	results := make([]any, 0, len(out))
	var err error
	for i, o := range out {
		if i == len(out)-1 && t.Out(i) == errorType {
			if !o.IsNil() {
				err = o.Interface().(error)
			}
			continue
		}
		results = append(results, o.Interface())
	}
	return results, err
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func convert(a any, to reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch to.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("nil for %s: %w", to, ErrBadArgument)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(to) {
		return v, nil
	}
	// int -> string is a rune conversion in Go; refuse it
	if to.Kind() == reflect.String && v.Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("%s for %s: %w", v.Type(), to, ErrBadArgument)
	}
	if isNumber(v.Kind()) != isNumber(to.Kind()) && to.Kind() != reflect.Interface {
		return reflect.Value{}, fmt.Errorf("%s for %s: %w", v.Type(), to, ErrBadArgument)
	}
	if v.Type().ConvertibleTo(to) {
		return v.Convert(to), nil
	}
	return reflect.Value{}, fmt.Errorf("%s for %s: %w", v.Type(), to, ErrBadArgument)
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Complex128
}

func returnAnnotation(t reflect.Type) string {
	switch t.NumOut() {
	case 0:
		return ""
	case 1:
		return t.Out(0).String()
	}
	outs := make([]string, t.NumOut())
	for i := range outs {
		outs[i] = t.Out(i).String()
	}
	return "(" + strings.Join(outs, ", ") + ")"
}

// splitRuntimeName turns "example.com/pkg.(*Server).Handle-fm" into
// qual "Server.Handle", simple "Handle" and bound true.
func splitRuntimeName(full string) (qual, simple string, bound bool) {
	if full == "" {
		return "", "", false
	}
	s := full
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if strings.HasSuffix(s, "-fm") {
		bound = true
		s = strings.TrimSuffix(s, "-fm")
	}
	if i := strings.Index(s, "."); i >= 0 {
		s = s[i+1:]
	}
	s = strings.NewReplacer("(*", "", "(", "", ")", "", "[...]", "").Replace(s)
	simple = s
	if i := strings.LastIndex(s, "."); i >= 0 {
		simple = s[i+1:]
	}
	return s, simple, bound
}
