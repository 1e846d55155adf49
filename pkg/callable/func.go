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

package callable

import (
	"context"
	"errors"
	"fmt"

	"github.com/kraklabs/siginspect/pkg/signature"
)

// ErrAlreadyBound is returned when binding a Func that already has a receiver.
var ErrAlreadyBound = errors.New("callable already bound")

// Body implements a declared callable. It receives the fully bound
// arguments, receiver included for methods.
type Body func(ctx context.Context, args *Arguments) (any, error)

// Func is an invocable callable with a declared signature.
type Func struct {
	// full is the declared signature including any receiver parameter.
	full *signature.Signature
	// published is what Signature reports; bound variants drop the receiver.
	published *signature.Signature
	body      Body
	recv      any
	bound     bool
}

// New parses decl and pairs it with body.
func New(decl string, body Body) (*Func, error) {
	sig, err := signature.Parse(decl)
	if err != nil {
		return nil, err
	}
	return FromSignature(sig, body)
}

// MustNew is like New but panics on error.
func MustNew(decl string, body Body) *Func {
	f, err := New(decl, body)
	if err != nil {
		panic(err)
	}
	return f
}

// FromSignature builds a Func from an existing signature, which is copied.
func FromSignature(sig *signature.Signature, body Body) (*Func, error) {
	if err := signature.Validate(sig); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, signature.NewInspectionError(sig.Target(), signature.ErrNotCallable, "nil body")
	}
	s := sig.Clone()
	return &Func{full: s, published: s, body: body}, nil
}

// Name returns the qualified name of the callable.
func (f *Func) Name() string {
	return f.published.Target()
}

// WithQualName returns a copy reporting qualName, as when the callable is
// defined inside a class.
func (f *Func) WithQualName(qualName string) *Func {
	out := *f
	out.full = f.full.Clone()
	out.full.QualName = qualName
	out.published = f.published.Clone()
	out.published.QualName = qualName
	return &out
}

// Signature implements signature.Callable.
func (f *Func) Signature() (*signature.Signature, error) {
	return f.published.Clone(), nil
}

// Call binds args and kwargs and runs the body. Coroutine functions return
// a *Future that runs the body on Await; binding errors are still reported
// immediately, as in Python.
func (f *Func) Call(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	if f.bound {
		args = append([]any{f.recv}, args...)
	}
	bound, err := Bind(f.full, args, kwargs)
	if err != nil {
		return nil, err
	}
	if f.full.Async {
		return newFuture(func(ctx context.Context) (any, error) {
			return f.body(ctx, bound)
		}), nil
	}
	return f.body(ctx, bound)
}

// CallNamed calls f with every value passed by keyword, as f(**values).
func (f *Func) CallNamed(ctx context.Context, values map[string]any) (any, error) {
	return f.Call(ctx, nil, values)
}

// BindInstance returns f bound to recv: the first parameter is dropped from
// the published signature and recv is passed in its place.
func (f *Func) BindInstance(recv any) (*Func, error) {
	return f.bind(recv, signature.Instance)
}

// BindType returns f bound to a type, as a class method accessed through
// its class or one of its instances.
func (f *Func) BindType(t any) (*Func, error) {
	return f.bind(t, signature.Type)
}

func (f *Func) bind(recv any, b signature.Binding) (*Func, error) {
	if f.bound {
		return nil, fmt.Errorf("bind %s: %w", f.Name(), ErrAlreadyBound)
	}
	published, err := f.full.DropFirst(b)
	if err != nil {
		return nil, err
	}
	return &Func{
		full:      f.full,
		published: published,
		body:      f.body,
		recv:      recv,
		bound:     true,
	}, nil
}

// Receiver returns the bound receiver, if any.
func (f *Func) Receiver() (any, bool) {
	return f.recv, f.bound
}
