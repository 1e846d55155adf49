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

package pysource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kraklabs/siginspect/internal/contract"
	"github.com/kraklabs/siginspect/pkg/signature"
)

var (
	// ErrNotFound is returned when a target names nothing in the module.
	ErrNotFound = errors.New("target not found")
	// ErrInvalidTarget is returned for target expressions Resolve cannot read.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrTooLarge is returned by LoadFile for files over the size limit.
	ErrTooLarge = errors.New("source too large")
)

// Target is a callable resolved from source. Its signature reflects how it
// was reached: through a class, through an instance or directly.
type Target struct {
	name string
	sig  *signature.Signature
	err  error
}

// Name returns the target expression that produced t.
func (t *Target) Name() string { return t.name }

// Signature implements signature.Callable.
func (t *Target) Signature() (*signature.Signature, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.sig.Clone(), nil
}

// Resolve looks up a target expression. Accepted forms are a function name
// ("f"), a nested function ("outer.<locals>.inner"), a class ("C"), a member
// through the class ("C.m", "Outer.Inner.m"), a member through an instance
// ("C().m") and a callable instance ("C()").
//
// Resolve fails with ErrNotFound or ErrInvalidTarget when the expression
// does not name anything. A target that exists but has no signature is
// returned with its error deferred to Signature, so the caller reports it
// as an inspection failure.
func (m *Module) Resolve(target string) (*Target, error) {
	if res := contract.ValidateTarget(target); !res.OK {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, res.Message)
	}
	if strings.Contains(target, ".<locals>.") {
		d, ok := m.Local(target)
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, target, m.Path)
		}
		return direct(target, d), nil
	}

	segs := strings.Split(target, ".")
	var (
		cls      *Class
		instance bool
	)
	for i, seg := range segs {
		last := i == len(segs)-1
		call := strings.HasSuffix(seg, "()")
		name := strings.TrimSuffix(seg, "()")
		if !isIdentifier(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}

		var (
			def    *Def
			nested *Class
		)
		switch {
		case cls == nil:
			def = m.functions[name]
			nested = m.classes[name]
		case instance:
			def, _ = m.lookup(cls, name)
		default:
			if def, _ = m.lookup(cls, name); def == nil {
				nested = cls.classes[name]
			}
		}

		switch {
		case def != nil:
			if !last || call {
				return nil, fmt.Errorf("%w: %q: cannot look past %s", ErrInvalidTarget, target, def.QualName)
			}
			if cls == nil {
				return direct(target, def), nil
			}
			return access(target, def, instance), nil

		case nested != nil:
			cls, instance = nested, call
			if last {
				if call {
					return m.instanceCall(target, cls), nil
				}
				return m.constructor(target, cls), nil
			}

		default:
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, target, m.Path)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
}

func direct(target string, d *Def) *Target {
	sig, err := d.Signature()
	return &Target{name: target, sig: sig, err: err}
}

// access applies descriptor rules to a member reached through a class or
// one of its instances.
func access(target string, d *Def, instance bool) *Target {
	t := &Target{name: target}
	sig, err := d.Signature()
	if err != nil {
		t.err = err
		return t
	}
	switch d.Kind {
	case DefStaticMethod:
		t.sig = sig
	case DefClassMethod:
		t.sig, t.err = bindFirst(sig, signature.Type)
	case DefProperty:
		if instance {
			t.err = signature.NewInspectionError(target, signature.ErrNoSignature,
				"%s is a property; its value is not known from source", d.QualName)
		} else {
			t.err = signature.NewInspectionError(target, signature.ErrNotCallable,
				"%s is a property object", d.QualName)
		}
	default:
		if instance {
			t.sig, t.err = bindFirst(sig, signature.Instance)
		} else {
			t.sig = sig
		}
	}
	return t
}

// bindFirst drops the receiver. A leading *args absorbs the receiver and
// stays in place.
func bindFirst(sig *signature.Signature, b signature.Binding) (*signature.Signature, error) {
	if len(sig.Params) > 0 && sig.Params[0].Kind == signature.KindVarPositional {
		out := sig.Clone()
		out.Binding = b
		return out, nil
	}
	return sig.DropFirst(b)
}

// lookup finds a method on c or its in-module bases, depth first and left
// to right. When several names are given, the first class defining any of
// them wins, and within that class the earlier name wins. unknown lists
// bases that are not defined in the module.
func (m *Module) lookup(c *Class, names ...string) (def *Def, unknown []string) {
	seen := make(map[*Class]bool)
	var walk func(c *Class) *Def
	walk = func(c *Class) *Def {
		if seen[c] {
			return nil
		}
		seen[c] = true
		for _, name := range names {
			if d, ok := c.methods[name]; ok {
				return d
			}
		}
		for _, b := range c.Bases {
			base, ok := m.base(b)
			if !ok {
				if b != "object" {
					unknown = append(unknown, b)
				}
				continue
			}
			if d := walk(base); d != nil {
				return d
			}
		}
		return nil
	}
	return walk(c), unknown
}

func (m *Module) base(name string) (*Class, bool) {
	segs := strings.Split(name, ".")
	c, ok := m.classes[segs[0]]
	for _, s := range segs[1:] {
		if !ok {
			return nil, false
		}
		c, ok = c.classes[s]
	}
	return c, ok
}

// constructor derives the signature of calling the class.
func (m *Module) constructor(target string, c *Class) *Target {
	t := &Target{name: target}
	// the hook defined closest in the MRO wins; __new__ first within a class
	if d, _ := m.lookup(c, "__new__", "__init__"); d != nil {
		sig, err := d.Signature()
		if err != nil {
			t.err = err
			return t
		}
		// both hooks take the receiver first: cls for __new__, self for __init__
		t.sig, t.err = bindFirst(sig, signature.Unbound)
		if t.sig != nil {
			t.sig.Name, t.sig.QualName, t.sig.Return, t.sig.Async = c.Name, c.QualName, "", false
		}
		return t
	}

	if fields, ok := m.dataclassFields(c); ok {
		sig := &signature.Signature{Name: c.Name, QualName: c.QualName, Params: fields}
		if err := signature.Validate(sig); err != nil {
			t.err = err
			return t
		}
		t.sig = sig
		return t
	}

	if _, unknown := m.lookup(c, "__new__", "__init__"); len(unknown) > 0 {
		t.err = signature.NewInspectionError(target, signature.ErrNoSignature,
			"constructor inherited from %s, which is not defined in %s", strings.Join(unknown, ", "), m.Path)
		return t
	}
	t.sig = &signature.Signature{Name: c.Name, QualName: c.QualName}
	return t
}

// dataclassFields collects generated __init__ parameters, base class fields
// first.
func (m *Module) dataclassFields(c *Class) ([]signature.Param, bool) {
	if !c.isDataclass() {
		return nil, false
	}
	var (
		fields []signature.Param
		index  = make(map[string]int)
	)
	var collect func(c *Class)
	collect = func(c *Class) {
		for i := len(c.Bases) - 1; i >= 0; i-- {
			if base, ok := m.base(c.Bases[i]); ok && base.isDataclass() {
				collect(base)
			}
		}
		keywordOnly := false
		for _, f := range c.fields {
			switch f.Annotation {
			case "KW_ONLY", "dataclasses.KW_ONLY":
				keywordOnly = true
				continue
			}
			f, ok := dataclassField(f)
			if !ok {
				continue
			}
			if keywordOnly {
				f.Kind = signature.KindKeywordOnly
			}
			if i, ok := index[f.Name]; ok {
				fields[i] = f
				continue
			}
			index[f.Name] = len(fields)
			fields = append(fields, f)
		}
	}
	collect(c)

	// keyword-only fields follow the positional ones in the generated __init__
	out := make([]signature.Param, 0, len(fields))
	for _, f := range fields {
		if f.Kind != signature.KindKeywordOnly {
			out = append(out, f)
		}
	}
	for _, f := range fields {
		if f.Kind == signature.KindKeywordOnly {
			out = append(out, f)
		}
	}
	return out, true
}

// dataclassField interprets field(...) defaults. Fields with init=False are
// dropped.
func dataclassField(f signature.Param) (signature.Param, bool) {
	if f.Default == nil {
		return f, true
	}
	repr := f.Default.Repr
	if !strings.HasPrefix(repr, "field(") && !strings.HasPrefix(repr, "dataclasses.field(") {
		return f, true
	}
	if strings.Contains(repr, "init=False") {
		return f, false
	}
	if strings.Contains(repr, "kw_only=True") {
		f.Kind = signature.KindKeywordOnly
	}
	if !strings.Contains(repr, "default=") && !strings.Contains(repr, "default_factory=") {
		f.Default = nil
		return f, true
	}
	f.Default = &signature.Default{Repr: "<factory>", Value: signature.Expr(repr)}
	if i := strings.Index(repr, "default="); i >= 0 && !strings.Contains(repr, "default_factory=") {
		value := repr[i+len("default="):]
		if j := strings.IndexAny(value, ",)"); j >= 0 {
			value = value[:j]
		}
		f.Default = signature.ParseLiteral(value)
	}
	return f, true
}

// instanceCall resolves calling an instance, which needs __call__.
func (m *Module) instanceCall(target string, c *Class) *Target {
	d, _ := m.lookup(c, "__call__")
	if d == nil {
		return &Target{name: target, err: signature.NewInspectionError(target, signature.ErrNotCallable,
			"%s instances define no __call__", c.QualName)}
	}
	return access(target, d, true)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r > 0x7f:
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
