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
	"github.com/kraklabs/siginspect/pkg/signature"
)

// DefKind is how a def behaves when accessed as an attribute.
type DefKind int

const (
	// DefFunction is a plain def: a function at module level, an instance
	// method inside a class.
	DefFunction DefKind = iota
	// DefStaticMethod is decorated with @staticmethod.
	DefStaticMethod
	// DefClassMethod is decorated with @classmethod.
	DefClassMethod
	// DefProperty is decorated with @property or a cached property.
	DefProperty
	// DefLambda is a lambda assigned to a name.
	DefLambda
)

// String returns a short name for the kind.
func (k DefKind) String() string {
	switch k {
	case DefStaticMethod:
		return "staticmethod"
	case DefClassMethod:
		return "classmethod"
	case DefProperty:
		return "property"
	case DefLambda:
		return "lambda"
	default:
		return "function"
	}
}

// Def is a function, method or lambda found in source.
type Def struct {
	Name       string
	QualName   string
	Line       int
	Kind       DefKind
	Async      bool
	Decorators []string

	// sig is the full declared signature, receiver included.
	sig *signature.Signature
	// err is set when the parameter list could not be read.
	err error
}

// Signature implements signature.Callable for the def accessed directly, as
// a module function or through its class.
func (d *Def) Signature() (*signature.Signature, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.sig.Clone(), nil
}

// Class is a class definition and its members.
type Class struct {
	Name       string
	QualName   string
	Line       int
	Bases      []string
	Decorators []string

	methods map[string]*Def
	classes map[string]*Class
	fields  []signature.Param // annotated class attributes, for dataclasses
	order   []string
}

// Method looks up a method defined directly on the class.
func (c *Class) Method(name string) (*Def, bool) {
	d, ok := c.methods[name]
	return d, ok
}

// Methods returns the methods defined directly on the class, in source order.
func (c *Class) Methods() []*Def {
	out := make([]*Def, 0, len(c.methods))
	for _, name := range c.order {
		if d, ok := c.methods[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Classes returns the nested classes, in source order.
func (c *Class) Classes() []*Class {
	out := make([]*Class, 0, len(c.classes))
	for _, name := range c.order {
		if nc, ok := c.classes[name]; ok {
			out = append(out, nc)
		}
	}
	return out
}

func (c *Class) isDataclass() bool {
	for _, d := range c.Decorators {
		switch d {
		case "dataclass", "dataclasses.dataclass":
			return true
		}
	}
	return false
}

func (c *Class) add(name string, member any) {
	if _, ok := c.methods[name]; !ok {
		if _, ok := c.classes[name]; !ok {
			c.order = append(c.order, name)
		}
	}
	// later definitions replace earlier ones
	delete(c.methods, name)
	delete(c.classes, name)
	switch m := member.(type) {
	case *Def:
		c.methods[name] = m
	case *Class:
		c.classes[name] = m
	}
}

// Module is the set of definitions parsed from one Python source file.
type Module struct {
	Path string

	functions map[string]*Def
	classes   map[string]*Class
	locals    map[string]*Def // nested functions by qualname
	imports   map[string]string
	order     []string
}

func newModule(path string) *Module {
	return &Module{
		Path:      path,
		functions: make(map[string]*Def),
		classes:   make(map[string]*Class),
		locals:    make(map[string]*Def),
		imports:   make(map[string]string),
	}
}

func newClass(name, qualName string, line int) *Class {
	return &Class{
		Name:     name,
		QualName: qualName,
		Line:     line,
		methods:  make(map[string]*Def),
		classes:  make(map[string]*Class),
	}
}

func (m *Module) add(name string, member any) {
	if _, ok := m.functions[name]; !ok {
		if _, ok := m.classes[name]; !ok {
			m.order = append(m.order, name)
		}
	}
	delete(m.functions, name)
	delete(m.classes, name)
	switch d := member.(type) {
	case *Def:
		m.functions[name] = d
	case *Class:
		m.classes[name] = d
	}
}

// Function looks up a module-level function or lambda by name.
func (m *Module) Function(name string) (*Def, bool) {
	d, ok := m.functions[name]
	return d, ok
}

// Class looks up a module-level class by name.
func (m *Module) Class(name string) (*Class, bool) {
	c, ok := m.classes[name]
	return c, ok
}

// Local looks up a nested function by qualified name, such as
// "outer.<locals>.inner".
func (m *Module) Local(qualName string) (*Def, bool) {
	d, ok := m.locals[qualName]
	return d, ok
}

// Import returns the dotted path a module-level import binds to name:
// "numpy" for "import numpy as np", "pathlib.Path" for
// "from pathlib import Path".
func (m *Module) Import(name string) (string, bool) {
	path, ok := m.imports[name]
	return path, ok
}

// Targets lists every name Resolve accepts, in source order: module
// functions, classes (their constructors), class members and nested
// functions.
func (m *Module) Targets() []string {
	var out []string
	for _, name := range m.order {
		if d, ok := m.functions[name]; ok {
			out = append(out, name)
			out = append(out, m.localsOf(d.QualName)...)
			continue
		}
		if c, ok := m.classes[name]; ok {
			out = append(out, m.classTargets(c, name)...)
		}
	}
	return out
}

func (m *Module) classTargets(c *Class, path string) []string {
	out := []string{path}
	for _, name := range c.order {
		if d, ok := c.methods[name]; ok {
			if d.Kind != DefProperty {
				out = append(out, path+"."+name)
			}
			out = append(out, m.localsOf(d.QualName)...)
			continue
		}
		if nc, ok := c.classes[name]; ok {
			out = append(out, m.classTargets(nc, path+"."+name)...)
		}
	}
	return out
}

func (m *Module) localsOf(qualName string) []string {
	var out []string
	prefix := qualName + ".<locals>."
	for _, q := range m.localOrder() {
		if len(q) > len(prefix) && q[:len(prefix)] == prefix {
			out = append(out, q)
		}
	}
	return out
}

func (m *Module) localOrder() []string {
	defs := make([]*Def, 0, len(m.locals))
	for _, d := range m.locals {
		defs = append(defs, d)
	}
	sortDefs(defs)
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.QualName
	}
	return out
}
