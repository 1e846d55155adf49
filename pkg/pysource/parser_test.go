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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/siginspect/internal/contract"
	"github.com/kraklabs/siginspect/pkg/signature"
)

func loadService(t *testing.T) *Module {
	t.Helper()
	mod, err := NewParser(nil).LoadFile(context.Background(), filepath.Join("testdata", "service.py"))
	require.NoError(t, err)
	return mod
}

func TestParse_Functions(t *testing.T) {
	mod := loadService(t)

	d, ok := mod.Function("greet")
	require.True(t, ok)
	sig, err := d.Signature()
	require.NoError(t, err)

	// the second definition replaces the first
	assert.Equal(t, "def greet(name: str, greeting: str = 'hello') -> str", sig.String())
	assert.Equal(t, DefFunction, d.Kind)

	d, ok = mod.Function("fetch")
	require.True(t, ok)
	assert.True(t, d.Async)
	sig, err = d.Signature()
	require.NoError(t, err)
	assert.True(t, sig.Async)
	assert.Equal(t, signature.KindKeywordOnly, sig.Params[1].Kind)
	assert.Equal(t, 30.0, sig.Params[1].Default.Value)
}

func TestParse_AllKinds(t *testing.T) {
	mod := loadService(t)
	d, ok := mod.Function("collect")
	require.True(t, ok)
	sig, err := d.Signature()
	require.NoError(t, err)

	kinds := make([]signature.Kind, len(sig.Params))
	for i, p := range sig.Params {
		kinds[i] = p.Kind
	}
	assert.Equal(t, []signature.Kind{
		signature.KindPositionalOnly,
		signature.KindPositionalOrKeyword,
		signature.KindVarPositional,
		signature.KindKeywordOnly,
		signature.KindVarKeyword,
	}, kinds)
	assert.Equal(t, "int", sig.Params[2].Annotation)
	assert.Equal(t, "Any", sig.Params[4].Annotation)
	assert.Equal(t, "None", sig.Return)
}

func TestParse_LambdaAndLocals(t *testing.T) {
	mod := loadService(t)

	d, ok := mod.Function("square")
	require.True(t, ok)
	assert.Equal(t, DefLambda, d.Kind)
	sig, err := d.Signature()
	require.NoError(t, err)
	assert.Equal(t, "<lambda>", sig.Name)
	require.Len(t, sig.Params, 2)
	assert.Equal(t, 2, sig.Params[1].Default.Value)

	d, ok = mod.Local("collect.<locals>.helper")
	require.True(t, ok)
	sig, err = d.Signature()
	require.NoError(t, err)
	assert.Equal(t, "collect.<locals>.helper", sig.QualName)
	assert.Len(t, sig.Params, 2)
}

func TestParse_Classes(t *testing.T) {
	mod := loadService(t)

	c, ok := mod.Class("UserService")
	require.True(t, ok)
	assert.Equal(t, []string{"Base"}, c.Bases)

	var names []string
	for _, m := range c.Methods() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"get_user", "validate", "from_config", "name", "refresh", "__call__"}, names)

	kinds := map[string]DefKind{}
	for _, m := range c.Methods() {
		kinds[m.Name] = m.Kind
	}
	assert.Equal(t, DefStaticMethod, kinds["validate"])
	assert.Equal(t, DefClassMethod, kinds["from_config"])
	assert.Equal(t, DefProperty, kinds["name"])
	assert.Equal(t, DefFunction, kinds["get_user"])

	require.Len(t, c.Classes(), 1)
	assert.Equal(t, "UserService.Cache", c.Classes()[0].QualName)

	m, ok := c.Method("from_config")
	require.True(t, ok)
	sig, err := m.Signature()
	require.NoError(t, err)
	assert.Equal(t, `"UserService"`, sig.Return)
	assert.Equal(t, "UserService.from_config", sig.QualName)
}

func TestParse_ConditionalDefinition(t *testing.T) {
	mod := loadService(t)
	_, ok := mod.Function("conditional")
	assert.True(t, ok)
}

func TestParse_Targets(t *testing.T) {
	mod := loadService(t)
	targets := mod.Targets()

	assert.Contains(t, targets, "greet")
	assert.Contains(t, targets, "collect.<locals>.helper")
	assert.Contains(t, targets, "UserService.get_user")
	assert.Contains(t, targets, "UserService.Cache.get")
	assert.NotContains(t, targets, "UserService.name")

	// a class precedes its members, a function its locals
	idx := func(name string) int {
		for i, target := range targets {
			if target == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idx("UserService"), idx("UserService.get_user"))
	assert.Less(t, idx("collect"), idx("collect.<locals>.helper"))
}

func TestParse_Malformed(t *testing.T) {
	mod, err := NewParser(nil).LoadFile(context.Background(), filepath.Join("testdata", "broken.py"))
	require.NoError(t, err)

	d, ok := mod.Function("before")
	require.True(t, ok)
	_, err = d.Signature()
	assert.NoError(t, err)

	if d, ok := mod.Function("bad"); ok {
		_, err := d.Signature()
		assert.ErrorIs(t, err, signature.ErrMalformed)
	}
}

func TestParse_ParameterSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bare star at end", "def f(a, *):\n    pass\n"},
		{"default before required", "def f(a=1, b):\n    pass\n"},
		{"duplicate", "def f(a, a):\n    pass\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := NewParser(nil).Parse(context.Background(), "inline.py", []byte(tt.src))
			require.NoError(t, err)
			d, ok := mod.Function("f")
			if !ok {
				return
			}
			_, err = d.Signature()
			assert.ErrorIs(t, err, signature.ErrMalformed)
		})
	}
}

func TestParse_PositionalSeparator(t *testing.T) {
	src := "def f(a, b=2, /, c=3, *, d):\n    pass\n"
	mod, err := NewParser(nil).Parse(context.Background(), "inline.py", []byte(src))
	require.NoError(t, err)
	d, ok := mod.Function("f")
	require.True(t, ok)
	sig, err := d.Signature()
	require.NoError(t, err)
	assert.Equal(t, "def f(a, b=2, /, c=3, *, d)", sig.String())
}

func TestParse_MultilineAnnotation(t *testing.T) {
	src := "def f(\n    x: Dict[\n        str,\n        int\n    ],\n) -> None:\n    pass\n"
	mod, err := NewParser(nil).Parse(context.Background(), "inline.py", []byte(src))
	require.NoError(t, err)
	d, ok := mod.Function("f")
	require.True(t, ok)
	sig, err := d.Signature()
	require.NoError(t, err)
	assert.Equal(t, "Dict[str, int]", sig.Params[0].Annotation)
}

func TestLoadFile_Limits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    pass\n"), 0o600))

	t.Setenv(contract.MaxSourceEnv, "")
	p := NewParser(nil)
	p.SetMaxBytes(4)
	_, err := p.LoadFile(context.Background(), path)
	assert.True(t, errors.Is(err, ErrTooLarge))

	p.SetMaxBytes(0)
	_, err = p.LoadFile(context.Background(), path)
	assert.NoError(t, err)

	_, err = p.LoadFile(context.Background(), dir)
	assert.Error(t, err)

	_, err = p.LoadFile(context.Background(), filepath.Join(dir, "missing.py"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
