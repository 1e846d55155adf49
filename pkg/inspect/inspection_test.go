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

package inspect_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/siginspect/pkg/callable"
	"github.com/kraklabs/siginspect/pkg/inspect"
	"github.com/kraklabs/siginspect/pkg/signature"
)

func noop(context.Context, *callable.Arguments) (any, error) { return nil, nil }

func mustInspect(t *testing.T, c signature.Callable) *inspect.FunctionInspection {
	t.Helper()
	fi, err := inspect.InspectFunction(c)
	require.NoError(t, err)
	return fi
}

func TestInspectFunction_KindsAndPositions(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("def f(a, b=1, *, c)", noop))

	params := fi.Parameters()
	require.Len(t, params, 3)

	assert.Equal(t, "a", params[0].Name)
	assert.Equal(t, signature.KindPositionalOrKeyword, params[0].Kind)
	assert.False(t, params[0].HasDefault)
	require.NotNil(t, params[0].Position)
	assert.Equal(t, 0, *params[0].Position)

	assert.Equal(t, "b", params[1].Name)
	assert.Equal(t, signature.KindPositionalOrKeyword, params[1].Kind)
	assert.True(t, params[1].HasDefault)
	require.NotNil(t, params[1].Default)
	assert.Equal(t, "1", *params[1].Default)
	assert.Equal(t, 1, params[1].DefaultValue)
	require.NotNil(t, params[1].Position)
	assert.Equal(t, 1, *params[1].Position)

	assert.Equal(t, "c", params[2].Name)
	assert.Equal(t, signature.KindKeywordOnly, params[2].Kind)
	assert.Nil(t, params[2].Position)
	assert.Nil(t, params[2].Default)
}

func TestInspectFunction_Greet(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("def greet(name: str, age: int = 25) -> str", noop))

	assert.False(t, fi.Awaitable())
	assert.False(t, fi.IsCoroutineFunction())
	assert.True(t, fi.IsFunction())
	assert.Len(t, fi.Parameters(), 2)
	assert.Equal(t, "str", fi.ReturnAnnotation())
	assert.Equal(t, "greet", fi.Name())

	age := fi.Parameters()[1]
	assert.Equal(t, "int", age.Annotation)
	assert.Equal(t, "25", *age.Default)
	assert.True(t, age.IsOptional)
}

func TestInspectFunction_NoAnnotation(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("def f(x)", noop))
	assert.Equal(t, inspect.NoAnnotation, fi.Parameters()[0].Annotation)
	assert.Equal(t, inspect.NoAnnotation, fi.ReturnAnnotation())
}

func TestInspectFunction_Awaitable(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("async def fetch(url: str) -> bytes", noop))
	assert.True(t, fi.Awaitable())
	assert.True(t, fi.IsCoroutineFunction())
	assert.True(t, fi.IsFunction())
}

func TestInspectFunction_Classification(t *testing.T) {
	method := callable.MustNew("def area(self, scale: float = 1.0) -> float", noop)
	factory := callable.MustNew("def create(cls, name: str)", noop)

	bound, err := method.BindInstance(struct{}{})
	require.NoError(t, err)
	classBound, err := factory.BindType("Shape")
	require.NoError(t, err)

	tests := []struct {
		name       string
		c          signature.Callable
		want       inspect.Kind
		wantParams int
	}{
		{"unbound method through class", method, inspect.KindFunction, 2},
		{"bound method", bound, inspect.KindMethod, 1},
		{"class method", classBound, inspect.KindClassMethod, 1},
		{"static method", callable.MustNew("def helper(x)", noop), inspect.KindFunction, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fi := mustInspect(t, tt.c)
			assert.Equal(t, tt.want, fi.Kind())
			assert.Len(t, fi.Parameters(), tt.wantParams)

			flags := 0
			for _, f := range []bool{fi.IsFunction(), fi.IsMethod(), fi.IsClassMethod()} {
				if f {
					flags++
				}
			}
			assert.Equal(t, 1, flags)
		})
	}
}

func TestInspectFunction_DerivedAccessors(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("def f(a, /, b, c=1, *args, d, e=2, **kwargs)", noop))

	names := func(ps []inspect.Parameter) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name
		}
		return out
	}

	assert.Equal(t, []string{"a"}, names(fi.PositionalOnlyParams()))
	assert.Equal(t, []string{"b", "c"}, names(fi.PositionalOrKeywordParams()))
	assert.Equal(t, []string{"d", "e"}, names(fi.KeywordOnlyParams()))
	assert.Equal(t, []string{"a", "b", "d"}, names(fi.RequiredParams()))
	assert.Equal(t, []string{"c", "e"}, names(fi.OptionalParams()))

	vp, ok := fi.VarPositionalParam()
	require.True(t, ok)
	assert.Equal(t, "args", vp.Name)
	assert.True(t, vp.IsOptional)
	assert.Nil(t, vp.Position)

	vk, ok := fi.VarKeywordParam()
	require.True(t, ok)
	assert.Equal(t, "kwargs", vk.Name)
	assert.True(t, vk.IsOptional)
	assert.False(t, vk.IsRequired())

	positions := []int{}
	for _, p := range fi.Parameters() {
		if p.Position != nil {
			positions = append(positions, *p.Position)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, positions)

	plain := mustInspect(t, callable.MustNew("def g()", noop))
	_, ok = plain.VarPositionalParam()
	assert.False(t, ok)
	_, ok = plain.VarKeywordParam()
	assert.False(t, ok)
}

func TestFunctionInspection_Immutable(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("def f(a)", noop))
	ps := fi.Parameters()
	ps[0].Name = "mutated"
	assert.Equal(t, "a", fi.Parameters()[0].Name)
}

func TestFunctionInspection_MarshalJSON(t *testing.T) {
	fi := mustInspect(t, callable.MustNew("def f(a: int, *, b='x') -> None", noop))

	data, err := json.Marshal(fi)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "function", got["kind"])
	assert.Equal(t, true, got["is_function"])
	assert.Equal(t, false, got["is_method"])
	assert.Equal(t, false, got["awaitable"])
	assert.Equal(t, "None", got["return_annotation"])

	params := got["parameters"].([]any)
	require.Len(t, params, 2)
	a := params[0].(map[string]any)
	assert.Equal(t, "positional_or_keyword", a["kind"])
	assert.Equal(t, float64(0), a["position"])
	assert.NotContains(t, a, "default")

	b := params[1].(map[string]any)
	assert.Equal(t, "keyword_only", b["kind"])
	assert.Equal(t, "'x'", b["default"])
	assert.NotContains(t, b, "position")
}

type brokenCallable struct{ err error }

func (b brokenCallable) Signature() (*signature.Signature, error) { return nil, b.err }

type badShape struct{}

func (badShape) Signature() (*signature.Signature, error) {
	return &signature.Signature{Name: "bad", Params: []signature.Param{
		{Name: "kw", Kind: signature.KindVarKeyword},
		{Name: "a", Kind: signature.KindPositionalOrKeyword},
	}}, nil
}

func TestInspectFunction_Errors(t *testing.T) {
	var nilFunc *callable.Func

	tests := []struct {
		name  string
		c     signature.Callable
		cause error
	}{
		{"nil interface", nil, inspect.ErrNotCallable},
		{"typed nil", nilFunc, inspect.ErrNotCallable},
		{"no metadata", brokenCallable{err: errors.New("builtin without signature")}, inspect.ErrNoSignature},
		{"nil signature", brokenCallable{}, inspect.ErrNoSignature},
		{"malformed", badShape{}, inspect.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inspect.InspectFunction(tt.c)
			require.Error(t, err)
			var ie *inspect.InspectionError
			require.True(t, errors.As(err, &ie), "got %T", err)
			assert.ErrorIs(t, err, tt.cause)

			_, _, mapErr := inspect.InspectParameters(tt.c, map[string]any{"a": 1})
			assert.ErrorIs(t, mapErr, tt.cause)
		})
	}
}

func TestInspectAny(t *testing.T) {
	fi, err := inspect.InspectAny(callable.MustNew("def f(a)", noop))
	require.NoError(t, err)
	assert.Len(t, fi.Parameters(), 1)

	fi, err = inspect.InspectAny(func(x int, ys ...string) error { return nil })
	require.NoError(t, err)
	require.Len(t, fi.Parameters(), 2)
	assert.Equal(t, signature.KindPositionalOnly, fi.Parameters()[0].Kind)
	assert.Equal(t, signature.KindVarPositional, fi.Parameters()[1].Kind)
	assert.False(t, fi.Awaitable())

	for _, v := range []any{nil, 42, "def f()", struct{}{}} {
		_, err := inspect.InspectAny(v)
		assert.ErrorIs(t, err, inspect.ErrNotCallable, "%T", v)
	}
}

func TestNewInspector_NilLogger(t *testing.T) {
	in := inspect.NewInspector(nil)
	fi, err := in.InspectFunction(callable.MustNew("def f()", noop))
	require.NoError(t, err)
	assert.Empty(t, fi.Parameters())
}
