// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package inspect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/siginspect/pkg/callable"
	"github.com/kraklabs/siginspect/pkg/inspect"
	"github.com/kraklabs/siginspect/pkg/signature"
)

// record returns every bound argument, so two calls can be compared.
func record(_ context.Context, a *callable.Arguments) (any, error) {
	out := make(map[string]any)
	for _, n := range a.Names() {
		out[n] = a.Get(n)
	}
	return out, nil
}

func TestInspectParameters_APIEndpoint(t *testing.T) {
	api := callable.MustNew("def api_endpoint(user_id, limit=10, *, include_deleted=False)", record)

	args, kwargs, err := inspect.InspectParameters(api, map[string]any{
		"user_id":         123,
		"limit":           20,
		"include_deleted": true,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{123, 20}, args)
	assert.Equal(t, map[string]any{"include_deleted": true}, kwargs)
}

func TestInspectParameters_Policy(t *testing.T) {
	tests := []struct {
		name       string
		decl       string
		values     map[string]any
		wantArgs   []any
		wantKwargs map[string]any
	}{
		{
			name:       "gap moves later positional to keyword",
			decl:       "def f(a, b=2, c=3)",
			values:     map[string]any{"a": 1, "c": 30},
			wantArgs:   []any{1},
			wantKwargs: map[string]any{"c": 30},
		},
		{
			name:       "leading gap",
			decl:       "def f(a=1, b=2)",
			values:     map[string]any{"b": 20},
			wantArgs:   []any{},
			wantKwargs: map[string]any{"b": 20},
		},
		{
			name:       "positional only after gap is dropped",
			decl:       "def f(a=1, b=2, /, c=3)",
			values:     map[string]any{"b": 20, "c": 30},
			wantArgs:   []any{},
			wantKwargs: map[string]any{"c": 30},
		},
		{
			name:       "positional only contiguous",
			decl:       "def f(a, b, /, c)",
			values:     map[string]any{"a": 1, "b": 2, "c": 3},
			wantArgs:   []any{1, 2, 3},
			wantKwargs: map[string]any{},
		},
		{
			name:       "unknown names kept without kwargs",
			decl:       "def f(a)",
			values:     map[string]any{"a": 1, "zzz": 2},
			wantArgs:   []any{1},
			wantKwargs: map[string]any{"zzz": 2},
		},
		{
			name:       "pass through with kwargs",
			decl:       "def f(a, *, b, **options)",
			values:     map[string]any{"a": 1, "b": 2, "color": "red", "size": 3},
			wantArgs:   []any{1},
			wantKwargs: map[string]any{"b": 2, "color": "red", "size": 3},
		},
		{
			name:       "kwargs map merged under its own name",
			decl:       "def f(a, **kwargs)",
			values:     map[string]any{"a": 1, "x": 1, "kwargs": map[string]any{"x": 99, "y": 2}},
			wantArgs:   []any{1},
			wantKwargs: map[string]any{"x": 1, "y": 2},
		},
		{
			name:       "kwargs non map value passes through",
			decl:       "def f(**kwargs)",
			values:     map[string]any{"kwargs": 5},
			wantArgs:   []any{},
			wantKwargs: map[string]any{"kwargs": 5},
		},
		{
			name:       "var positional ignored when absent",
			decl:       "def f(a, *args, b)",
			values:     map[string]any{"a": 1, "b": 2},
			wantArgs:   []any{1},
			wantKwargs: map[string]any{"b": 2},
		},
		{
			name:       "var positional spread",
			decl:       "def f(a, *args)",
			values:     map[string]any{"a": 1, "args": []int{2, 3}},
			wantArgs:   []any{1, 2, 3},
			wantKwargs: map[string]any{},
		},
		{
			name:       "var positional single value",
			decl:       "def f(*args)",
			values:     map[string]any{"args": "x"},
			wantArgs:   []any{"x"},
			wantKwargs: map[string]any{},
		},
		{
			name:       "var positional after gap dropped",
			decl:       "def f(a=1, *args)",
			values:     map[string]any{"args": []any{2}},
			wantArgs:   []any{},
			wantKwargs: map[string]any{},
		},
		{
			name:       "empty values",
			decl:       "def f(a, *, b)",
			values:     nil,
			wantArgs:   []any{},
			wantKwargs: map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, kwargs, err := inspect.InspectParameters(callable.MustNew(tt.decl, record), tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, args)
			assert.Equal(t, tt.wantKwargs, kwargs)
		})
	}
}

func TestInspectParameters_BoundMethod(t *testing.T) {
	method := callable.MustNew("def save(self, path, *, overwrite=False)", record)
	bound, err := method.BindInstance("doc")
	require.NoError(t, err)

	args, kwargs, err := inspect.InspectParameters(bound, map[string]any{"path": "/tmp/x", "overwrite": true})
	require.NoError(t, err)
	assert.Equal(t, []any{"/tmp/x"}, args)
	assert.Equal(t, map[string]any{"overwrite": true}, kwargs)

	out, err := bound.Call(context.Background(), args, kwargs)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"self": "doc", "path": "/tmp/x", "overwrite": true}, out)
}

// Calling with the mapped split must match calling with every value by name.
func TestInspectParameters_RoundTrip(t *testing.T) {
	tests := []struct {
		decl   string
		values map[string]any
	}{
		{"def greet(name: str, age: int = 25) -> str", map[string]any{"name": "Ada"}},
		{"def greet(name: str, age: int = 25) -> str", map[string]any{"name": "Ada", "age": 36}},
		{"def api_endpoint(user_id, limit=10, *, include_deleted=False)", map[string]any{"user_id": 1}},
		{"def f(a, b=2, c=3, *, d)", map[string]any{"a": 1, "c": 3, "d": 4}},
		{"def f(a, *args, b, **kw)", map[string]any{"a": 1, "b": 2}},
		{"def f(a, *, b, **kw)", map[string]any{"a": 1, "b": 2, "extra": 3}},
		{"async def f(x, y=None)", map[string]any{"x": 1, "y": 2}},
	}
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			f := callable.MustNew(tt.decl, record)

			args, kwargs, err := inspect.InspectParameters(f, tt.values)
			require.NoError(t, err)

			res, err := f.Call(ctx, args, kwargs)
			viaSplit, err := callable.Resolve(ctx, res, err)
			require.NoError(t, err)

			res, err = f.CallNamed(ctx, tt.values)
			viaNames, err := callable.Resolve(ctx, res, err)
			require.NoError(t, err)
			assert.Equal(t, viaNames, viaSplit)
		})
	}
}

func TestInspectParameters_MissingRequiredFailsAtCall(t *testing.T) {
	f := callable.MustNew("def f(a, b)", record)
	args, kwargs, err := inspect.InspectParameters(f, map[string]any{"b": 2})
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Equal(t, map[string]any{"b": 2}, kwargs)

	_, err = f.Call(context.Background(), args, kwargs)
	assert.EqualError(t, err, "f() missing 1 required positional argument: 'a'")
}

func TestInspectParameters_UnknownNameFailsAtCall(t *testing.T) {
	tests := []struct {
		decl   string
		values map[string]any
	}{
		{"def f(a, b)", map[string]any{"a": 1, "b": 2, "extra": 3}},
		{"def no_params() -> str", map[string]any{"extra": "value"}},
	}
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			f := callable.MustNew(tt.decl, record)
			args, kwargs, err := inspect.InspectParameters(f, tt.values)
			require.NoError(t, err)
			assert.Contains(t, kwargs, "extra")

			_, splitErr := f.Call(ctx, args, kwargs)
			_, namedErr := f.CallNamed(ctx, tt.values)
			require.Error(t, namedErr)
			assert.EqualError(t, splitErr, namedErr.Error())
		})
	}
}

func TestMapArguments_Tuple(t *testing.T) {
	fi, err := inspect.InspectFunction(callable.MustNew("def f(*args)", record))
	require.NoError(t, err)
	args, _ := fi.MapArguments(map[string]any{"args": signature.Tuple{1, 2}})
	assert.Equal(t, []any{1, 2}, args)
}
