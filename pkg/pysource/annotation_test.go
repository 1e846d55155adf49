// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pysource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotationSrc = `
import os.path
import numpy as np
from pathlib import Path
from typing import Any, Optional
from .models import Record as Row


class Outer:
    class Inner:
        def run(self):
            pass


def handler(x):
    pass
`

func loadAnnotations(t *testing.T) *Module {
	t.Helper()
	mod, err := NewParser(nil).Parse(context.Background(), "annotations.py", []byte(annotationSrc))
	require.NoError(t, err)
	return mod
}

func TestParse_Imports(t *testing.T) {
	mod := loadAnnotations(t)

	tests := map[string]string{
		"os":       "os",
		"np":       "numpy",
		"Path":     "pathlib.Path",
		"Optional": "typing.Optional",
		"Row":      ".models.Record",
	}
	for name, want := range tests {
		path, ok := mod.Import(name)
		require.True(t, ok, name)
		assert.Equal(t, want, path, name)
	}
	_, ok := mod.Import("numpy")
	assert.False(t, ok)
}

func TestLoadAnnotation(t *testing.T) {
	mod := loadAnnotations(t)

	tests := []struct {
		annotation string
		kind       AnnotationKind
		name       string
		optional   bool
	}{
		{"Outer", AnnotationClass, "Outer", false},
		{"Outer.Inner", AnnotationClass, "Outer.Inner", false},
		{"Outer.Inner.run", AnnotationFunction, "Outer.Inner.run", false},
		{"handler", AnnotationFunction, "handler", false},
		{`"Outer"`, AnnotationClass, "Outer", false},
		{"Optional[Outer.Inner]", AnnotationClass, "Outer.Inner", true},
		{"Outer | None", AnnotationClass, "Outer", true},
		{"Union[None, Outer]", AnnotationClass, "Outer", true},
		{"int", AnnotationBuiltin, "int", false},
		{"Any", AnnotationLiteral, "Any", false},
		{"None", AnnotationLiteral, "None", false},
		{"Path", AnnotationImported, "pathlib.Path", false},
		{"np.ndarray", AnnotationImported, "numpy.ndarray", false},
		{"os.path.Path", AnnotationImported, "os.path.Path", false},
		{"typing.List[int]", AnnotationTyping, "List[int]", false},
		{"Dict[str, Outer]", AnnotationTyping, "Dict[str, Outer]", false},
		{"list[Outer]", AnnotationBuiltin, "list[Outer]", false},
		{"<class '__main__.Outer'>", AnnotationClass, "Outer", false},
		{"<class 'int'>", AnnotationBuiltin, "int", false},
		{"<class 'builtins.str'>", AnnotationBuiltin, "str", false},
	}
	for _, tt := range tests {
		t.Run(tt.annotation, func(t *testing.T) {
			obj, err := mod.LoadAnnotation(tt.annotation)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, obj.Kind)
			assert.Equal(t, tt.name, obj.String())
			assert.Equal(t, tt.optional, obj.Optional)
		})
	}

	obj, err := mod.LoadAnnotation("Outer.Inner")
	require.NoError(t, err)
	require.NotNil(t, obj.Class)
	assert.Equal(t, "Inner", obj.Class.Name)
}

func TestLoadAnnotation_Errors(t *testing.T) {
	mod := loadAnnotations(t)

	tests := []struct {
		annotation string
		want       error
	}{
		{"UnknownClassName", ErrNotFound},
		{"Outer.Missing", ErrNotFound},
		{"Optional[Missing]", ErrNotFound},
		{"handler.attr", ErrNotFound},
		{"pd.DataFrame", ErrNotImported},
		{"matplotlib.pyplot.Figure", ErrNotImported},
		{"<class 'some_unknown_module.SomeClass'>", ErrNotFound},
		{"", ErrInvalidAnnotation},
		{"List[int", ErrInvalidAnnotation},
		{"1abc", ErrInvalidAnnotation},
	}
	for _, tt := range tests {
		t.Run(tt.annotation, func(t *testing.T) {
			_, err := mod.LoadAnnotation(tt.annotation)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := mod.LoadAnnotation("pd.DataFrame")
	assert.ErrorContains(t, err, `module "pd" required for annotation "pd.DataFrame"`)
}

func TestDescribeAnnotation(t *testing.T) {
	mod := loadAnnotations(t)

	info := mod.DescribeAnnotation("<class '__main__.Outer'>")
	assert.True(t, info.IsClass())
	assert.True(t, info.IsMainModule)
	assert.Equal(t, "__main__", info.ModuleName)
	assert.Equal(t, "Outer", info.ObjectName)
	assert.True(t, info.CanLoad)

	info = mod.DescribeAnnotation("Optional[Outer]")
	assert.True(t, info.IsClass())
	assert.True(t, info.Optional)
	assert.Equal(t, "Outer", info.Resolved)

	info = mod.DescribeAnnotation("np.ndarray")
	assert.Equal(t, AnnotationImported, info.Kind)
	assert.Equal(t, "numpy", info.ModuleName)
	assert.Equal(t, "ndarray", info.ObjectName)

	info = mod.DescribeAnnotation("<class 'int'>")
	assert.True(t, info.IsBuiltin())
	assert.Equal(t, "int", info.ObjectName)

	info = mod.DescribeAnnotation("<function 'handler' at 0x10>")
	assert.True(t, info.IsFunction())
	assert.Equal(t, "handler", info.ObjectName)
	assert.True(t, info.CanLoad)

	info = mod.DescribeAnnotation("<class '__main__.Gone'>")
	assert.True(t, info.IsClass())
	assert.False(t, info.CanLoad)

	info = mod.DescribeAnnotation("List[Missing]")
	assert.True(t, info.IsTypingConstruct())
	assert.False(t, info.CanLoad)
	assert.NotEmpty(t, info.Error)

	info = mod.DescribeAnnotation("Mystery")
	assert.Equal(t, AnnotationUnknown, info.Kind)
	assert.False(t, info.CanLoad)
}

func TestAnnotationKind_String(t *testing.T) {
	assert.Equal(t, "typing_construct", AnnotationTyping.String())
	assert.Equal(t, "annotation(42)", AnnotationKind(42).String())
	text, err := AnnotationClass.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "class", string(text))
}
