// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name       string   `json:"name" yaml:"name"`
	Awaitable  bool     `json:"awaitable" yaml:"awaitable"`
	Parameters []string `json:"parameters" yaml:"parameters"`
	Default    *string  `json:"default,omitempty" yaml:"default,omitempty"`
}

// TestJSONTo verifies that JSONTo produces pretty-printed JSON.
func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONTo(&buf, record{Name: "greet", Parameters: []string{"name", "age"}}))

	out := buf.String()
	assert.Contains(t, out, "  \"name\": \"greet\"")
	assert.Contains(t, out, `"awaitable": false`)
	assert.NotContains(t, out, "default")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

// TestJSONTo_NoHTMLEscaping keeps the <empty> annotation sentinel readable.
func TestJSONTo_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONTo(&buf, map[string]string{"annotation": "<empty>"}))
	assert.Contains(t, buf.String(), `"<empty>"`)
}

func TestJSONTo_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON encoding failed")
}

func TestYAMLTo(t *testing.T) {
	var buf bytes.Buffer
	dflt := "25"
	require.NoError(t, YAMLTo(&buf, record{Name: "greet", Awaitable: true, Parameters: []string{"name"}, Default: &dflt}))

	assert.Equal(t, "name: greet\nawaitable: true\nparameters:\n  - name\ndefault: \"25\"\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a": 1}`, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, map[string]int{"a": 1}))
	assert.Equal(t, "a: 1\n", buf.String())

	assert.Error(t, Write(&buf, FormatText, nil))
}
