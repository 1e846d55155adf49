// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/siginspect/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Default(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Empty(t, cfg.SchemaOptions())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
output: json
no_color: true
schema:
  fallback_type: string
  skip_params: [self, cls, request]
  metadata: false
source:
  max_bytes: 4096
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "string", cfg.Schema.FallbackType)
	assert.Equal(t, []string{"self", "cls", "request"}, cfg.Schema.SkipParams)
	assert.Equal(t, int64(4096), cfg.Source.MaxBytes)
	assert.Len(t, cfg.SchemaOptions(), 3)
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"explicit missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") }},
		{"unknown key", func(t *testing.T) string { return writeConfig(t, "outptu: json\n") }},
		{"bad yaml", func(t *testing.T) string { return writeConfig(t, "output: [\n") }},
		{"negative max bytes", func(t *testing.T) string { return writeConfig(t, "source:\n  max_bytes: -1\n") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path(t))
			require.Error(t, err)
			var ue *errors.UserError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, errors.ExitConfig, ue.ExitCode)
		})
	}
}

func TestDecodeValues(t *testing.T) {
	vals, err := decodeValues([]byte(`{"a": 1, "b": 2.5, "c": [1, {"d": 3}], "e": null}`))
	require.NoError(t, err)
	assert.Equal(t, 1, vals["a"])
	assert.Equal(t, 2.5, vals["b"])
	assert.Equal(t, []any{1, map[string]any{"d": 3}}, vals["c"])
	assert.Nil(t, vals["e"])

	_, err = decodeValues([]byte(`"text"`))
	assert.Error(t, err)
}

func TestDecodeValues_TrailingData(t *testing.T) {
	for _, in := range []string{`{"a": 1} junk`, `{"a": 1} {"b": 2}`, `{"a": 1}]`} {
		_, err := decodeValues([]byte(in))
		assert.ErrorContains(t, err, "unexpected data after the JSON object", in)
	}

	vals, err := decodeValues([]byte("{\"a\": 1}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, vals["a"])
}
