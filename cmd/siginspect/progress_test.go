// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/siginspect/internal/output"
)

func TestDrawsProgress(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name string
		e    *env
	}{
		{"buffer", &env{format: output.FormatText}},
		{"quiet", &env{format: output.FormatText, globals: GlobalFlags{Quiet: true}}},
		{"json", &env{format: output.FormatJSON}},
		{"yaml", &env{format: output.FormatYAML}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, drawsProgress(tt.e, &buf))
		})
	}

	// a regular file is never a terminal
	f, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	assert.False(t, drawsProgress(&env{format: output.FormatText}, f))
}

func TestFileProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := newFileProgress(&env{stderr: &buf, format: output.FormatText}, 5)
	assert.Nil(t, p.bar)

	p.done("a.py")
	p.finish()
	assert.Empty(t, buf.String())
}

func TestFileProgress_Ticks(t *testing.T) {
	var buf bytes.Buffer
	p := &fileProgress{bar: progressbar.NewOptions(2, progressbar.OptionSetWriter(&buf))}
	p.done("pkg/a.py")
	p.done("pkg/b.py")
	p.finish()
	assert.Contains(t, buf.String(), "b.py")
}
