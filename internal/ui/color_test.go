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

package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func noColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	tests := []struct {
		name     string
		noColor  bool
		expected bool
	}{
		{
			name:     "colors enabled when noColor is false",
			noColor:  false,
			expected: false,
		},
		{
			name:     "colors disabled when noColor is true",
			noColor:  true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitColors(tt.noColor)
			assert.Equal(t, tt.expected, color.NoColor)
		})
	}
}

func TestTextHelpers(t *testing.T) {
	noColor(t)

	assert.Equal(t, "Kind:", Label("Kind:"))
	assert.Equal(t, "/path/to/file.py", DimText("/path/to/file.py"))
	assert.Equal(t, "42", CountText(42))
	assert.Equal(t, "0", CountText(0))
	assert.Equal(t, "-1", CountText(-1))
	assert.Equal(t, "keyword_only", KindText("keyword_only"))
	assert.Equal(t, "name", RequiredText("name"))
	assert.Equal(t, "", Label(""))
}

func TestMessageFunctions(t *testing.T) {
	noColor(t)
	buf := capture(t)

	Success("done")
	Warning("careful")
	Warningf("%d skipped", 2)
	Info("note")
	Infof("%s found", "greet")
	Header("greet")
	SubHeader("Parameters")
	Line("plain")

	assert.Equal(t, "✓ done\n"+
		"⚠ careful\n"+
		"⚠ 2 skipped\n"+
		"ℹ note\n"+
		"ℹ greet found\n"+
		"greet\n=====\n"+
		"Parameters\n"+
		"plain\n", buf.String())
}
