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

package testing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/siginspect/pkg/pysource"
)

// WritePython writes src to name inside a fresh temporary directory and
// returns the file path. src is dedented first.
//
// Example:
//
//	path := testing.WritePython(t, "service.py", src)
//	mod, err := pysource.NewParser(nil).LoadFile(ctx, path)
func WritePython(t *testing.T, name, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(Dedent(src)), 0o600); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// LoadPython writes src as module.py and parses it.
func LoadPython(t *testing.T, src string) *pysource.Module {
	t.Helper()

	path := WritePython(t, "module.py", src)
	mod, err := pysource.NewParser(nil).LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}
	return mod
}

// Resolve resolves target in mod. The resolved target may still fail to
// produce a signature; that is left to the caller to check.
func Resolve(t *testing.T, mod *pysource.Module, target string) *pysource.Target {
	t.Helper()

	tgt, err := mod.Resolve(target)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", target, err)
	}
	return tgt
}

// Dedent removes a leading blank line and the indentation shared by all
// non-blank lines, so fixtures can be written as indented raw strings.
func Dedent(src string) string {
	src = strings.TrimPrefix(src, "\n")
	lines := strings.Split(src, "\n")

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return src
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
