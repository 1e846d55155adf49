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

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/siginspect/internal/output"
)

// fileProgress ticks once per Python file that list inspects. A nil bar
// means progress is off and all methods are no-ops.
type fileProgress struct {
	bar *progressbar.ProgressBar
}

// drawsProgress reports whether a bar may be drawn on w: text output, not
// quiet, and w is a terminal.
func drawsProgress(e *env, w io.Writer) bool {
	if e.globals.Quiet || e.format != output.FormatText {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func newFileProgress(e *env, files int) *fileProgress {
	if files < 2 || !drawsProgress(e, e.stderr) {
		return &fileProgress{}
	}
	return &fileProgress{bar: progressbar.NewOptions(files,
		progressbar.OptionSetDescription("Inspecting"),
		progressbar.OptionSetWriter(e.stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!e.globals.NoColor),
	)}
}

// done advances the bar past path.
func (p *fileProgress) done(path string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(filepath.Base(path))
	_ = p.bar.Add(1)
}

func (p *fileProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
