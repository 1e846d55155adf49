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
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/internal/output"
	"github.com/kraklabs/siginspect/internal/ui"
	"github.com/kraklabs/siginspect/pkg/inspect"
)

// ListEntry is one callable reported by 'list'.
type ListEntry struct {
	File      string `json:"file" yaml:"file"`
	Target    string `json:"target" yaml:"target"`
	Kind      string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
	Awaitable bool   `json:"awaitable" yaml:"awaitable"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// skipDirs are never descended into when listing a directory.
var skipDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"venv":          true,
	".venv":         true,
	"site-packages": true,
}

// runList executes the 'list' CLI command, listing every callable found in
// the given Python files and directories.
//
// Examples:
//
//	siginspect list service.py
//	siginspect --json list src/
func runList(e *env, args []string) error {
	flags := newFlagSet(e, "list", `Usage: siginspect list <path>...

Lists the callables defined in Python files. Directories are searched
recursively for .py files. Targets that exist but cannot be inspected, such
as properties, are listed with the reason.
`)
	if err := parseFlags(e, flags, "list", args, -1); err != nil {
		return helpOK(err)
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return errors.NewInputError("list expects at least one path", "", "Run 'siginspect list --help'")
	}

	files, err := collectPythonFiles(flags.Args())
	if err != nil {
		return err
	}

	ctx := context.Background()
	inspector := inspect.NewInspector(e.logger)
	progress := newFileProgress(e, len(files))

	var entries []ListEntry
	for _, path := range files {
		mod, err := e.loadModule(ctx, path)
		if err != nil {
			return err
		}
		for _, target := range mod.Targets() {
			entry := ListEntry{File: path, Target: target}
			tgt, err := mod.Resolve(target)
			if err != nil {
				entry.Error = err.Error()
				entries = append(entries, entry)
				continue
			}
			fi, err := inspector.InspectFunction(tgt)
			if err != nil {
				entry.Error = err.Error()
			} else {
				sig, _ := tgt.Signature()
				entry.Kind = fi.Kind().String()
				entry.Signature = sig.String()
				entry.Awaitable = fi.Awaitable()
			}
			entries = append(entries, entry)
		}
		progress.done(path)
	}
	progress.finish()

	if e.format != output.FormatText {
		if entries == nil {
			entries = []ListEntry{}
		}
		return writeResult(e, entries)
	}
	renderList(e, files, entries)
	return nil
}

func renderList(e *env, files []string, entries []ListEntry) {
	byFile := make(map[string][]ListEntry)
	for _, entry := range entries {
		byFile[entry.File] = append(byFile[entry.File], entry)
	}

	for i, path := range files {
		if i > 0 {
			fmt.Fprintln(e.stdout)
		}
		ui.SubHeader(path)
		list := byFile[path]
		if len(list) == 0 {
			ui.Line("  " + ui.DimText("no callables"))
			continue
		}
		tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
		for _, entry := range list {
			if entry.Error != "" {
				_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", entry.Target, ui.DimText("-"), ui.DimText(entry.Error))
				continue
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", entry.Target, ui.KindText(entry.Kind), entry.Signature)
		}
		_ = tw.Flush()
	}
	ui.Infof("%s callables in %s files", ui.CountText(len(entries)), ui.CountText(len(files)))

	failed := 0
	for _, entry := range entries {
		if entry.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		ui.Warning(fmt.Sprintf("%d targets could not be inspected", failed))
	}
}

// collectPythonFiles expands directories into their .py files, sorted.
func collectPythonFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.NewNotFoundError(
				"Path not found",
				fmt.Sprintf("%s does not exist", root),
				"Pass Python files or directories containing them",
			)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".py") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.NewPermissionError(
				"Cannot read directory",
				fmt.Sprintf("Walking %s failed", root),
				"Check the directory permissions",
				err,
			)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
