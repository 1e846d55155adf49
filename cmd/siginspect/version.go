// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"runtime"

	"github.com/kraklabs/siginspect/internal/output"
)

// VersionInfo is the output of 'version --json'.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	Go      string `json:"go" yaml:"go"`
}

func runVersion(e *env, _ []string) error {
	info := VersionInfo{Version: version, Commit: commit, Date: date, Go: runtime.Version()}
	if e.globals.JSON {
		e.format = output.FormatJSON
	}
	if e.format != "" && e.format != output.FormatText {
		return writeResult(e, info)
	}
	fmt.Fprintf(e.stdout, "siginspect version %s\n", info.Version)
	fmt.Fprintf(e.stdout, "commit: %s\n", info.Commit)
	fmt.Fprintf(e.stdout, "built: %s\n", info.Date)
	return nil
}
