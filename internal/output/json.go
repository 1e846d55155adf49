// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output provides utilities for consistent CLI output formatting.
//
// This package handles JSON and YAML encoding for machine-readable output,
// ensuring consistent formatting across all siginspect commands. It
// complements the ui package (for human-readable output) and errors package
// (for error handling).
//
// # Usage
//
// For JSON output in CLI commands:
//
//	fi, err := inspect.InspectFunction(target)
//	if err := output.JSONTo(os.Stdout, fi.Record()); err != nil {
//	    return errors.NewInternalError("Cannot write output", err.Error(), "", err)
//	}
//
// For output selected by --format:
//
//	format, err := output.ParseFormat("yaml")
//	if err := output.Write(os.Stdout, format, fi.JSONSchema()); err != nil {
//	    ...
//	}
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONTo writes data as pretty-printed JSON to the specified writer.
// The output is formatted with 2-space indentation for readability.
// Returns an error if JSON encoding fails (e.g., for unencodable types
// like channels or functions).
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}
