// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLTo writes data as YAML with 2-space indentation.
func YAMLTo(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("YAML encoding failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("YAML encoding failed: %w", err)
	}
	return nil
}

// Format selects how a command renders its result.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format or config value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Write encodes data in a machine-readable format. Text output is rendered
// by each command, so FormatText is rejected here.
func Write(w io.Writer, f Format, data any) error {
	switch f {
	case FormatJSON:
		return JSONTo(w, data)
	case FormatYAML:
		return YAMLTo(w, data)
	default:
		return fmt.Errorf("format %q is not machine-readable", f)
	}
}
