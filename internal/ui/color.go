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

// Package ui provides user interface utilities for the siginspect CLI.
//
// This package offers color output helpers that respect the --no-color flag
// and NO_COLOR environment variable. Colors are automatically disabled when
// the output is not a TTY (e.g., when piped).
//
// Color usage guidelines:
//   - Red: Errors, failures
//   - Yellow: Warnings, cautions
//   - Green: Success, required parameters
//   - Cyan: Info, parameter kinds
//   - Bold: Headers, important labels
//   - Dim: Less important details, paths and defaults
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output.
//
// These are initialized at package load time and respect the global
// color.NoColor setting when called.
var (
	// Red is used for error messages and failures.
	Red = color.New(color.FgRed)

	// Yellow is used for warnings and cautions.
	Yellow = color.New(color.FgYellow)

	// Green is used for success messages and required parameters.
	Green = color.New(color.FgGreen)

	// Cyan is used for informational messages.
	Cyan = color.New(color.FgCyan)

	// Bold is used for headers and important labels.
	Bold = color.New(color.Bold)

	// Dim is used for less important details like paths.
	Dim = color.New(color.Faint)
)

// out is where the message helpers write.
var out io.Writer = os.Stdout

// SetOutput redirects the message helpers and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}

// InitColors configures color output based on the noColor flag.
//
// When noColor is true, all color output is disabled globally.
// This should be called early in main() after parsing flags.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a success message with a green checkmark.
func Success(msg string) {
	_, _ = Green.Fprintln(out, "✓ "+msg)
}

// Warning prints a warning message with a yellow warning symbol.
func Warning(msg string) {
	_, _ = Yellow.Fprintln(out, "⚠ "+msg)
}

// Warningf prints a formatted warning message.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(out, "⚠ "+format+"\n", args...)
}

// Info prints an informational message with a cyan info symbol.
func Info(msg string) {
	_, _ = Cyan.Fprintln(out, "ℹ "+msg)
}

// Infof prints a formatted informational message.
func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(out, "ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline.
//
// Example output:
//
//	greet
//	=====
func Header(text string) {
	_, _ = Bold.Fprintln(out, text)
	fmt.Fprintln(out, strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without underline.
func SubHeader(text string) {
	_, _ = Bold.Fprintln(out, text)
}

// Line prints plain text.
func Line(text string) {
	fmt.Fprintln(out, text)
}

// Label returns text formatted as a bold label.
//
// Use this for key-value pairs:
//
//	fmt.Printf("%s %s\n", ui.Label("Kind:"), "method")
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns text formatted in dim/faint style.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a count formatted in cyan.
func CountText(count int) string {
	return Cyan.Sprint(count)
}

// KindText returns a parameter or callable kind formatted in cyan.
func KindText(kind string) string {
	return Cyan.Sprint(kind)
}

// RequiredText returns text in green, marking a required parameter.
func RequiredText(text string) string {
	return Green.Sprint(text)
}
