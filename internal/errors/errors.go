// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the siginspect CLI.
//
// This package defines UserError, a type that carries structured error information
// including what went wrong, why it happened, and how to fix it. It also defines
// consistent exit codes for different error categories.
//
// # Usage Example
//
// Creating and displaying errors:
//
//	err := errors.NewNotFoundError(
//	    "Target not found",
//	    "service.py defines no callable named 'UserService.fetch'",
//	    "Run 'siginspect list service.py' to see available targets",
//	)
//	os.Exit(errors.Report(os.Stderr, err, false, false))
//
// # Formatted Output
//
// The Format() method provides colored terminal output:
//
//	fmt.Fprint(os.Stderr, err.Format(false))
//	// Output (with colors):
//	// Error: Target not found
//	// Cause: service.py defines no callable named 'UserService.fetch'
//	// Fix:   Run 'siginspect list service.py' to see available targets
//
// For JSON output:
//
//	jsonData := err.ToJSON()
//	json.NewEncoder(os.Stderr).Encode(jsonData)
//	// Output:
//	// {
//	//   "error": "Target not found",
//	//   "cause": "service.py defines no callable named 'UserService.fetch'",
//	//   "fix": "Run 'siginspect list service.py' to see available targets",
//	//   "exit_code": 6
//	// }
//
// # Exit Codes
//
// The package defines semantic exit codes following Unix conventions:
//
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Configuration errors (missing/invalid config)
//   - ExitInput (4): Invalid user input (bad arguments, validation errors)
//   - ExitPermission (5): Permission denied (file access, etc.)
//   - ExitNotFound (6): Resource not found (file, target, etc.)
//   - ExitInspection (7): The target exists but has no usable signature
//   - ExitInternal (10): Internal errors (bugs, panics)
package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors (missing/invalid config files).
	ExitConfig = 1

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 4

	// ExitPermission indicates permission denied errors (file access, etc.).
	ExitPermission = 5

	// ExitNotFound indicates resource not found errors (file, target, etc.).
	ExitNotFound = 6

	// ExitInspection indicates a target that cannot be inspected: not
	// callable, without a signature or with a malformed declaration.
	ExitInspection = 7

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10
)

// UserError is an error meant for the person running the CLI. Message says
// what failed, Cause why, and Fix what to try next. ExitCode selects the
// process exit status.
type UserError struct {
	Message  string
	Cause    string
	Fix      string
	ExitCode int

	// Err is the wrapped cause, if any.
	Err error
}

// Error returns Message, followed by the wrapped error when there is one.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements error unwrapping for compatibility with errors.Is and errors.As.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: code,
		Err:      err,
	}
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Use this for errors related to missing, invalid, or malformed configuration files.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load siginspect configuration",
//	    "The config file .siginspect.yaml is not valid YAML",
//	    "Fix the syntax or pass --config with another file",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewInputError creates an input validation error with exit code ExitInput.
//
// Use this for errors related to invalid user input, such as bad command-line
// arguments or failed validation checks. Input errors typically do not wrap
// an underlying error.
//
// Example:
//
//	return NewInputError(
//	    "Invalid --values",
//	    "The value must be a JSON object",
//	    `Pass something like --values '{"user_id": 123}'`,
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewPermissionError creates a permission denied error with exit code ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError creates a resource not found error with exit code ExitNotFound.
//
// Use this for errors when a requested resource (source file, target, etc.)
// cannot be found. Not found errors typically do not wrap an underlying error.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInspectionError creates an error with exit code ExitInspection for a
// target whose signature cannot be determined.
//
// Example:
//
//	return NewInspectionError(
//	    "Cannot inspect UserService.name",
//	    "UserService.name is a property object",
//	    "Inspect the getter through an instance or pick another target",
//	    err,
//	)
func NewInspectionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInspection, msg, cause, fix, err)
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs in the program, such as
// assertion failures, unexpected nil values, or unhandled error cases.
// Internal errors should be reported to the maintainers.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error as Error/Cause/Fix lines for a terminal, leaving
// out empty sections. Colors are dropped when noColor is set or NO_COLOR is
// present in the environment; color.NoColor is restored before returning.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the --json form of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// Report writes err to w and returns the exit code to use.
//
// A UserError is rendered with Format() or, in JSON mode, ToJSON(). Any other
// error is printed as a plain message with ExitInternal.
func Report(w io.Writer, err error, jsonOutput, noColor bool) int {
	if err == nil {
		return ExitSuccess
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			// Encode error is intentionally ignored since we're about to exit.
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(w, ue.Format(noColor))
		}
		return ue.ExitCode
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitInternal
}
