// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestUserError_Error verifies the Error() method implementation.
func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{
			name: "message only",
			err:  &UserError{Message: "Target not found"},
			want: "Target not found",
		},
		{
			name: "with underlying error",
			err:  &UserError{Message: "Cannot read source", Err: fmt.Errorf("permission denied")},
			want: "Cannot read source: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("UserError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestExitCodes verifies that exit code constants have the correct values.
func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitConfig", ExitConfig, 1},
		{"ExitInput", ExitInput, 4},
		{"ExitPermission", ExitPermission, 5},
		{"ExitNotFound", ExitNotFound, 6},
		{"ExitInspection", ExitInspection, 7},
		{"ExitInternal", ExitInternal, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.exitCode != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.exitCode, tt.want)
			}
		})
	}
}

// TestConstructors verifies that all constructor functions set the exit code
// and keep the wrapped error.
func TestConstructors(t *testing.T) {
	underlyingErr := fmt.Errorf("underlying error")

	tests := []struct {
		name     string
		err      *UserError
		wantCode int
		wantErr  error
	}{
		{"config", NewConfigError("m", "c", "f", underlyingErr), ExitConfig, underlyingErr},
		{"input", NewInputError("m", "c", "f"), ExitInput, nil},
		{"permission", NewPermissionError("m", "c", "f", underlyingErr), ExitPermission, underlyingErr},
		{"not found", NewNotFoundError("m", "c", "f"), ExitNotFound, nil},
		{"inspection", NewInspectionError("m", "c", "f", underlyingErr), ExitInspection, underlyingErr},
		{"internal", NewInternalError("m", "c", "f", underlyingErr), ExitInternal, underlyingErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", tt.err.ExitCode, tt.wantCode)
			}
			if tt.err.Message != "m" || tt.err.Cause != "c" || tt.err.Fix != "f" {
				t.Errorf("fields not set: %+v", tt.err)
			}
			if tt.err.Unwrap() != tt.wantErr {
				t.Errorf("Unwrap() = %v, want %v", tt.err.Unwrap(), tt.wantErr)
			}
		})
	}
}

// TestErrorChain verifies errors.Is and errors.As through a UserError.
func TestErrorChain(t *testing.T) {
	sentinel := errors.New("no signature")
	wrapped := fmt.Errorf("cannot inspect C.p: %w", sentinel)
	ue := NewInspectionError("Cannot inspect C.p", "property", "", wrapped)

	if !errors.Is(ue, sentinel) {
		t.Error("errors.Is should find the sentinel through UserError")
	}

	var target *UserError
	if !errors.As(fmt.Errorf("command failed: %w", ue), &target) {
		t.Fatal("errors.As should find the UserError")
	}
	if target.ExitCode != ExitInspection {
		t.Errorf("ExitCode = %d, want %d", target.ExitCode, ExitInspection)
	}
}

// TestUserError_Format verifies formatted output without colors.
func TestUserError_Format(t *testing.T) {
	err := NewNotFoundError(
		"Target not found",
		"service.py defines no callable named 'fetch'",
		"Run 'siginspect list service.py'",
	)

	got := err.Format(true)
	want := "Error: Target not found\n" +
		"Cause: service.py defines no callable named 'fetch'\n" +
		"Fix:   Run 'siginspect list service.py'\n"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	short := (&UserError{Message: "Oops"}).Format(true)
	if short != "Error: Oops\n" {
		t.Errorf("Format() without cause/fix = %q", short)
	}
}

// TestUserError_Format_NoColorEnv verifies that NO_COLOR disables colors.
func TestUserError_Format_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	got := NewInputError("Bad", "", "").Format(false)
	if strings.Contains(got, "\x1b[") {
		t.Errorf("Format() contains ANSI codes with NO_COLOR set: %q", got)
	}
}

// TestUserError_ToJSON verifies the JSON structure.
func TestUserError_ToJSON(t *testing.T) {
	data, err := json.Marshal(NewInputError("Invalid --values", "", "Pass a JSON object").ToJSON())
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	want := `{"error":"Invalid --values","fix":"Pass a JSON object","exit_code":4}`
	if string(data) != want {
		t.Errorf("ToJSON() = %s, want %s", data, want)
	}
}

// TestReport verifies rendering and exit codes for user and plain errors.
func TestReport(t *testing.T) {
	var buf bytes.Buffer

	if code := Report(&buf, nil, false, true); code != ExitSuccess || buf.Len() != 0 {
		t.Errorf("Report(nil) = %d, wrote %q", code, buf.String())
	}

	code := Report(&buf, NewNotFoundError("Missing", "", ""), false, true)
	if code != ExitNotFound || buf.String() != "Error: Missing\n" {
		t.Errorf("Report(UserError) = %d, %q", code, buf.String())
	}

	buf.Reset()
	code = Report(&buf, NewInspectionError("Cannot inspect f", "", "", nil), true, true)
	var decoded ErrorJSON
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report JSON output is not valid JSON: %v", err)
	}
	if code != ExitInspection || decoded.ExitCode != ExitInspection || decoded.Error != "Cannot inspect f" {
		t.Errorf("Report(json) = %d, %+v", code, decoded)
	}

	buf.Reset()
	code = Report(&buf, fmt.Errorf("boom"), false, true)
	if code != ExitInternal || buf.String() != "Error: boom\n" {
		t.Errorf("Report(plain) = %d, %q", code, buf.String())
	}
}

