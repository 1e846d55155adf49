// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package signature

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by InspectionError.
var (
	// ErrNotCallable is reported for nil values and values that cannot be called.
	ErrNotCallable = errors.New("object is not callable")

	// ErrNoSignature is reported when a callable exists but its signature
	// metadata is not available.
	ErrNoSignature = errors.New("no signature found")

	// ErrMalformed is reported when signature metadata is present but invalid.
	ErrMalformed = errors.New("malformed signature")
)

// InspectionError reports that a callable's signature could not be obtained.
type InspectionError struct {
	// Target names the callable, when known.
	Target string

	// Reason is a short human-readable explanation.
	Reason string

	// Err is the underlying cause, usually one of the sentinel errors.
	Err error
}

// Error implements the error interface.
func (e *InspectionError) Error() string {
	msg := "cannot inspect"
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *InspectionError) Unwrap() error {
	return e.Err
}

// NewInspectionError builds an InspectionError with a formatted reason.
func NewInspectionError(target string, cause error, format string, args ...any) *InspectionError {
	return &InspectionError{
		Target: target,
		Reason: fmt.Sprintf(format, args...),
		Err:    cause,
	}
}

// AsInspectionError converts err into an *InspectionError for target.
// Errors that already are inspection errors are returned unchanged; others
// are wrapped as ErrNoSignature causes.
func AsInspectionError(target string, err error) *InspectionError {
	if err == nil {
		return nil
	}
	var ie *InspectionError
	if errors.As(err, &ie) {
		return ie
	}
	return &InspectionError{
		Target: target,
		Reason: "signature unavailable",
		Err:    fmt.Errorf("%w: %w", ErrNoSignature, err),
	}
}
