// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// DefaultMaxSourceBytes is the baseline limit for a single Python source file.
	DefaultMaxSourceBytes = 8 << 20 // 8 MiB

	// TargetMaxBytes is the maximum length of a target expression such as "C().m".
	TargetMaxBytes = 512
)

// MaxSourceEnv overrides the source size limit.
const MaxSourceEnv = "SIGINSPECT_MAX_SOURCE_BYTES"

// MaxSourceBytes returns the effective limit for source files.
// Controlled via env SIGINSPECT_MAX_SOURCE_BYTES; falls back to configured,
// then to DefaultMaxSourceBytes.
func MaxSourceBytes(configured int64) int64 {
	if v := os.Getenv(MaxSourceEnv); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	if configured > 0 {
		return configured
	}
	return DefaultMaxSourceBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateSourceSize checks a source file size against limit.
func ValidateSourceSize(size, limit int64) *ValidationResult {
	if size > limit {
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("source is %d bytes, limit is %d", size, limit),
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateTarget checks a target expression before resolution.
func ValidateTarget(target string) *ValidationResult {
	switch {
	case target == "":
		return &ValidationResult{OK: false, Message: "target is empty"}
	case len(target) > TargetMaxBytes:
		return &ValidationResult{OK: false, Message: "target exceeds maximum length"}
	}
	return &ValidationResult{OK: true}
}
