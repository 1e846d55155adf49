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

// Package contract provides input limits and validation utilities for
// siginspect.
//
// # Source Size Limits
//
// Python sources are read fully into memory before parsing, so their size
// is capped:
//
//	// Default limit is 8 MiB, or the configured value when positive
//	limit := contract.MaxSourceBytes(cfg.Source.MaxBytes)
//
//	result := contract.ValidateSourceSize(info.Size(), limit)
//	if !result.OK {
//	    return fmt.Errorf("load %s: %s", path, result.Message)
//	}
//
// # Configuration via Environment
//
// The limit can be adjusted via the SIGINSPECT_MAX_SOURCE_BYTES environment
// variable, which takes precedence over the config file:
//
//	export SIGINSPECT_MAX_SOURCE_BYTES=1048576  # 1 MiB
//
// If the environment variable is not set or invalid, the configured value
// or DefaultMaxSourceBytes is used.
//
// # Constants
//
//   - DefaultMaxSourceBytes: Baseline source limit (8 MiB)
//   - TargetMaxBytes: Maximum length of a target expression (512 bytes)
package contract
