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

// Package signature describes the declared shape of a callable.
//
// Go cannot recover parameter names, keyword-only markers or default values
// from a function value at runtime, so every callable that wants to be
// inspected publishes an explicit description through the Callable interface:
//
//	type Callable interface {
//	    Signature() (*Signature, error)
//	}
//
// A Signature lists its parameters in declaration order. Each parameter has
// one of five kinds, mirroring the structural categories of Python call
// semantics:
//
//   - KindPositionalOnly: declared before "/"
//   - KindPositionalOrKeyword: the ordinary case
//   - KindVarPositional: the "*args" collector
//   - KindKeywordOnly: declared after "*" or "*args"
//   - KindVarKeyword: the "**kwargs" collector
//
// # Producers
//
// Three packages produce signatures:
//
//   - pkg/callable: Go bodies declared with a textual signature (see Parse)
//   - pkg/pysource: functions and methods extracted from Python source
//   - pkg/gofunc: plain Go func values inspected with reflect
//
// # Declarations
//
// Parse accepts the familiar def syntax:
//
//	sig, err := signature.Parse("async def fetch(url: str, /, *, retries: int = 3) -> bytes")
//
// Defaults that are literals (numbers, strings, True/False/None, lists,
// tuples, dicts) carry both their repr text and a Go value; anything else is
// kept as an Expr holding the source text.
//
// # Errors
//
// All failures to obtain or validate a signature are reported as
// *InspectionError wrapping one of ErrNotCallable, ErrNoSignature or
// ErrMalformed, so callers can branch with errors.Is.
package signature
