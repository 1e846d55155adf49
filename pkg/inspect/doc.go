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

// Package inspect turns a callable's signature into structured metadata and
// maps named values onto the positional/keyword form needed to call it.
//
// # Inspection
//
// InspectFunction reads the signature of any signature.Callable once and
// returns an immutable FunctionInspection:
//
//	fi, err := inspect.InspectFunction(fn)
//	if err != nil {
//	    return err // *inspect.InspectionError
//	}
//	for _, p := range fi.Parameters() {
//	    fmt.Println(p.Name, p.Kind, p.Annotation)
//	}
//
// The primary classification is exactly one of function, method (bound to
// an instance) or class method (bound to a type). Static methods and methods
// reached through their class report as functions. Coroutine functions are
// reported separately through Awaitable.
//
// InspectAny additionally accepts plain Go func values.
//
// # Argument Mapping
//
// InspectParameters splits a name/value mapping into positional and keyword
// arguments. Positional binding is contiguous from the first parameter; the
// first positional-capable parameter missing from the mapping ends it and
// later values bind by keyword where the parameter allows it:
//
//	// def api_endpoint(user_id, limit=10, *, include_deleted=False)
//	args, kwargs, err := inspect.InspectParameters(apiEndpoint, map[string]any{
//	    "user_id": 123, "limit": 20, "include_deleted": true,
//	})
//	// args   == []any{123, 20}
//	// kwargs == map[string]any{"include_deleted": true}
//
// The mapper never validates completeness; calling the callable with an
// incomplete mapping fails at bind time.
//
// # JSON Schema
//
// (*FunctionInspection).JSONSchema produces an object schema with one
// property per non-variadic parameter, suitable for tool or form generation.
package inspect
