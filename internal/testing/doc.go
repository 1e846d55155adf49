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

// Package testing provides test helpers for siginspect packages.
//
// The helpers write Python fixtures into a temporary directory, load them
// through pysource and resolve targets, failing the test on any error.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    mod := testing.LoadPython(t, `
//	def greet(name: str, age: int = 25) -> str:
//	    return name
//	`)
//	    target := testing.Resolve(t, mod, "greet")
//	    fi, err := inspect.InspectFunction(target)
//	    require.NoError(t, err)
//	}
//
// # Fixtures
//
//   - WritePython: Write a .py file and return its path
//   - LoadPython: Write and parse a module in one step
//   - Resolve: Resolve a target that must exist
//   - Dedent: Strip the common indentation of a raw string literal
package testing
