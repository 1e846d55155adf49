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

package signature

import "fmt"

// Kind is the structural category of a parameter.
type Kind int

const (
	// KindPositionalOnly parameters are declared before "/".
	KindPositionalOnly Kind = iota
	// KindPositionalOrKeyword parameters bind by position or by name.
	KindPositionalOrKeyword
	// KindVarPositional is the "*args" collector.
	KindVarPositional
	// KindKeywordOnly parameters are declared after "*" or "*args".
	KindKeywordOnly
	// KindVarKeyword is the "**kwargs" collector.
	KindVarKeyword
)

var kindNames = [...]string{
	KindPositionalOnly:      "positional_only",
	KindPositionalOrKeyword: "positional_or_keyword",
	KindVarPositional:       "var_positional",
	KindKeywordOnly:         "keyword_only",
	KindVarKeyword:          "var_keyword",
}

// String returns the lower-case name used in JSON and schema descriptions.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown parameter kind %q", s)
}

// IsPositional reports whether the kind can bind a positional argument
// one-to-one (positional-only or positional-or-keyword).
func (k Kind) IsPositional() bool {
	return k == KindPositionalOnly || k == KindPositionalOrKeyword
}

// IsVariadic reports whether the kind collects an arbitrary number of values.
func (k Kind) IsVariadic() bool {
	return k == KindVarPositional || k == KindVarKeyword
}

// AcceptsKeyword reports whether a value can be bound to the parameter by name.
func (k Kind) AcceptsKeyword() bool {
	return k == KindPositionalOrKeyword || k == KindKeywordOnly
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid parameter kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Binding records what a callable was bound to when it was retrieved.
type Binding int

const (
	// Unbound callables are free functions, static methods and methods
	// accessed through their class.
	Unbound Binding = iota
	// Instance callables are methods bound to an object; the receiver is
	// already excluded from their parameters.
	Instance
	// Type callables are class methods bound to their class.
	Type
)

// String returns a short name for the binding.
func (b Binding) String() string {
	switch b {
	case Unbound:
		return "unbound"
	case Instance:
		return "instance"
	case Type:
		return "type"
	default:
		return fmt.Sprintf("binding(%d)", int(b))
	}
}
