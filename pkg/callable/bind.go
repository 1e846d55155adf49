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

package callable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kraklabs/siginspect/pkg/signature"
)

// BindError reports arguments that do not fit a signature. Messages follow
// the wording of Python's TypeError for the same mistake.
type BindError struct {
	Target string
	Msg    string
}

func (e *BindError) Error() string {
	return e.Target + "() " + e.Msg
}

func bindErrorf(sig *signature.Signature, format string, args ...any) *BindError {
	return &BindError{Target: sig.Name, Msg: fmt.Sprintf(format, args...)}
}

// Arguments holds the values bound to each parameter after defaults were
// applied. Collectors are stored under their own names: "*args" as []any,
// "**kwargs" as map[string]any.
type Arguments struct {
	values map[string]any
	order  []string
	varPos string
	varKw  string
}

// Lookup returns the value bound to name.
func (a *Arguments) Lookup(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Get returns the value bound to name, or nil.
func (a *Arguments) Get(name string) any {
	return a.values[name]
}

// Args returns the extra positional arguments collected by "*args".
func (a *Arguments) Args() []any {
	if a.varPos == "" {
		return nil
	}
	v, _ := a.values[a.varPos].([]any)
	return v
}

// Kwargs returns the extra keyword arguments collected by "**kwargs".
func (a *Arguments) Kwargs() map[string]any {
	if a.varKw == "" {
		return nil
	}
	v, _ := a.values[a.varKw].(map[string]any)
	return v
}

// Names returns the bound parameter names in declaration order.
func (a *Arguments) Names() []string {
	return append([]string(nil), a.order...)
}

// Bind matches args and kwargs against sig the way a Python call does:
// positional arguments fill positional parameters in order, the remainder
// goes to "*args"; keyword arguments bind by name, unknown names go to
// "**kwargs"; defaults fill what is left.
func Bind(sig *signature.Signature, args []any, kwargs map[string]any) (*Arguments, error) {
	bound := &Arguments{values: make(map[string]any, len(sig.Params))}

	var positional []signature.Param
	for _, p := range sig.Params {
		switch {
		case p.Kind.IsPositional():
			positional = append(positional, p)
		case p.Kind == signature.KindVarPositional:
			bound.varPos = p.Name
		case p.Kind == signature.KindVarKeyword:
			bound.varKw = p.Name
		}
	}

	var extraArgs []any
	for i, v := range args {
		if i < len(positional) {
			bound.values[positional[i].Name] = v
			continue
		}
		if bound.varPos == "" {
			return nil, bindErrorf(sig, "takes %d positional %s but %d %s given",
				len(positional), plural(len(positional), "argument", "arguments"),
				len(args), plural(len(args), "was", "were"))
		}
		extraArgs = append(extraArgs, v)
	}

	extraKwargs := map[string]any{}
	var posOnlyByName []string
	for _, name := range sortedKeys(kwargs) {
		v := kwargs[name]
		p, declared := sig.Param(name)
		switch {
		case declared && p.Kind.AcceptsKeyword():
			if _, dup := bound.values[name]; dup {
				return nil, bindErrorf(sig, "got multiple values for argument '%s'", name)
			}
			bound.values[name] = v
		case bound.varKw != "":
			extraKwargs[name] = v
		case declared && p.Kind == signature.KindPositionalOnly:
			posOnlyByName = append(posOnlyByName, name)
		default:
			return nil, bindErrorf(sig, "got an unexpected keyword argument '%s'", name)
		}
	}
	if len(posOnlyByName) > 0 {
		return nil, bindErrorf(sig, "got some positional-only arguments passed as keyword arguments: '%s'",
			strings.Join(posOnlyByName, ", "))
	}

	var missingPos, missingKw []string
	for _, p := range sig.Params {
		if p.Kind.IsVariadic() {
			continue
		}
		if _, ok := bound.values[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			bound.values[p.Name] = p.Default.Value
			continue
		}
		if p.Kind == signature.KindKeywordOnly {
			missingKw = append(missingKw, p.Name)
		} else {
			missingPos = append(missingPos, p.Name)
		}
	}
	if len(missingPos) > 0 {
		return nil, bindErrorf(sig, "missing %d required positional %s: %s",
			len(missingPos), plural(len(missingPos), "argument", "arguments"), quoteList(missingPos))
	}
	if len(missingKw) > 0 {
		return nil, bindErrorf(sig, "missing %d required keyword-only %s: %s",
			len(missingKw), plural(len(missingKw), "argument", "arguments"), quoteList(missingKw))
	}

	if bound.varPos != "" {
		if extraArgs == nil {
			extraArgs = []any{}
		}
		bound.values[bound.varPos] = extraArgs
	}
	if bound.varKw != "" {
		bound.values[bound.varKw] = extraKwargs
	}
	for _, p := range sig.Params {
		bound.order = append(bound.order, p.Name)
	}
	return bound, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// quoteList renders names as 'a', 'b' and 'c'.
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
