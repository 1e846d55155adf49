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

package inspect

import (
	"reflect"

	"github.com/kraklabs/siginspect/pkg/signature"
)

// InspectParameters splits values into the positional and keyword arguments
// that invoke c, using the default Inspector.
func InspectParameters(c signature.Callable, values map[string]any) ([]any, map[string]any, error) {
	return defaultInspector.InspectParameters(c, values)
}

// InspectParameters inspects c and maps values onto its parameters. It fails
// exactly when InspectFunction fails.
func (in *Inspector) InspectParameters(c signature.Callable, values map[string]any) ([]any, map[string]any, error) {
	fi, err := in.InspectFunction(c)
	if err != nil {
		return nil, nil, err
	}
	args, kwargs := fi.MapArguments(values)
	in.log().Debug("inspect.mapping",
		"target", fi.qualName,
		"values", len(values),
		"positional", len(args),
		"keyword", len(kwargs),
	)
	return args, kwargs, nil
}

// MapArguments splits values using this inspection's classification.
//
// Positional-capable parameters bind positionally while every earlier
// positional slot is filled; after the first gap, positional-or-keyword
// parameters bind by keyword and positional-only ones are dropped.
// Keyword-only parameters always bind by keyword. Undeclared names always
// pass through as keywords, so a callable without "**kwargs" rejects them
// when it is called. With a "**kwargs" parameter, a map stored under the
// collector's own name is merged in. A value stored under the "*args"
// parameter's name is spread onto the positional arguments while binding is
// still contiguous. Nothing is validated.
func (fi *FunctionInspection) MapArguments(values map[string]any) ([]any, map[string]any) {
	recordMapping()

	args := []any{}
	kwargs := map[string]any{}
	declared := make(map[string]bool, len(fi.params))
	contiguous := true
	var varKw *Parameter

	for i := range fi.params {
		p := &fi.params[i]
		declared[p.Name] = true
		v, ok := values[p.Name]

		switch p.Kind {
		case signature.KindPositionalOnly, signature.KindPositionalOrKeyword:
			switch {
			case !ok:
				contiguous = false
			case contiguous:
				args = append(args, v)
			case p.Kind == signature.KindPositionalOrKeyword:
				kwargs[p.Name] = v
			}

		case signature.KindVarPositional:
			if ok && contiguous {
				args = append(args, spread(v)...)
			}

		case signature.KindKeywordOnly:
			if ok {
				kwargs[p.Name] = v
			}

		case signature.KindVarKeyword:
			varKw = p
		}
	}

	for name, v := range values {
		if !declared[name] {
			kwargs[name] = v
		}
	}
	if varKw == nil {
		return args, kwargs
	}
	if v, ok := values[varKw.Name]; ok {
		if extra, isMap := v.(map[string]any); isMap {
			for name, ev := range extra {
				if _, exists := kwargs[name]; !exists {
					kwargs[name] = ev
				}
			}
		} else {
			kwargs[varKw.Name] = v
		}
	}
	return args, kwargs
}

// spread expands slices, arrays and tuples; anything else is one value.
func spread(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case signature.Tuple:
		return []any(x)
	case nil:
		return []any{nil}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
