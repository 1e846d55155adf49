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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/internal/output"
	"github.com/kraklabs/siginspect/internal/ui"
	"github.com/kraklabs/siginspect/pkg/callable"
	"github.com/kraklabs/siginspect/pkg/inspect"
	"github.com/kraklabs/siginspect/pkg/signature"
)

// MappingResult is the output of 'map'.
type MappingResult struct {
	Target string         `json:"target" yaml:"target"`
	Args   []any          `json:"args" yaml:"args"`
	Kwargs map[string]any `json:"kwargs" yaml:"kwargs"`
}

// runMap executes the 'map' CLI command, splitting a JSON object of values
// into the positional and keyword arguments of a call.
//
// Flags:
//   - --values: JSON object of parameter values
//   - --values-file: File containing the JSON object ("-" for stdin)
//   - --check: Also bind the result against the signature
//
// Examples:
//
//	siginspect map service.py api_endpoint --values '{"user_id": 123, "limit": 20, "include_deleted": true}'
func runMap(e *env, args []string) error {
	fs := newFlagSet(e, "map", `Usage: siginspect map <file.py> <target> --values '<json>'

Splits values into (args, kwargs) for calling the target. Parameters that can
be passed positionally are, as long as every earlier positional slot has a
value; the rest go by keyword. Names the callable does not declare are passed
by keyword too; use --check to catch the ones it would reject.
`)
	values := fs.String("values", "", "JSON object of parameter values")
	valuesFile := fs.String("values-file", "", `File containing the JSON object ("-" for stdin)`)
	check := fs.Bool("check", false, "Verify that the arguments bind to the signature")
	if err := parseFlags(e, fs, "map", args, 2); err != nil {
		return helpOK(err)
	}

	vals, err := readValues(*values, *valuesFile)
	if err != nil {
		return err
	}
	tgt, err := e.resolve(context.Background(), fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	return e.mapValues(fs.Arg(1), tgt, vals, *check)
}

// mapValues runs the argument mapper on c and prints the result.
func (e *env) mapValues(name string, c signature.Callable, vals map[string]any, check bool) error {
	positional, keyword, err := inspect.NewInspector(e.logger).InspectParameters(c, vals)
	if err != nil {
		return inspectionFailure(err)
	}

	if check {
		sig, err := c.Signature()
		if err != nil {
			return inspectionFailure(err)
		}
		if _, err := callable.Bind(sig, positional, keyword); err != nil {
			return errors.NewInputError(
				"Values do not satisfy the signature",
				err.Error(),
				"Provide every required parameter in --values",
			)
		}
	}

	result := MappingResult{Target: name, Args: positional, Kwargs: keyword}
	if e.format != output.FormatText {
		return writeResult(e, result)
	}
	fmt.Fprintf(e.stdout, "%s  %s\n", ui.Label("args:  "), signature.Repr(signature.Tuple(positional)))
	fmt.Fprintf(e.stdout, "%s  %s\n", ui.Label("kwargs:"), signature.Repr(keyword))
	return nil
}

// readValues decodes the JSON object given inline or in a file.
func readValues(inline, file string) (map[string]any, error) {
	var data []byte
	switch {
	case inline != "" && file != "":
		return nil, errors.NewInputError("Both --values and --values-file given", "", "Pass only one of them")
	case inline != "":
		data = []byte(inline)
	case file == "-":
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.NewInputError("Cannot read values from stdin", err.Error(), "")
		}
		data = buf
	case file != "":
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.NewNotFoundError("Values file not found", err.Error(), "Check the --values-file path")
		}
		data = buf
	default:
		return map[string]any{}, nil
	}

	vals, err := decodeValues(data)
	if err != nil {
		return nil, errors.NewInputError(
			"Invalid --values",
			err.Error(),
			`Pass a JSON object such as '{"user_id": 123}'`,
		)
	}
	return vals, nil
}

// decodeValues parses a JSON object, keeping integral numbers as int.
func decodeValues(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", raw)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the JSON object")
	}
	return normalizeNumbers(obj).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, item := range x {
			x[k] = normalizeNumbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = normalizeNumbers(item)
		}
		return x
	default:
		return v
	}
}
