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
	"context"
	"fmt"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/internal/output"
	"github.com/kraklabs/siginspect/pkg/callable"
)

// declaredReceiver stands in for the instance or class a declaration is
// bound to; the body never runs.
type declaredReceiver struct{}

// runDeclare executes the 'declare' CLI command, inspecting a declaration
// given on the command line instead of a source file.
//
// Flags:
//   - --bind: Bind the first parameter to an instance or a type
//   - --schema: Print the JSON schema instead of the inspection
//   - --values: Map a JSON object of values instead of inspecting
//
// Examples:
//
//	siginspect declare 'def greet(name: str, age: int = 25) -> str'
//	siginspect declare --bind instance 'def get(self, key, default=None)'
func runDeclare(e *env, args []string) error {
	fs := newFlagSet(e, "declare", `Usage: siginspect declare '<def ...>'

Inspects a def statement written on the command line, such as
  'async def fetch(url: str, *, timeout: float = 30.0) -> bytes'
A trailing colon and body are not needed.
`)
	bind := fs.String("bind", "", "Bind the receiver: instance or type")
	schema := fs.Bool("schema", false, "Print the JSON schema")
	values := fs.String("values", "", "JSON object to split into args and kwargs")
	if err := parseFlags(e, fs, "declare", args, 1); err != nil {
		return helpOK(err)
	}

	f, err := callable.New(fs.Arg(0), func(context.Context, *callable.Arguments) (any, error) {
		return nil, nil
	})
	if err != nil {
		return inspectionFailure(err)
	}

	switch *bind {
	case "":
	case "instance":
		f, err = f.BindInstance(declaredReceiver{})
	case "type":
		f, err = f.BindType(declaredReceiver{})
	default:
		return errors.NewInputError(
			fmt.Sprintf("Invalid --bind value %q", *bind),
			"",
			"Use --bind instance or --bind type",
		)
	}
	if err != nil {
		return inspectionFailure(err)
	}

	if *values != "" {
		vals, err := readValues(*values, "")
		if err != nil {
			return err
		}
		return e.mapValues(f.Name(), f, vals, false)
	}

	fi, err := e.inspect(f)
	if err != nil {
		return err
	}
	if *schema {
		s := fi.JSONSchema(e.cfg.SchemaOptions()...)
		if e.format == output.FormatYAML {
			return writeResult(e, s)
		}
		return writeJSON(e, s)
	}
	if e.format == output.FormatText {
		renderInspection(e.stdout, fi.QualName(), fi)
		return nil
	}
	return writeResult(e, fi.Record())
}

func writeJSON(e *env, v any) error {
	if err := output.JSONTo(e.stdout, v); err != nil {
		return errors.NewInternalError("Cannot write output", err.Error(), "", err)
	}
	return nil
}
