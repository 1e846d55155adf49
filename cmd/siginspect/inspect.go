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
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/internal/output"
	"github.com/kraklabs/siginspect/internal/ui"
	"github.com/kraklabs/siginspect/pkg/inspect"
)

// errHelp signals that a command printed its usage on request.
var errHelp = stderrors.New("help requested")

// parseFlags parses a command's flags and checks the positional count.
// Commands accept --json and --format after their name as well.
func parseFlags(e *env, fs *flag.FlagSet, name string, args []string, wantArgs int) error {
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return errors.NewInputError("Invalid arguments", err.Error(), fmt.Sprintf("Run 'siginspect %s --help'", name))
	}

	if fs.Changed("format") {
		g := e.globals
		g.JSON = false
		g.Format, _ = fs.GetString("format")
		format, err := resolveFormat(g, e.cfg)
		if err != nil {
			return err
		}
		e.format = format
		e.globals.JSON = format == output.FormatJSON
	}
	if jsonOut, _ := fs.GetBool("json"); jsonOut {
		e.format = output.FormatJSON
		e.globals.JSON = true
	}

	if wantArgs >= 0 && fs.NArg() != wantArgs {
		fs.Usage()
		return errors.NewInputError(
			fmt.Sprintf("%s expects %d arguments, got %d", name, wantArgs, fs.NArg()),
			"",
			fmt.Sprintf("Run 'siginspect %s --help'", name),
		)
	}
	return nil
}

func newFlagSet(e *env, name, help string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Bool("json", false, "Output as JSON")
	fs.String("format", "", "Output format: text, json or yaml")
	fs.Usage = func() {
		fmt.Fprint(e.stderr, help)
		fmt.Fprintln(e.stderr, "\nOptions:")
		fs.PrintDefaults()
	}
	return fs
}

// runInspect executes the 'inspect' CLI command, printing the inspection of
// one callable.
//
// Examples:
//
//	siginspect inspect service.py greet
//	siginspect --json inspect service.py 'UserService().get_user'
func runInspect(e *env, args []string) error {
	fs := newFlagSet(e, "inspect", `Usage: siginspect inspect <file.py> <target>

Inspects a callable defined in a Python file: parameter names, kinds,
annotations, defaults and positions, the return annotation, whether it is
awaitable, and whether it is a function, method or class method.
`)
	if err := parseFlags(e, fs, "inspect", args, 2); err != nil {
		return helpOK(err)
	}

	tgt, err := e.resolve(context.Background(), fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fi, err := e.inspect(tgt)
	if err != nil {
		return err
	}

	if e.format == output.FormatText {
		renderInspection(e.stdout, fs.Arg(1), fi)
		return nil
	}
	return writeResult(e, fi.Record())
}

// runSchema executes the 'schema' CLI command, printing the JSON schema of a
// callable's parameters.
//
// Flags:
//   - --fallback-type: JSON type for parameters with unknown annotations
//   - --no-metadata: Omit the x-function-metadata block
func runSchema(e *env, args []string) error {
	fs := newFlagSet(e, "schema", `Usage: siginspect schema <file.py> <target>

Prints a JSON schema describing the keyword values a callable accepts.
Receivers (self, cls) and variadic parameters are left out; the schema allows
additional properties only when the callable takes **kwargs.
`)
	fallback := fs.String("fallback-type", "", "JSON type for parameters with unknown annotations")
	noMetadata := fs.Bool("no-metadata", false, "Omit the x-function-metadata block")
	if err := parseFlags(e, fs, "schema", args, 2); err != nil {
		return helpOK(err)
	}

	tgt, err := e.resolve(context.Background(), fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fi, err := e.inspect(tgt)
	if err != nil {
		return err
	}

	opts := e.cfg.SchemaOptions()
	if *fallback != "" {
		opts = append(opts, inspect.WithFallbackType(*fallback))
	}
	if *noMetadata {
		opts = append(opts, inspect.WithoutMetadata())
	}
	schema := fi.JSONSchema(opts...)

	if e.format == output.FormatYAML {
		return writeResult(e, schema)
	}
	return writeJSON(e, schema)
}

func writeResult(e *env, v any) error {
	if err := output.Write(e.stdout, e.format, v); err != nil {
		return errors.NewInternalError("Cannot write output", err.Error(), "", err)
	}
	return nil
}

func helpOK(err error) error {
	if stderrors.Is(err, errHelp) {
		return nil
	}
	return err
}

// renderInspection prints a human-readable inspection.
func renderInspection(w io.Writer, target string, fi *inspect.FunctionInspection) {
	prev := ui.SetOutput(w)
	defer ui.SetOutput(prev)

	ui.Header(target)
	fmt.Fprintf(w, "%s  %s\n", ui.Label("Kind:     "), ui.KindText(fi.Kind().String()))
	fmt.Fprintf(w, "%s  %s\n", ui.Label("Qualname: "), fi.QualName())
	fmt.Fprintf(w, "%s  %s\n", ui.Label("Returns:  "), fi.ReturnAnnotation())
	fmt.Fprintf(w, "%s  %t\n", ui.Label("Awaitable:"), fi.Awaitable())
	fmt.Fprintln(w)

	params := fi.Parameters()
	if len(params) == 0 {
		ui.Line(ui.DimText("No parameters"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "POS\tNAME\tKIND\tANNOTATION\tDEFAULT")
	for _, p := range params {
		pos := "-"
		if p.Position != nil {
			pos = strconv.Itoa(*p.Position)
		}
		dflt := ui.DimText("-")
		switch {
		case p.Default != nil:
			dflt = *p.Default
		case p.IsRequired():
			dflt = ui.RequiredText("required")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", pos, p.Name, p.Kind, p.Annotation, dflt)
	}
	_ = tw.Flush()
}
