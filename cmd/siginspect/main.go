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

// Package main implements the siginspect CLI for inspecting the signatures
// of Python callables and splitting values into call arguments.
//
// Usage:
//
//	siginspect list <path>...                       List callables in Python files
//	siginspect inspect <file.py> <target>           Inspect a callable
//	siginspect schema <file.py> <target>            JSON schema of a callable's parameters
//	siginspect map <file.py> <target> --values ...  Split values into args and kwargs
//	siginspect declare '<def ...>'                  Inspect a textual declaration
//	siginspect version                              Show version information
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/internal/output"
	"github.com/kraklabs/siginspect/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags are the options accepted before the command name.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Format     string
	NoColor    bool
	Quiet      bool
	Verbose    int
	Metrics    bool
}

// env carries what every command needs.
type env struct {
	stdout  io.Writer
	stderr  io.Writer
	globals GlobalFlags
	cfg     *Config
	format  output.Format
	logger  *slog.Logger
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"list":        runList,
	"inspect":     runInspect,
	"schema":      runSchema,
	"map":         runMap,
	"annotations": runAnnotations,
	"declare":     runDeclare,
	"version":     runVersion,
}

const usage = `siginspect - Callable signature inspection

siginspect reads Python source without running it and reports the declared
shape of its functions and methods: parameter names, kinds, annotations and
defaults, the return annotation, and whether the callable is a function,
a bound method or a class method. It can also split a map of values into the
positional and keyword arguments a call would need.

Usage:
  siginspect [global options] <command> [options]

Commands:
  list         List callables defined in Python files or directories
  inspect      Inspect a callable
  schema       Print the JSON schema of a callable's parameters
  map          Split --values into positional and keyword arguments
  annotations  Resolve a callable's annotations against its module
  declare      Inspect a textual 'def' declaration
  version      Show version information

Global Options:
  --config <path>   Path to .siginspect.yaml (default: ./.siginspect.yaml)
  --json            Output as JSON
  --format <fmt>    Output format: text, json or yaml
  --no-color        Disable colored output
  -q, --quiet       Hide progress output
  -v, --verbose     Verbose logging (repeat for more)
  --metrics         Print Prometheus metrics to stderr on exit
  --version         Show version and exit

Targets:
  greet                  module function or lambda
  outer.<locals>.inner   nested function
  UserService            class (its constructor)
  UserService.get_user   member accessed through the class
  UserService().get_user member accessed through an instance

Examples:
  siginspect list src/
  siginspect inspect service.py 'UserService().get_user'
  siginspect --format yaml schema service.py greet
  siginspect map service.py api_endpoint --values '{"user_id": 123, "limit": 20}'
  siginspect declare 'async def fetch(url: str, *, timeout: float = 30.0) -> bytes'

Environment Variables:
  SIGINSPECT_MAX_SOURCE_BYTES  Largest Python file that will be parsed
  NO_COLOR                     Disable colored output

For detailed command help: siginspect <command> --help

`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var g GlobalFlags
	fs := flag.NewFlagSet("siginspect", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(stderr)
	fs.StringVar(&g.ConfigPath, "config", "", "Path to .siginspect.yaml")
	fs.BoolVar(&g.JSON, "json", false, "Output as JSON")
	fs.StringVar(&g.Format, "format", "", "Output format: text, json or yaml")
	fs.BoolVar(&g.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVarP(&g.Quiet, "quiet", "q", false, "Hide progress output")
	fs.CountVarP(&g.Verbose, "verbose", "v", "Verbose logging")
	fs.BoolVar(&g.Metrics, "metrics", false, "Print Prometheus metrics to stderr on exit")
	showVersion := fs.Bool("version", false, "Show version and exit")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return errors.ExitSuccess
		}
		return errors.ExitInput
	}

	if *showVersion {
		return exitCode(stderr, g, runVersion(&env{stdout: stdout, globals: g}, nil))
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.ExitInput
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return exitCode(stderr, g, errors.NewInputError(
			fmt.Sprintf("Unknown command: %s", rest[0]),
			"",
			"Run 'siginspect --help' to list commands",
		))
	}

	e, err := newEnv(stdout, stderr, g)
	if err != nil {
		return exitCode(stderr, g, err)
	}

	err = cmd(e, rest[1:])
	if g.Metrics {
		if mErr := dumpMetrics(stderr); mErr != nil {
			e.logger.Warn("metrics.dump.failed", "error", mErr)
		}
	}
	return exitCode(stderr, e.globals, err)
}

// newEnv loads configuration, resolves the output format and installs the
// logger and color settings.
func newEnv(stdout, stderr io.Writer, g GlobalFlags) (*env, error) {
	cfg, err := LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	if cfg.NoColor || !isTerminal(stdout) {
		g.NoColor = true
	}
	ui.InitColors(g.NoColor)
	ui.SetOutput(stdout)

	format, err := resolveFormat(g, cfg)
	if err != nil {
		return nil, err
	}
	if format == output.FormatJSON {
		g.JSON = true
	}

	logLevel := slog.LevelWarn
	switch {
	case g.Verbose >= 2:
		logLevel = slog.LevelDebug
	case g.Verbose == 1:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	return &env{
		stdout:  stdout,
		stderr:  stderr,
		globals: g,
		cfg:     cfg,
		format:  format,
		logger:  logger,
	}, nil
}

// resolveFormat applies --json, then --format, then the config file.
func resolveFormat(g GlobalFlags, cfg *Config) (output.Format, error) {
	if g.JSON {
		return output.FormatJSON, nil
	}
	source, value := "--format", g.Format
	if value == "" {
		source, value = "output in the config file", cfg.Output
	}
	format, err := output.ParseFormat(value)
	if err != nil {
		return "", errors.NewInputError(
			fmt.Sprintf("Invalid %s", source),
			err.Error(),
			"Use one of: text, json, yaml",
		)
	}
	return format, nil
}

func exitCode(stderr io.Writer, g GlobalFlags, err error) int {
	return errors.Report(stderr, err, g.JSON, g.NoColor)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
