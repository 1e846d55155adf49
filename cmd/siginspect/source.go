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
	"io/fs"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/pkg/inspect"
	"github.com/kraklabs/siginspect/pkg/pysource"
	"github.com/kraklabs/siginspect/pkg/signature"
)

func (e *env) parser() *pysource.Parser {
	p := pysource.NewParser(e.logger)
	p.SetMaxBytes(e.cfg.Source.MaxBytes)
	return p
}

// loadModule parses a Python file, mapping failures to user errors.
func (e *env) loadModule(ctx context.Context, path string) (*pysource.Module, error) {
	mod, err := e.parser().LoadFile(ctx, path)
	switch {
	case err == nil:
		return mod, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.NewNotFoundError(
			"Source file not found",
			fmt.Sprintf("%s does not exist", path),
			"Check the path to the Python file",
		)
	case stderrors.Is(err, fs.ErrPermission):
		return nil, errors.NewPermissionError(
			"Cannot read source file",
			fmt.Sprintf("Permission denied for %s", path),
			"Check the file permissions",
			err,
		)
	case stderrors.Is(err, pysource.ErrTooLarge):
		return nil, errors.NewInputError(
			"Source file too large",
			err.Error(),
			"Raise source.max_bytes or set SIGINSPECT_MAX_SOURCE_BYTES",
		)
	default:
		return nil, errors.NewInputError(
			"Cannot parse source file",
			err.Error(),
			"Pass a Python source file",
		)
	}
}

// resolve looks up target in the module at path.
func (e *env) resolve(ctx context.Context, path, target string) (*pysource.Target, error) {
	mod, err := e.loadModule(ctx, path)
	if err != nil {
		return nil, err
	}
	return lookup(mod, path, target)
}

func lookup(mod *pysource.Module, path, target string) (*pysource.Target, error) {
	tgt, err := mod.Resolve(target)
	switch {
	case err == nil:
		return tgt, nil
	case stderrors.Is(err, pysource.ErrNotFound):
		return nil, errors.NewNotFoundError(
			"Target not found",
			fmt.Sprintf("%s defines no callable named '%s'", path, target),
			fmt.Sprintf("Run 'siginspect list %s' to see available targets", path),
		)
	default:
		return nil, errors.NewInputError(
			"Invalid target",
			err.Error(),
			"Use a form like greet, UserService.get_user or 'UserService().get_user'",
		)
	}
}

// inspect runs the inspector on c and converts an InspectionError.
func (e *env) inspect(c signature.Callable) (*inspect.FunctionInspection, error) {
	fi, err := inspect.NewInspector(e.logger).InspectFunction(c)
	if err != nil {
		return nil, inspectionFailure(err)
	}
	return fi, nil
}

func inspectionFailure(err error) error {
	var ie *inspect.InspectionError
	if !stderrors.As(err, &ie) {
		return errors.NewInternalError("Inspection failed", err.Error(), "This is a bug. Please report it", err)
	}

	fix := "Pick another target"
	switch {
	case stderrors.Is(err, inspect.ErrMalformed):
		fix = "Fix the declaration's parameter list"
	case stderrors.Is(err, inspect.ErrNotCallable):
		fix = "Inspect a function, method or class"
	case stderrors.Is(err, inspect.ErrNoSignature):
		fix = "Define the callable in the same file or inspect its declaration with 'siginspect declare'"
	}
	msg := "Cannot inspect declaration"
	if ie.Target != "" {
		msg = fmt.Sprintf("Cannot inspect %s", ie.Target)
	}
	return errors.NewInspectionError(
		msg,
		ie.Reason,
		fix,
		err,
	)
}
