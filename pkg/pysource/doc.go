// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pysource reads Python source with Tree-sitter and exposes its
// functions, methods and classes as signature.Callable values.
//
// Nothing is executed. Signatures come from the def statements themselves;
// descriptor behavior (staticmethod, classmethod, property) and
// constructors are derived from decorators and in-module base classes:
//
//	mod, err := pysource.NewParser(logger).LoadFile(ctx, "service.py")
//	target, err := mod.Resolve("UserService().get_user")
//	fi, err := inspect.InspectFunction(target)
package pysource
