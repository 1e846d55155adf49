// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package callable provides invocable callables with declared Python-style
// signatures, and the binder that matches call arguments to them.
//
//	greet := callable.MustNew("def greet(name: str, age: int = 25) -> str",
//	    func(ctx context.Context, a *callable.Arguments) (any, error) {
//	        return fmt.Sprintf("%s is %d", a.Get("name"), a.Get("age")), nil
//	    })
//	out, err := greet.Call(ctx, []any{"Ada"}, nil) // "Ada is 25"
//
// Methods are declared with their receiver and bound with BindInstance or
// BindType; the bound Func no longer lists the receiver in its signature.
// Coroutine declarations (async def) return a *Future from Call.
package callable
