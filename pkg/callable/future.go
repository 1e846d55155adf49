// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package callable

import (
	"context"
	"sync"
)

// Awaitable is the result of calling a coroutine function.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Future runs a coroutine body at most once, on the first Await.
type Future struct {
	once sync.Once
	run  func(ctx context.Context) (any, error)

	value any
	err   error
	done  chan struct{}
}

func newFuture(run func(ctx context.Context) (any, error)) *Future {
	return &Future{run: run, done: make(chan struct{})}
}

// Await runs the body if it has not run yet and returns its result. Later
// calls return the same result. A cancelled context is reported without
// running the body, and the body stays pending.
func (f *Future) Await(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		select {
		case <-f.done:
		default:
			return nil, err
		}
	}
	f.once.Do(func() {
		defer close(f.done)
		f.value, f.err = f.run(ctx)
	})
	return f.value, f.err
}

// Done reports whether the body has completed.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Resolve unwraps v when it is an Awaitable; other values are returned
// unchanged.
func Resolve(ctx context.Context, v any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if a, ok := v.(Awaitable); ok {
		return a.Await(ctx)
	}
	return v, nil
}
