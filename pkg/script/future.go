// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package script

import (
	"context"
	"sync"

	"github.com/bhuisgen/scriptloader/pkg/host"
)

// Result implements the outcome of a load: exactly one of Script and Err is
// set.
type Result struct {
	Script *host.Element
	Err    error
}

// Future implements the pending result of a load.
type Future struct {
	src    string
	once   sync.Once
	done   chan struct{}
	result Result
}

// newFuture creates a pending future.
func newFuture(src string) *Future {
	return &Future{
		src:  src,
		done: make(chan struct{}),
	}
}

// resolve sets the result. Only the first call has an effect.
func (f *Future) resolve(r Result) {
	f.once.Do(func() {
		f.result = r
		close(f.done)
	})
}

// Src returns the script locator.
func (f *Future) Src() string {
	return f.src
}

// Done returns a channel closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the result, blocking until it is available.
func (f *Future) Result() Result {
	<-f.done
	return f.result
}

// Await waits for the result. If ctx ends first, it returns the context
// error; the load itself goes on. Await must not be called from a load
// notification since it would block the event loop.
func (f *Future) Await(ctx context.Context) (*host.Element, error) {
	select {
	case <-f.done:
		return f.result.Script, f.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoadAsync appends a script element with the given src to the document head
// and returns the future of its result. A load that cannot be issued resolves
// the future immediately with a *LoadError.
func LoadAsync(doc Document, src string) *Future {
	f := newFuture(src)

	err := LoadCallback(doc, src, func(err error, el *host.Element) {
		f.resolve(Result{Script: el, Err: err})
	})
	if err != nil {
		f.resolve(Result{Err: err})
	}

	return f
}
