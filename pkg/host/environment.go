// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/log"
)

// Environment implements the host environment of a document.
//
// Scripts appended to the document are fetched concurrently, then executed
// and notified one at a time on the environment loop goroutine, in the order
// their fetches complete.
type Environment struct {
	fetcher core.Fetcher
	engine  core.Engine
	logger  *slog.Logger
	doc     *Document
	index   []byte
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   chan func()
	quit    chan struct{}
	done    chan struct{}
	idle    chan struct{}
	mu      sync.Mutex
	pending int
	closing bool
	closed  bool
}

// Option configures an environment.
type Option func(e *Environment)

var (
	// ErrClosed is returned when a script is appended to the document of a
	// closed environment.
	ErrClosed = errors.New("environment closed")
	// ErrAlreadyAttached is returned when an element is appended twice.
	ErrAlreadyAttached = errors.New("element already attached")
	// ErrWrongDocument is returned when an element is appended to an element
	// of another document.
	ErrWrongDocument = errors.New("element from another document")
	// ErrNoEnvironment is returned when a script is loaded into a document
	// without environment.
	ErrNoEnvironment = errors.New("document without environment")
)

const (
	environmentLogger string = "host"
)

// WithLogger sets the environment logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

// WithIndex sets the index page of the document.
func WithIndex(index []byte) Option {
	return func(e *Environment) {
		e.index = index
	}
}

// NewEnvironment creates a new environment and starts its loop.
func NewEnvironment(fetcher core.Fetcher, engine core.Engine, opts ...Option) (*Environment, error) {
	if fetcher == nil {
		return nil, errors.New("missing fetcher")
	}
	if engine == nil {
		return nil, errors.New("missing engine")
	}

	e := &Environment{
		fetcher: fetcher,
		engine:  engine,
		tasks:   make(chan func()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		idle:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(environmentLogger)
	}

	doc, err := NewDocument(e.index)
	if err != nil {
		return nil, err
	}
	doc.env = e
	e.doc = doc

	e.ctx, e.cancel = context.WithCancel(context.Background())

	go e.run()

	return e, nil
}

// Document returns the environment document.
func (e *Environment) Document() *Document {
	return e.doc
}

// Close waits for the pending loads to settle, including the loads started
// by their notifications, then stops the loop. Scripts appended once the
// environment is idle are rejected with ErrClosed.
func (e *Environment) Close() error {
	e.mu.Lock()
	if e.closing {
		e.mu.Unlock()
		<-e.done
		return nil
	}
	e.closing = true
	if e.pending == 0 {
		e.closed = true
		close(e.idle)
	}
	e.mu.Unlock()

	<-e.idle
	e.cancel()
	close(e.quit)
	<-e.done

	e.logger.Debug("Environment closed")

	return nil
}

// run runs the loop until the environment is closed.
func (e *Environment) run() {
	defer close(e.done)

	for {
		select {
		case task := <-e.tasks:
			e.runTask(task)
		case <-e.quit:
			return
		}
	}
}

// runTask runs a loop task. A panic in a notification is logged and does not
// stop the loop.
func (e *Environment) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Task panicked", "panic", r)
		}
	}()

	task()
}

// acquire reserves a pending load.
func (e *Environment) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.pending++

	return nil
}

// release releases a pending load.
func (e *Environment) release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending--
	if e.pending == 0 && e.closing && !e.closed {
		e.closed = true
		close(e.idle)
	}
}

// load fetches the script of the element then completes it on the loop. The
// caller must have acquired a pending load.
func (e *Environment) load(el *Element) {
	if !el.begin() {
		e.release()
		return
	}

	src := el.Src()
	e.logger.Debug("Loading script", "src", src, "element", el.ID())

	go func() {
		resource, err := e.fetcher.Fetch(e.ctx, src)
		e.tasks <- func() {
			defer e.release()
			e.complete(el, resource, err)
		}
	}()
}

// complete executes the fetched script and notifies the outcome.
func (e *Environment) complete(el *Element, resource *core.Resource, err error) {
	src := el.Src()

	switch {
	case err != nil:
		err = fmt.Errorf("fetch: %w", err)
	case resource == nil:
		err = errors.New("fetch: empty resource")
	default:
		if err = e.execute(src, resource.Data); err != nil {
			err = fmt.Errorf("execute: %w", err)
		}
	}

	onLoad, onError, ok := el.settle(err)
	if !ok {
		return
	}

	if err != nil {
		if onError == nil {
			e.logger.Error("Failed to load script", "src", src, "element", el.ID(), "err", err)
			return
		}
		e.logger.Debug("Script failed", "src", src, "element", el.ID(), "err", err)
		onError(el, err)
		return
	}

	e.logger.Debug("Script loaded", "src", src, "element", el.ID())
	if onLoad != nil {
		onLoad(el)
	}
}

// execute runs the script source with the engine. A panic of the engine is
// returned as an error.
func (e *Environment) execute(src string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()

	return e.engine.Execute(e.ctx, src, data)
}
