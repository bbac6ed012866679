// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package js

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// vm implements a VM.
type vm struct {
	runtime *goja.Runtime
	logger  *slog.Logger
	current string
}

// vmConfig implements the VM configuration.
type vmConfig struct {
	Env     string
	Globals map[string]interface{}
}

var (
	errVMExecutionTimeout = errors.New("execution timeout")
)

// newVM creates a new VM with its globals.
func newVM(config *vmConfig, logger *slog.Logger) (*vm, error) {
	v := &vm{
		runtime: goja.New(),
		logger:  logger,
	}

	env := v.runtime.NewObject()
	if err := env.Set("ENV", config.Env); err != nil {
		return nil, err
	}
	process := v.runtime.NewObject()
	if err := process.Set("env", env); err != nil {
		return nil, err
	}
	if err := v.runtime.Set("process", process); err != nil {
		return nil, err
	}

	console := v.runtime.NewObject()
	for name, level := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"log":   slog.LevelInfo,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		if err := console.Set(name, v.console(level)); err != nil {
			return nil, err
		}
	}
	if err := v.runtime.Set("console", console); err != nil {
		return nil, err
	}

	for name, value := range config.Globals {
		if err := v.runtime.Set(name, value); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// console returns a console method writing to the logger at the given level.
func (v *vm) console(level slog.Level) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			args = append(args, arg.String())
		}
		v.logger.Log(context.Background(), level, strings.Join(args, " "), "script", v.current)
		return goja.Undefined()
	}
}

// Execute runs the script. The runtime is interrupted when the timeout
// expires or ctx is done.
func (v *vm) Execute(ctx context.Context, name string, source string, timeout time.Duration) error {
	v.current = name
	defer func() { v.current = "" }()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	done := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-done:
		case <-expired:
			v.runtime.Interrupt(errVMExecutionTimeout)
		case <-ctx.Done():
			v.runtime.Interrupt(ctx.Err())
		}
	}()

	_, err := v.runtime.RunScript(name, source)
	close(done)
	<-watched
	v.runtime.ClearInterrupt()

	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("run %s: %w", name, cause)
		}
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		v.logger.Debug("Script exception", "name", name, "stack", exception.String())
	}

	return fmt.Errorf("run %s: %w", name, err)
}
