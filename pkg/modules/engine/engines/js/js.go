// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package js

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/module"
)

// jsEngine implements the javascript engine.
type jsEngine struct {
	config  *jsEngineConfig
	logger  *slog.Logger
	timeout time.Duration
	vm      *vm
	mu      sync.Mutex
}

// jsEngineConfig implements the javascript engine configuration.
type jsEngineConfig struct {
	Timeout *int                   `mapstructure:"timeout"`
	Env     *string                `mapstructure:"env"`
	Globals map[string]interface{} `mapstructure:"globals"`
}

const (
	jsModuleID module.ModuleID = "engine.js"

	jsConfigDefaultTimeout int    = 4
	jsConfigDefaultEnv     string = "production"
)

// init initializes the module.
func init() {
	module.Register(jsEngine{})
}

// ModuleInfo returns the module information.
func (e jsEngine) ModuleInfo() module.ModuleInfo {
	return module.ModuleInfo{
		ID: jsModuleID,
		NewInstance: func() module.Module {
			return &jsEngine{}
		},
	}
}

// Init initializes the engine.
func (e *jsEngine) Init(config map[string]interface{}, logger *slog.Logger) error {
	e.logger = logger

	if err := mapstructure.Decode(config, &e.config); err != nil {
		e.logger.Error("Failed to parse configuration", "err", err)
		return fmt.Errorf("parse config: %w", err)
	}
	if e.config == nil {
		e.config = &jsEngineConfig{}
	}

	var errInit bool

	if e.config.Timeout == nil {
		defaultValue := jsConfigDefaultTimeout
		e.config.Timeout = &defaultValue
	}
	if *e.config.Timeout < 0 {
		e.logger.Error("Invalid value", "option", "Timeout", "value", *e.config.Timeout)
		errInit = true
	}
	if e.config.Env == nil {
		defaultValue := jsConfigDefaultEnv
		e.config.Env = &defaultValue
	}
	if *e.config.Env == "" {
		e.logger.Error("Invalid value", "option", "Env", "value", *e.config.Env)
		errInit = true
	}
	for k := range e.config.Globals {
		if k == "" || k == "process" || k == "console" {
			e.logger.Error("Invalid key", "option", "Globals", "key", k)
			errInit = true
		}
	}

	if errInit {
		return errors.New("init error")
	}

	e.timeout = time.Duration(*e.config.Timeout) * time.Second

	vm, err := newVM(&vmConfig{
		Env:     *e.config.Env,
		Globals: e.config.Globals,
	}, e.logger)
	if err != nil {
		e.logger.Error("Failed to create VM", "err", err)
		return fmt.Errorf("create vm: %w", err)
	}
	e.vm = vm

	return nil
}

// Execute executes the script source. Scripts are executed one at a time in
// the same global scope.
func (e *jsEngine) Execute(ctx context.Context, name string, source []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := e.vm.Execute(ctx, name, string(source), e.timeout)
	e.logger.Debug("Script executed", "name", name, "duration", time.Since(start), "ok", err == nil)

	return err
}

var _ core.EngineModule = (*jsEngine)(nil)
