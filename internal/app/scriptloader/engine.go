// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scriptloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/log"
	"github.com/bhuisgen/scriptloader/pkg/module"
)

// engine implements the script engine.
type engine struct {
	config map[string]map[string]interface{}
	logger *slog.Logger
	module core.EngineModule
}

const (
	engineLogger string = "engine"

	engineNamespace     string = "engine"
	engineDefaultModule string = "js"
)

// newEngine creates a new engine.
func newEngine() *engine {
	return &engine{
		logger: log.New(engineLogger),
	}
}

// Init initializes the engine with the single configured engine module.
func (e *engine) Init(config map[string]interface{}) error {
	if err := mapstructure.Decode(config, &e.config); err != nil {
		e.logger.Error("Failed to parse configuration", "err", err)
		return fmt.Errorf("parse config: %w", err)
	}
	if len(e.config) == 0 {
		e.config = map[string]map[string]interface{}{
			engineDefaultModule: {},
		}
	}
	if len(e.config) > 1 {
		e.logger.Error("Invalid configuration, a single engine module is required", "modules", sortedKeys(e.config))
		return errors.New("init error")
	}

	for moduleName, moduleConfig := range e.config {
		moduleInfo, err := module.Lookup(module.ModuleID(engineNamespace + "." + moduleName))
		if err != nil {
			e.logger.Error("Unregistered engine module", "module", moduleName, "err", err)
			return errors.New("init error")
		}
		module, ok := moduleInfo.NewInstance().(core.EngineModule)
		if !ok {
			e.logger.Error("Invalid engine module", "module", moduleName)
			return errors.New("init error")
		}
		if moduleConfig == nil {
			moduleConfig = map[string]interface{}{}
		}
		if err := module.Init(moduleConfig, log.New(engineLogger).With("module", moduleName)); err != nil {
			e.logger.Error("Failed to init engine module", "module", moduleName, "err", err)
			return errors.New("init error")
		}
		e.module = module
	}

	return nil
}

// Execute executes the script source with the engine module.
func (e *engine) Execute(ctx context.Context, name string, source []byte) error {
	if e.module == nil {
		return errors.New("engine not initialized")
	}
	return e.module.Execute(ctx, name, source)
}

var _ core.Engine = (*engine)(nil)
