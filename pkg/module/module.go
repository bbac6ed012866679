// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package module implements the registry of pluggable modules.
//
// Modules register themselves from an init function and are looked up by ID
// when the configuration references them. IDs are dotted paths whose prefix
// is the namespace of the component using the module, for example
// "fetcher.provider.file" or "engine.js".
package module

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Module is the interface of module.
type Module interface {
	// ModuleInfo returns the module information.
	ModuleInfo() ModuleInfo
}

// ModuleID is the module id.
type ModuleID string

// Namespace returns the namespace part of the ID, everything before the last
// dot.
func (id ModuleID) Namespace() string {
	i := strings.LastIndexByte(string(id), '.')
	if i < 0 {
		return ""
	}
	return string(id)[:i]
}

// Name returns the last element of the ID.
func (id ModuleID) Name() string {
	i := strings.LastIndexByte(string(id), '.')
	return string(id)[i+1:]
}

// ModuleInfo implements the module information.
type ModuleInfo struct {
	// ID is the module ID.
	ID ModuleID
	// NewInstance returns a new module instance.
	NewInstance func() Module
}

// ErrNotRegistered is returned by Lookup for an unknown module.
var ErrNotRegistered = errors.New("module not registered")

var (
	modules     = make(map[ModuleID]ModuleInfo)
	modulesLock sync.RWMutex
)

// Register registers a module. It panics if a module with the same ID is
// already registered.
func Register(module Module) {
	modulesLock.Lock()
	defer modulesLock.Unlock()

	info := module.ModuleInfo()
	if _, ok := modules[info.ID]; ok {
		panic(fmt.Sprintf("module '%s' already registered", info.ID))
	}
	modules[info.ID] = info
}

// Unregister unregisters a module.
func Unregister(module Module) {
	modulesLock.Lock()
	defer modulesLock.Unlock()

	delete(modules, module.ModuleInfo().ID)
}

// Lookup returns the module information if found.
func Lookup(id ModuleID) (ModuleInfo, error) {
	modulesLock.RLock()
	defer modulesLock.RUnlock()

	mi, ok := modules[id]
	if !ok {
		return ModuleInfo{}, fmt.Errorf("module '%s': %w", id, ErrNotRegistered)
	}

	return mi, nil
}

// Modules returns the sorted IDs of the modules registered in the given
// namespace. An empty namespace returns all modules.
func Modules(namespace string) []ModuleID {
	modulesLock.RLock()
	defer modulesLock.RUnlock()

	var ids []ModuleID
	for id := range modules {
		if namespace == "" || id.Namespace() == namespace {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
