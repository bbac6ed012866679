// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package core

import "context"

// Engine is the interface of the script engine.
//
// The engine executes scripts in a single global context: a script sees the
// globals defined by the scripts executed before it.
type Engine interface {
	// Execute executes the given source. The name is used in error messages
	// and stack traces.
	Execute(ctx context.Context, name string, source []byte) error
}

// EngineModule is the interface of an engine module.
type EngineModule interface {
	// Module is the interface of a module.
	Module
	// Engine is the interface of the script engine.
	Engine
}
