// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package log provides the slog handler shared by all components.
package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// ProgramLevel is the common log level.
var ProgramLevel = new(slog.LevelVar)

// Output is the writer used by the loggers created with New.
var Output io.Writer = os.Stderr

// New returns a logger for the given component id, writing to Output at
// ProgramLevel. Levels are colored if Output is a terminal.
func New(id string) *slog.Logger {
	return slog.New(NewHandler(Output, id, &HandlerOptions{
		Color: isTerminal(Output),
	}))
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetDebug switches ProgramLevel between debug and info.
func SetDebug(debug bool) {
	if debug {
		ProgramLevel.Set(slog.LevelDebug)
		return
	}
	ProgramLevel.Set(slog.LevelInfo)
}
