// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scriptloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bhuisgen/scriptloader/pkg/host"
	"github.com/bhuisgen/scriptloader/pkg/log"
	"github.com/bhuisgen/scriptloader/pkg/script"
)

// App implements the application.
type App struct {
	config      *Config
	logger      *slog.Logger
	fetcher     *fetcher
	engine      *engine
	document    *document
	loader      *loader
	initialized bool
	osMkdirAll  func(path string, perm os.FileMode) error
	osWriteFile func(name string, data []byte, perm os.FileMode) error
}

// Report implements the report of a run.
type Report struct {
	// Scripts are the reports of the scripts, in load order.
	Scripts []ScriptReport
	// Err is the first failure.
	Err error
	// Duration is the run duration.
	Duration time.Duration
}

// Failed reports whether the run failed.
func (r *Report) Failed() bool {
	return r.Err != nil
}

// ScriptReport implements the report of a script.
type ScriptReport struct {
	Src      string
	ID       string
	State    string
	Duration time.Duration
	Err      error
}

const (
	appLogger string = "app"

	// ScriptStateSkipped is the state of a script not loaded after a failure.
	ScriptStateSkipped string = "skipped"
)

var (
	// ErrNoScripts is returned when a run has no script to load.
	ErrNoScripts = errors.New("no scripts to load")
)

// appOsMkdirAll redirects to os.MkdirAll.
func appOsMkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// appOsWriteFile redirects to os.WriteFile.
func appOsWriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// New creates a new application.
func New(config *Config) *App {
	if config == nil {
		config = &Config{}
	}
	return &App{
		config:      config,
		logger:      log.New(appLogger),
		fetcher:     newFetcher(),
		engine:      newEngine(),
		document:    newDocument(),
		loader:      newLoader(),
		osMkdirAll:  appOsMkdirAll,
		osWriteFile: appOsWriteFile,
	}
}

// Init initializes all the components. Every component is initialized so
// that all configuration problems are logged.
func (a *App) Init() error {
	var errInit bool

	if err := a.fetcher.Init(a.config.Fetcher); err != nil {
		a.logger.Error("Failed to init fetcher", "err", err)
		errInit = true
	}
	if err := a.engine.Init(a.config.Engine); err != nil {
		a.logger.Error("Failed to init engine", "err", err)
		errInit = true
	}
	if err := a.document.Init(a.config.Document); err != nil {
		a.logger.Error("Failed to init document", "err", err)
		errInit = true
	}
	if err := a.loader.Init(a.config.Loader); err != nil {
		a.logger.Error("Failed to init loader", "err", err)
		errInit = true
	}

	if errInit {
		return errors.New("init error")
	}

	a.initialized = true

	return nil
}

// Check checks the configuration.
func (a *App) Check() error {
	return a.Init()
}

// Run loads the scripts in order into a new document, stopping at the first
// failure. The locators are the given ones, else the manifest ones, else the
// configured ones. The document is rendered to the output file if configured.
func (a *App) Run(ctx context.Context, locators []string) (*Report, error) {
	if !a.initialized {
		if err := a.Init(); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	srcs, err := a.loader.Locators(ctx, a.fetcher, locators)
	if err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, ErrNoScripts
	}

	index, err := a.document.Index()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	env, err := host.NewEnvironment(a.fetcher, a.engine,
		host.WithLogger(log.New("host")),
		host.WithIndex(index))
	if err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}

	report := &Report{
		Scripts: make([]ScriptReport, len(srcs)),
	}
	for i, src := range srcs {
		report.Scripts[i] = ScriptReport{Src: src, State: ScriptStateSkipped}
	}

	steps := make([]script.Step, 0, len(srcs))
	for i, src := range srcs {
		steps = append(steps, a.step(env.Document(), src, &report.Scripts[i]))
	}

	report.Err = script.Series(ctx, steps...)

	if err := env.Close(); err != nil {
		a.logger.Error("Failed to close environment", "err", err)
	}

	for i := range report.Scripts {
		if report.Scripts[i].ID == "" {
			continue
		}
		if el, ok := env.Document().GetElementByID(report.Scripts[i].ID); ok {
			report.Scripts[i].State = el.State().String()
		}
	}

	if output := a.document.Output(); output != "" {
		if err := a.render(env.Document(), output); err != nil {
			a.logger.Error("Failed to render document", "output", output, "err", err)
			if report.Err == nil {
				report.Err = fmt.Errorf("render document: %w", err)
			}
		}
	}

	report.Duration = time.Since(start)

	if report.Err != nil {
		a.logger.Error("Run failed", "duration", report.Duration, "err", report.Err)
	} else {
		a.logger.Info("Run completed", "scripts", len(srcs), "duration", report.Duration)
	}

	return report, report.Err
}

// step returns the step loading the script and filling its report.
func (a *App) step(doc *host.Document, src string, r *ScriptReport) script.Step {
	return func(ctx context.Context) error {
		if timeout := a.loader.Timeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		a.logger.Debug("Loading script", "src", src)

		el, err := script.LoadAsync(doc, src).Await(ctx)
		r.Duration = time.Since(start)
		if el == nil {
			el = lastScript(doc, src)
		}
		if el != nil {
			r.ID = el.ID()
			r.State = el.State().String()
		} else {
			r.State = host.StateFailed.String()
		}
		if err != nil {
			r.Err = err
			a.logger.Error("Failed to load script", "src", src, "duration", r.Duration, "err", err)
			return err
		}

		a.logger.Info("Script loaded", "src", src, "id", r.ID, "duration", r.Duration)

		return nil
	}
}

// lastScript returns the last script element of the document with the given
// src.
func lastScript(doc *host.Document, src string) *host.Element {
	scripts := doc.Scripts()
	for i := len(scripts) - 1; i >= 0; i-- {
		if scripts[i].Src() == src {
			return scripts[i]
		}
	}
	return nil
}

// render writes the document to the output file.
func (a *App) render(doc *host.Document, output string) error {
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return err
	}
	if err := a.osMkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}
	return a.osWriteFile(output, buf.Bytes(), 0644)
}
