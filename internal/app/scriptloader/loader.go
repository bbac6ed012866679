// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scriptloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/mitchellh/mapstructure"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/log"
)

// loader implements the loader.
type loader struct {
	config        *loaderConfig
	logger        *slog.Logger
	jsonUnmarshal func(data []byte, v any) error
}

// loaderConfig implements the loader configuration.
type loaderConfig struct {
	Timeout  *int                  `mapstructure:"timeout"`
	Scripts  []string              `mapstructure:"scripts"`
	Manifest *loaderManifestConfig `mapstructure:"manifest"`
}

// loaderManifestConfig implements the manifest configuration.
type loaderManifestConfig struct {
	Locator string  `mapstructure:"locator"`
	Filter  *string `mapstructure:"filter"`
}

const (
	loaderLogger string = "loader"

	loaderConfigDefaultTimeout        int    = 0
	loaderManifestConfigDefaultFilter string = "$.scripts"
)

// loaderJsonUnmarshal redirects to json.Unmarshal.
func loaderJsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// newLoader creates a new loader.
func newLoader() *loader {
	return &loader{
		logger:        log.New(loaderLogger),
		jsonUnmarshal: loaderJsonUnmarshal,
	}
}

// Init initializes the loader.
func (l *loader) Init(config map[string]interface{}) error {
	if err := mapstructure.Decode(config, &l.config); err != nil {
		l.logger.Error("Failed to parse configuration", "err", err)
		return fmt.Errorf("parse config: %w", err)
	}
	if l.config == nil {
		l.config = &loaderConfig{}
	}

	var errInit bool

	if l.config.Timeout == nil {
		defaultValue := loaderConfigDefaultTimeout
		l.config.Timeout = &defaultValue
	}
	if *l.config.Timeout < 0 {
		l.logger.Error("Invalid value", "option", "Timeout", "value", *l.config.Timeout)
		errInit = true
	}
	for _, item := range l.config.Scripts {
		if item == "" {
			l.logger.Error("Invalid value", "option", "Scripts", "value", item)
			errInit = true
		}
	}
	if l.config.Manifest != nil {
		if l.config.Manifest.Locator == "" {
			l.logger.Error("Missing value", "option", "Manifest.Locator")
			errInit = true
		}
		if l.config.Manifest.Filter == nil {
			defaultValue := loaderManifestConfigDefaultFilter
			l.config.Manifest.Filter = &defaultValue
		}
		if _, err := jsonpath.New(*l.config.Manifest.Filter); err != nil {
			l.logger.Error("Invalid value", "option", "Manifest.Filter", "value", *l.config.Manifest.Filter,
				"err", err)
			errInit = true
		}
	}

	if errInit {
		return errors.New("init error")
	}

	return nil
}

// Timeout returns the time to wait for each script, zero if unlimited.
func (l *loader) Timeout() time.Duration {
	return time.Duration(*l.config.Timeout) * time.Second
}

// Locators returns the ordered script locators: the given ones, else the
// manifest ones, else the configured ones.
func (l *loader) Locators(ctx context.Context, fetcher core.Fetcher, locators []string) ([]string, error) {
	if len(locators) > 0 {
		return locators, nil
	}

	if l.config.Manifest != nil {
		resource, err := fetcher.Fetch(ctx, l.config.Manifest.Locator)
		if err != nil {
			l.logger.Error("Failed to fetch manifest", "locator", l.config.Manifest.Locator, "err", err)
			return nil, fmt.Errorf("fetch manifest: %w", err)
		}
		locators, err := l.parseManifest(resource.Data, *l.config.Manifest.Filter)
		if err != nil {
			l.logger.Error("Failed to parse manifest", "locator", l.config.Manifest.Locator, "err", err)
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		l.logger.Debug("Manifest loaded", "locator", l.config.Manifest.Locator, "scripts", len(locators))
		return locators, nil
	}

	return l.config.Scripts, nil
}

// parseManifest returns the locators selected by the filter in the JSON
// manifest.
func (l *loader) parseManifest(data []byte, filter string) ([]string, error) {
	var jsonData interface{}
	if err := l.jsonUnmarshal(data, &jsonData); err != nil {
		return nil, err
	}
	result, err := jsonpath.Get(filter, jsonData)
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		locators := make([]string, 0, len(v))
		for _, item := range v {
			locator, ok := item.(string)
			if !ok || locator == "" {
				return nil, fmt.Errorf("invalid locator %v", item)
			}
			locators = append(locators, locator)
		}
		return locators, nil
	default:
		return nil, fmt.Errorf("invalid filter result %v", result)
	}
}

// document implements the document configuration.
type document struct {
	config     *documentConfig
	logger     *slog.Logger
	osReadFile func(name string) ([]byte, error)
}

// documentConfig implements the document configuration.
type documentConfig struct {
	Index  *string `mapstructure:"index"`
	Output *string `mapstructure:"output"`
}

const (
	documentLogger string = "document"
)

// newDocument creates a new document.
func newDocument() *document {
	return &document{
		logger:     log.New(documentLogger),
		osReadFile: configOsReadFile,
	}
}

// Init initializes the document.
func (d *document) Init(config map[string]interface{}) error {
	if err := mapstructure.Decode(config, &d.config); err != nil {
		d.logger.Error("Failed to parse configuration", "err", err)
		return fmt.Errorf("parse config: %w", err)
	}
	if d.config == nil {
		d.config = &documentConfig{}
	}

	var errInit bool

	if d.config.Index != nil {
		if *d.config.Index == "" {
			d.logger.Error("Invalid value", "option", "Index", "value", *d.config.Index)
			errInit = true
		} else if _, err := d.osReadFile(*d.config.Index); err != nil {
			d.logger.Error("Failed to read file", "option", "Index", "value", *d.config.Index, "err", err)
			errInit = true
		}
	}
	if d.config.Output != nil && *d.config.Output == "" {
		d.logger.Error("Invalid value", "option", "Output", "value", *d.config.Output)
		errInit = true
	}

	if errInit {
		return errors.New("init error")
	}

	return nil
}

// Index returns the index page, nil if not configured.
func (d *document) Index() ([]byte, error) {
	if d.config.Index == nil {
		return nil, nil
	}
	return d.osReadFile(*d.config.Index)
}

// Output returns the path of the rendered document, empty if not configured.
func (d *document) Output() string {
	if d.config.Output == nil {
		return ""
	}
	return *d.config.Output
}
