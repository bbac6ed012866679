// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/module"
)

// fileProvider implements the file provider.
type fileProvider struct {
	config     *fileProviderConfig
	logger     *slog.Logger
	osStat     func(name string) (fs.FileInfo, error)
	osReadFile func(name string) ([]byte, error)
}

// fileProviderConfig implements the file provider configuration.
type fileProviderConfig struct {
	Root *string `mapstructure:"root"`
}

const (
	fileModuleID module.ModuleID = "fetcher.provider.file"

	fileScheme string = "file"
)

// fileOsStat redirects to os.Stat.
func fileOsStat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// fileOsReadFile redirects to os.ReadFile.
func fileOsReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// init initializes the module.
func init() {
	module.Register(fileProvider{})
}

// ModuleInfo returns the module information.
func (p fileProvider) ModuleInfo() module.ModuleInfo {
	return module.ModuleInfo{
		ID: fileModuleID,
		NewInstance: func() module.Module {
			return &fileProvider{
				osStat:     fileOsStat,
				osReadFile: fileOsReadFile,
			}
		},
	}
}

// Init initializes the provider.
func (p *fileProvider) Init(config map[string]interface{}, logger *slog.Logger) error {
	p.logger = logger

	if err := mapstructure.Decode(config, &p.config); err != nil {
		p.logger.Error("Failed to parse configuration", "err", err)
		return fmt.Errorf("parse config: %w", err)
	}
	if p.config == nil {
		p.config = &fileProviderConfig{}
	}

	var errInit bool

	if p.config.Root != nil {
		if *p.config.Root == "" {
			p.logger.Error("Invalid value", "option", "Root", "value", *p.config.Root)
			errInit = true
		} else {
			fi, err := p.osStat(*p.config.Root)
			if err != nil {
				p.logger.Error("Failed to stat directory", "option", "Root", "value", *p.config.Root)
				errInit = true
			} else if !fi.IsDir() {
				p.logger.Error("File is not a directory", "option", "Root", "value", *p.config.Root)
				errInit = true
			}
		}
	}

	if errInit {
		return errors.New("init error")
	}

	return nil
}

// Fetch reads the file identified by the given locator, a path or a file
// URL. Relative paths are resolved from the root directory if set.
func (p *fileProvider) Fetch(ctx context.Context, locator string) (*core.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := p.path(locator)
	if err != nil {
		return nil, err
	}

	data, err := p.osReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	p.logger.Debug("File read", "locator", locator, "path", path, "size", len(data))

	return &core.Resource{
		Locator: locator,
		Data:    data,
		Type:    mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

// path returns the file path of a locator.
func (p *fileProvider) path(locator string) (string, error) {
	path := locator
	if strings.HasPrefix(locator, fileScheme+":") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("parse locator %s: %w", locator, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("invalid locator %s: remote host %s", locator, u.Host)
		}
		path = u.Path
		if path == "" {
			path = u.Opaque
		}
	}
	if path == "" {
		return "", fmt.Errorf("invalid locator %q: empty path", locator)
	}

	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) && p.config != nil && p.config.Root != nil {
		path = filepath.Join(*p.config.Root, path)
	}

	return path, nil
}

var _ core.FetcherProviderModule = (*fileProvider)(nil)
