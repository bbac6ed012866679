// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scriptloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/log"
	"github.com/bhuisgen/scriptloader/pkg/module"
)

// fetcher implements the fetcher.
type fetcher struct {
	config *fetcherConfig
	logger *slog.Logger
	state  *fetcherState
	mu     sync.RWMutex
}

// fetcherConfig implements the fetcher configuration.
type fetcherConfig struct {
	Providers map[string]map[string]map[string]interface{} `mapstructure:"providers"`
	Schemes   map[string]string                            `mapstructure:"schemes"`
}

// fetcherState implements the fetcher state.
type fetcherState struct {
	providers map[string]core.FetcherProviderModule
	schemes   map[string]string
}

const (
	fetcherLogger string = "fetcher"

	fetcherProviderNamespace string = "fetcher.provider"
)

// fetcherDefaultProviders are the providers used when none is configured.
var fetcherDefaultProviders = map[string]map[string]map[string]interface{}{
	"local":  {"file": {}},
	"remote": {"http": {}},
}

// fetcherModuleSchemes are the schemes served by default by a provider module.
var fetcherModuleSchemes = map[string][]string{
	"file": {"", "file"},
	"http": {"http", "https"},
}

// newFetcher creates a new fetcher.
func newFetcher() *fetcher {
	return &fetcher{
		logger: log.New(fetcherLogger),
		state: &fetcherState{
			providers: make(map[string]core.FetcherProviderModule),
			schemes:   make(map[string]string),
		},
	}
}

// Init initializes the fetcher.
func (f *fetcher) Init(config map[string]interface{}) error {
	if config == nil {
		f.config = &fetcherConfig{}
	} else {
		if err := mapstructure.Decode(config, &f.config); err != nil {
			f.logger.Error("Failed to parse configuration", "err", err)
			return fmt.Errorf("parse config: %w", err)
		}
	}
	if len(f.config.Providers) == 0 {
		f.config.Providers = fetcherDefaultProviders
	}

	var errInit bool

	modules := make(map[string]string)
	for _, provider := range sortedKeys(f.config.Providers) {
		providerConfig := f.config.Providers[provider]
		if len(providerConfig) != 1 {
			f.logger.Error("Invalid provider, a single module is required", "provider", provider)
			errInit = true
			continue
		}
		for moduleName, moduleConfig := range providerConfig {
			moduleInfo, err := module.Lookup(module.ModuleID(fetcherProviderNamespace + "." + moduleName))
			if err != nil {
				f.logger.Error("Unregistered provider module", "provider", provider, "module", moduleName, "err", err)
				errInit = true
				continue
			}
			module, ok := moduleInfo.NewInstance().(core.FetcherProviderModule)
			if !ok {
				err := errors.New("module instance not valid")
				f.logger.Error("Invalid provider module", "provider", provider, "module", moduleName, "err", err)
				errInit = true
				continue
			}

			if moduleConfig == nil {
				moduleConfig = map[string]interface{}{}
			}
			if err := module.Init(moduleConfig, log.New(fetcherLogger).With("provider", provider)); err != nil {
				f.logger.Error("Failed to init provider module", "provider", provider, "module", moduleName, "err", err)
				errInit = true
				continue
			}

			f.state.providers[provider] = module
			modules[provider] = moduleName
		}
	}

	if len(f.config.Schemes) == 0 {
		for _, provider := range sortedKeys(modules) {
			for _, scheme := range fetcherModuleSchemes[modules[provider]] {
				if _, ok := f.state.schemes[scheme]; !ok {
					f.state.schemes[scheme] = provider
				}
			}
		}
	}
	for scheme, provider := range f.config.Schemes {
		if _, ok := f.config.Providers[provider]; !ok {
			f.logger.Error("Unknown provider", "option", "Schemes", "scheme", scheme, "provider", provider)
			errInit = true
			continue
		}
		f.state.schemes[strings.ToLower(scheme)] = provider
	}

	if errInit {
		return errors.New("init error")
	}

	return nil
}

// Fetch fetches the resource with the provider of the locator scheme.
func (f *fetcher) Fetch(ctx context.Context, locator string) (*core.Resource, error) {
	scheme := locatorScheme(locator)

	f.mu.RLock()
	name, ok := f.state.schemes[scheme]
	var provider core.FetcherProviderModule
	if ok {
		provider, ok = f.state.providers[name]
	}
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider for scheme '%s'", scheme)
	}

	f.logger.Debug("Fetching resource", "locator", locator, "provider", name)

	resource, err := provider.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	return resource, nil
}

// locatorScheme returns the lowercase scheme of the locator, or an empty
// string for a path.
func locatorScheme(locator string) string {
	u, err := url.Parse(locator)
	if err != nil || len(u.Scheme) < 2 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// sortedKeys returns the sorted keys of a map.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ core.Fetcher = (*fetcher)(nil)
