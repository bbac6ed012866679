// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/bhuisgen/scriptloader/pkg/module"
)

// httpProvider implements the http provider.
type httpProvider struct {
	config             *httpProviderConfig
	logger             *slog.Logger
	client             *http.Client
	osStat             func(name string) (fs.FileInfo, error)
	osReadFile         func(name string) ([]byte, error)
	tlsLoadX509KeyPair func(certFile, keyFile string) (tls.Certificate, error)
	httpClientDo       func(client *http.Client, req *http.Request) (*http.Response, error)
}

// httpProviderConfig implements the http provider configuration.
type httpProviderConfig struct {
	Timeout *int              `mapstructure:"timeout"`
	MaxSize *int64            `mapstructure:"maxSize"`
	TLS     *httpTLSConfig    `mapstructure:"tls"`
	Headers map[string]string `mapstructure:"headers"`
	Params  map[string]string `mapstructure:"params"`
}

// httpTLSConfig implements the TLS configuration of the client.
type httpTLSConfig struct {
	CAFiles      []string             `mapstructure:"caFiles"`
	Certificates []httpTLSCertificate `mapstructure:"certificates"`
}

// httpTLSCertificate implements a client certificate.
type httpTLSCertificate struct {
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

const (
	httpModuleID module.ModuleID = "fetcher.provider.http"

	httpConfigDefaultTimeout int   = 30
	httpConfigDefaultMaxSize int64 = 10 << 20
)

// httpOsStat redirects to os.Stat.
func httpOsStat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// httpOsReadFile redirects to os.ReadFile.
func httpOsReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// httpTLSLoadX509KeyPair redirects to tls.LoadX509KeyPair.
func httpTLSLoadX509KeyPair(certFile string, keyFile string) (tls.Certificate, error) {
	return tls.LoadX509KeyPair(certFile, keyFile)
}

// httpHttpClientDo redirects to http.Client.Do.
func httpHttpClientDo(client *http.Client, req *http.Request) (*http.Response, error) {
	return client.Do(req)
}

// init initializes the module.
func init() {
	module.Register(httpProvider{})
}

// ModuleInfo returns the module information.
func (p httpProvider) ModuleInfo() module.ModuleInfo {
	return module.ModuleInfo{
		ID: httpModuleID,
		NewInstance: func() module.Module {
			return &httpProvider{
				osStat:             httpOsStat,
				osReadFile:         httpOsReadFile,
				tlsLoadX509KeyPair: httpTLSLoadX509KeyPair,
				httpClientDo:       httpHttpClientDo,
			}
		},
	}
}

// Init initializes the provider.
func (p *httpProvider) Init(config map[string]interface{}, logger *slog.Logger) error {
	p.logger = logger

	if err := mapstructure.Decode(config, &p.config); err != nil {
		p.logger.Error("Failed to parse configuration", "err", err)
		return fmt.Errorf("parse config: %w", err)
	}
	if p.config == nil {
		p.config = &httpProviderConfig{}
	}

	var errInit bool

	if p.config.Timeout == nil {
		defaultValue := httpConfigDefaultTimeout
		p.config.Timeout = &defaultValue
	}
	if *p.config.Timeout < 0 {
		p.logger.Error("Invalid value", "option", "Timeout", "value", *p.config.Timeout)
		errInit = true
	}
	if p.config.MaxSize == nil {
		defaultValue := httpConfigDefaultMaxSize
		p.config.MaxSize = &defaultValue
	}
	if *p.config.MaxSize <= 0 {
		p.logger.Error("Invalid value", "option", "MaxSize", "value", *p.config.MaxSize)
		errInit = true
	}
	if _, ok := p.config.Headers[""]; ok {
		p.logger.Error("Invalid key", "option", "Headers", "key", "")
		errInit = true
	}
	if _, ok := p.config.Params[""]; ok {
		p.logger.Error("Invalid key", "option", "Params", "key", "")
		errInit = true
	}

	tlsConfig, err := p.tlsConfig()
	if err != nil {
		p.logger.Error("Invalid TLS configuration", "err", err)
		errInit = true
	}

	if errInit {
		return errors.New("init error")
	}

	p.client = &http.Client{
		Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			TLSClientConfig:   tlsConfig,
			ForceAttemptHTTP2: true,
		},
		Timeout: time.Duration(*p.config.Timeout) * time.Second,
	}

	return nil
}

// tlsConfig builds the client TLS configuration from the CA files and the
// client certificates.
func (p *httpProvider) tlsConfig() (*tls.Config, error) {
	config := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if p.config.TLS == nil {
		return config, nil
	}

	if len(p.config.TLS.CAFiles) > 0 {
		pool := x509.NewCertPool()
		for _, name := range p.config.TLS.CAFiles {
			if err := p.checkFile(name); err != nil {
				return nil, err
			}
			pem, err := p.osReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("read CA file %s: %w", name, err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificate in CA file %s", name)
			}
		}
		config.RootCAs = pool
	}

	for _, c := range p.config.TLS.Certificates {
		if err := p.checkFile(c.CertFile); err != nil {
			return nil, err
		}
		if err := p.checkFile(c.KeyFile); err != nil {
			return nil, err
		}
		cert, err := p.tlsLoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load certificate %s: %w", c.CertFile, err)
		}
		config.Certificates = append(config.Certificates, cert)
	}

	return config, nil
}

// checkFile checks that name is an existing regular file.
func (p *httpProvider) checkFile(name string) error {
	if name == "" {
		return errors.New("empty file name")
	}
	fi, err := p.osStat(name)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", name)
	}
	return nil
}

// Fetch gets the script at the given URL. Only a 2xx response is a success.
func (p *httpProvider) Fetch(ctx context.Context, locator string) (*core.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, fmt.Errorf("invalid locator %s: unsupported scheme %q", locator, req.URL.Scheme)
	}
	if len(p.config.Params) > 0 {
		query := req.URL.Query()
		for key, value := range p.config.Params {
			query.Set(key, value)
		}
		req.URL.RawQuery = query.Encode()
	}
	for key, value := range p.config.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	response, err := p.httpClientDo(p.client, req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %d for %s", response.StatusCode, locator)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, *p.config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > *p.config.MaxSize {
		return nil, fmt.Errorf("response of %s exceeds %d bytes", locator, *p.config.MaxSize)
	}

	p.logger.Debug("Script fetched", "url", req.URL.String(), "size", len(body),
		"duration", time.Since(start))

	return &core.Resource{
		Locator: locator,
		Data:    body,
		Type:    response.Header.Get("Content-Type"),
	}, nil
}

var _ core.FetcherProviderModule = (*httpProvider)(nil)
