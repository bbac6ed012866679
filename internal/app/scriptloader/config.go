// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scriptloader

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config implements the configuration.
type Config struct {
	Fetcher    map[string]interface{}
	Engine     map[string]interface{}
	Document   map[string]interface{}
	Loader     map[string]interface{}
	parser     configParser
	osReadFile func(name string) ([]byte, error)
}

// configData implements the configuration sections shared by the parsers.
type configData struct {
	Fetcher  map[string]interface{} `json:"fetcher" yaml:"fetcher" toml:"fetcher"`
	Engine   map[string]interface{} `json:"engine" yaml:"engine" toml:"engine"`
	Document map[string]interface{} `json:"document" yaml:"document" toml:"document"`
	Loader   map[string]interface{} `json:"loader" yaml:"loader" toml:"loader"`
}

const (
	// DefaultConfigFile is the configuration file used when none is given.
	DefaultConfigFile string = "scriptloader.yaml"

	configTemplatesDir    string = "templates/init"
	configTemplateDefault string = "default"
)

// configOsReadFile redirects to os.ReadFile.
func configOsReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// newConfig creates a new config.
func newConfig(parser configParser) *Config {
	return &Config{
		parser:     parser,
		osReadFile: configOsReadFile,
	}
}

// configParser is the interface of a configuration parser.
type configParser interface {
	parse(data []byte, c *Config) error
}

// configParserYAML implements the YAML configuration parser.
type configParserYAML struct {
	yamlUnmarshal func(in []byte, out interface{}) error
}

// newConfigParserYAML creates a new YAML config parser.
func newConfigParserYAML() *configParserYAML {
	return &configParserYAML{
		yamlUnmarshal: yaml.Unmarshal,
	}
}

// parse parses the YAML data.
func (p *configParserYAML) parse(data []byte, c *Config) error {
	var d configData
	if err := p.yamlUnmarshal(data, &d); err != nil {
		return err
	}
	d.apply(c)

	return nil
}

var _ configParser = (*configParserYAML)(nil)

// configParserTOML implements the TOML configuration parser.
type configParserTOML struct {
	tomlUnmarshal func(in []byte, out interface{}) error
}

// newConfigParserTOML creates a new TOML config parser.
func newConfigParserTOML() *configParserTOML {
	return &configParserTOML{
		tomlUnmarshal: toml.Unmarshal,
	}
}

// parse parses the TOML data.
func (p *configParserTOML) parse(data []byte, c *Config) error {
	var d configData
	if err := p.tomlUnmarshal(data, &d); err != nil {
		return err
	}
	d.apply(c)

	return nil
}

var _ configParser = (*configParserTOML)(nil)

// configParserJSON implements the JSON configuration parser.
type configParserJSON struct {
	jsonUnmarshal func(in []byte, out interface{}) error
}

// newConfigParserJSON creates a new JSON config parser.
func newConfigParserJSON() *configParserJSON {
	return &configParserJSON{
		jsonUnmarshal: json.Unmarshal,
	}
}

// parse parses the JSON data.
func (p *configParserJSON) parse(data []byte, c *Config) error {
	var d configData
	if err := p.jsonUnmarshal(data, &d); err != nil {
		return err
	}
	d.apply(c)

	return nil
}

var _ configParser = (*configParserJSON)(nil)

// apply copies the sections to the configuration.
func (d *configData) apply(c *Config) {
	c.Fetcher = d.Fetcher
	c.Engine = d.Engine
	c.Document = d.Document
	c.Loader = d.Loader
}

// newConfigForFile creates a config with the parser matching the file
// extension.
func newConfigForFile(name string) (*Config, error) {
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return newConfig(newConfigParserYAML()), nil
	case ".toml":
		return newConfig(newConfigParserTOML()), nil
	case ".json":
		return newConfig(newConfigParserJSON()), nil
	default:
		return nil, fmt.Errorf("invalid file extension '%s'", filepath.Ext(name))
	}
}

// LoadConfig loads the configuration file. The default file is used if name
// is empty.
func LoadConfig(name string) (*Config, error) {
	if name == "" {
		name = DefaultConfigFile
	}

	c, err := newConfigForFile(name)
	if err != nil {
		return nil, err
	}
	data, err := c.osReadFile(name)
	if err != nil {
		return nil, err
	}
	if err := c.parser.parse(data, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	return c, nil
}

//go:embed templates/init/*
var configTemplatesInit embed.FS

// Templates returns the names of the init templates.
func Templates() []string {
	entries, err := fs.ReadDir(configTemplatesInit, configTemplatesDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

// GenerateConfig writes the configuration file and the files of the given
// template. The other template files are written in the directory of the
// configuration file. An existing configuration file is never overwritten.
func GenerateConfig(name string, template string) ([]string, error) {
	if name == "" {
		name = DefaultConfigFile
	}
	if template == "" {
		template = configTemplateDefault
	}
	if filepath.Ext(name) != ".yaml" {
		return nil, fmt.Errorf("invalid file extension '%s'", filepath.Ext(name))
	}

	if _, err := os.Stat(name); err == nil {
		return nil, fmt.Errorf("configuration file '%s' already exists", name)
	}

	root := path.Join(configTemplatesDir, template)
	if fi, err := fs.Stat(configTemplatesInit, root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("unknown template '%s'", template)
	}

	dir := filepath.Dir(name)
	var files []string
	err := fs.WalkDir(configTemplatesInit, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		data, err := fs.ReadFile(configTemplatesInit, p)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, rel)
		if rel == DefaultConfigFile {
			dst = name
		} else if _, err := os.Stat(dst); err == nil {
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return err
		}
		files = append(files, dst)

		return nil
	})
	if err != nil {
		return files, errors.New("failed to process template")
	}

	return files, nil
}
