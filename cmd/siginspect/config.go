// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/siginspect/internal/errors"
	"github.com/kraklabs/siginspect/pkg/inspect"
)

// DefaultConfigFile is looked up in the working directory when --config is
// not given.
const DefaultConfigFile = ".siginspect.yaml"

// Config is the contents of .siginspect.yaml.
type Config struct {
	// Output is the default output format: text, json or yaml.
	Output  string       `yaml:"output"`
	NoColor bool         `yaml:"no_color"`
	Schema  SchemaConfig `yaml:"schema"`
	Source  SourceConfig `yaml:"source"`
}

// SchemaConfig tunes JSON schema generation.
type SchemaConfig struct {
	// FallbackType is used for parameters whose annotation has no JSON type.
	FallbackType string `yaml:"fallback_type"`
	// SkipParams replaces the default receiver names (self, cls).
	SkipParams []string `yaml:"skip_params"`
	// Metadata controls the x-function-metadata block. Defaults to true.
	Metadata *bool `yaml:"metadata"`
}

// SourceConfig limits source loading.
type SourceConfig struct {
	// MaxBytes is the largest file parsed; SIGINSPECT_MAX_SOURCE_BYTES wins.
	MaxBytes int64 `yaml:"max_bytes"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig reads the configuration at path. An empty path selects
// DefaultConfigFile, which may be absent; an explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, errors.NewConfigError(
			"Cannot open siginspect configuration",
			fmt.Sprintf("Reading %s failed", path),
			"Check the --config path",
			err,
		)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.NewConfigError(
			"Invalid siginspect configuration",
			fmt.Sprintf("%s is not a valid configuration file", path),
			"Fix the YAML syntax; known keys are output, no_color, schema and source",
			err,
		)
	}
	if cfg.Source.MaxBytes < 0 {
		return nil, errors.NewConfigError(
			"Invalid siginspect configuration",
			"source.max_bytes must not be negative",
			"Remove the key to use the default limit",
			nil,
		)
	}
	return cfg, nil
}

// SchemaOptions converts the schema section into inspect options.
func (c *Config) SchemaOptions() []inspect.SchemaOption {
	var opts []inspect.SchemaOption
	if c.Schema.FallbackType != "" {
		opts = append(opts, inspect.WithFallbackType(c.Schema.FallbackType))
	}
	if c.Schema.SkipParams != nil {
		opts = append(opts, inspect.WithSkipParams(c.Schema.SkipParams...))
	}
	if c.Schema.Metadata != nil && !*c.Schema.Metadata {
		opts = append(opts, inspect.WithoutMetadata())
	}
	return opts
}
