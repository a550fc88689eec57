// Copyright 2025 Clipstream, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config: this file implements the hierarchical configuration
// loader. It first reads a base configuration file and then overwrites
// values with a second, environment-specific file (e.g. .env.local.toml,
// .env.test.toml). The environment is determined by an environment variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Constants for configuration loading, primarily the file naming scheme and
// the environment variables that select the directory and runtime.
const (
	ConfigFileBaseName  = ".env"                  // The base name for configuration files (e.g. ".env.toml").
	ConfigFileExtension = ".toml"                 // The file extension for configuration files.
	ConfigSeparator     = "."                     // The separator used in config file names (e.g. ".env.local.toml").
	EnvConfigFilePrefix = "VIDEO_INDEXER_CONFIG_PREFIX" // Environment variable for the config directory.
	EnvConfigRuntime    = "VIDEO_INDEXER_RUNTIME"       // Environment variable for the runtime context (e.g. "local", "test", "prod").
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// Load returns the application configuration: built-in defaults, overlaid
// with the base TOML file, overlaid with the runtime-specific TOML file.
// Missing files are not an error; a malformed file is.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}

	runtime := os.Getenv(EnvConfigRuntime)
	if runtime == "" {
		runtime = "test"
	}

	baseFile := prefix + ConfigFileBaseName + ConfigFileExtension
	envFile := prefix + ConfigFileBaseName + ConfigSeparator + runtime + ConfigFileExtension

	if fileExists(baseFile) {
		if _, err := toml.DecodeFile(baseFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode base configuration file %s: %w", baseFile, err)
		}
	}

	// Values in the runtime file overwrite the values from the base config.
	if fileExists(envFile) {
		if _, err := toml.DecodeFile(envFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode environment configuration file %s: %w", envFile, err)
		}
	}

	return cfg, nil
}
