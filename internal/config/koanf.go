// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/infodemic/config.yaml",
	"/etc/infodemic/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "INFODEMIC_CONFIG"

// envPrefix namespaces all environment overrides.
const envPrefix = "INFODEMIC_"

// Load builds the configuration from defaults, an optional YAML file, and
// INFODEMIC_* environment variables, in ascending priority.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile builds the configuration using an explicit config file path.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configSections are the top-level keys an env var can address.
var configSections = []string{
	"server",
	"logging",
	"database",
	"simulation",
	"scanner",
	"generation",
}

// envTransform maps INFODEMIC_* variable names to koanf paths:
//
//	INFODEMIC_SERVER_PORT            -> server.port
//	INFODEMIC_SCANNER_QUEUE_SIZE     -> scanner.queue_size
//	INFODEMIC_SIMULATION_AUTO_ADVANCE -> simulation.auto_advance
//
// The section name is split off first; the remainder keeps its underscores.
// Nested keys under simulation.population use a double underscore:
// INFODEMIC_SIMULATION_POPULATION__ORGANIC -> simulation.population.organic.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range configSections {
		if strings.HasPrefix(key, section+"_") {
			rest := strings.TrimPrefix(key, section+"_")
			rest = strings.ReplaceAll(rest, "__", ".")
			return section + "." + rest
		}
	}
	return ""
}
