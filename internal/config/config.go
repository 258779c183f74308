// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package config loads layered configuration: struct defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Database   DatabaseConfig   `koanf:"database"`
	Simulation SimulationConfig `koanf:"simulation"`
	Scanner    ScannerConfig    `koanf:"scanner"`
	Generation GenerationConfig `koanf:"generation"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// DatabaseConfig configures the embedded store.
type DatabaseConfig struct {
	// Path is the BadgerDB directory. Empty selects an in-memory store.
	Path string `koanf:"path"`

	// GCInterval is the value-log garbage collection cadence.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SimulationConfig configures the crisis engine.
type SimulationConfig struct {
	// Seed drives all stochastic decisions. 0 means derive from clock.
	Seed int64 `koanf:"seed"`

	// Acceleration is the initial time acceleration factor (1-100).
	Acceleration float64 `koanf:"acceleration"`

	// AutoAdvance enables timer-driven phase progression.
	AutoAdvance bool `koanf:"auto_advance"`

	// Population sizes for the synthetic user base seeded at startup.
	Population PopulationConfig `koanf:"population"`
}

// PopulationConfig sizes the synthetic population. Exactly one official
// responder is always created; it is not configurable.
type PopulationConfig struct {
	Organic     int `koanf:"organic"`
	Amplifiers  int `koanf:"amplifiers"`
	Influencers int `koanf:"influencers"`
}

// ScannerConfig configures the threat scan schedule.
type ScannerConfig struct {
	// Interval is the scan cadence.
	Interval time.Duration `koanf:"interval"`

	// EngagementFloor is the minimum interactions for scan admission.
	EngagementFloor int64 `koanf:"engagement_floor"`

	// Staleness re-admits items whose last evaluation is older than this.
	Staleness time.Duration `koanf:"staleness"`

	// Backoff are the retry waits for failed scan jobs.
	Backoff []time.Duration `koanf:"backoff"`

	// QueueSize bounds pending scan triggers.
	QueueSize int `koanf:"queue_size"`
}

// GenerationConfig configures content generation.
type GenerationConfig struct {
	// Provider selects the primary generator. "template" uses the built-in
	// template pool with no external dependency.
	Provider string `koanf:"provider"`

	// Language is the content language tag.
	Language string `koanf:"language"`
}

// defaultConfig returns the defaults applied before file and env layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:       "/data/infodemic",
			GCInterval: 5 * time.Minute,
		},
		Simulation: SimulationConfig{
			Seed:         0,
			Acceleration: 1.0,
			AutoAdvance:  true,
			Population: PopulationConfig{
				Organic:     40,
				Amplifiers:  6,
				Influencers: 3,
			},
		},
		Scanner: ScannerConfig{
			Interval:        10 * time.Second,
			EngagementFloor: 10,
			Staleness:       time.Minute,
			Backoff:         []time.Duration{30 * time.Second, 5 * time.Minute},
			QueueSize:       4,
		},
		Generation: GenerationConfig{
			Provider: "template",
			Language: "en",
		},
	}
}

// Validate checks configuration invariants. All failures wrap
// models.ErrValidation.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", models.ErrValidation, c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging.format %q must be json or console", models.ErrValidation, c.Logging.Format)
	}
	if c.Simulation.Acceleration < 1.0 || c.Simulation.Acceleration > 100.0 {
		return fmt.Errorf("%w: simulation.acceleration %.1f out of range 1-100", models.ErrValidation, c.Simulation.Acceleration)
	}
	if c.Simulation.Population.Organic < 0 || c.Simulation.Population.Amplifiers < 0 || c.Simulation.Population.Influencers < 0 {
		return fmt.Errorf("%w: population sizes must be non-negative", models.ErrValidation)
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("%w: scanner.interval must be positive", models.ErrValidation)
	}
	if c.Scanner.EngagementFloor < 0 {
		return fmt.Errorf("%w: scanner.engagement_floor must be non-negative", models.ErrValidation)
	}
	if c.Scanner.QueueSize < 1 {
		return fmt.Errorf("%w: scanner.queue_size must be at least 1", models.ErrValidation)
	}
	switch c.Generation.Provider {
	case "template":
	default:
		return fmt.Errorf("%w: generation.provider %q is unknown", models.ErrValidation, c.Generation.Provider)
	}
	return nil
}
