// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Port != 8787 {
		t.Errorf("Server.Port = %d, want 8787", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8787" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if cfg.Scanner.Interval != 10*time.Second {
		t.Errorf("Scanner.Interval = %v, want 10s", cfg.Scanner.Interval)
	}
	if len(cfg.Scanner.Backoff) != 2 {
		t.Errorf("Scanner.Backoff = %v, want two retries", cfg.Scanner.Backoff)
	}
	if cfg.Simulation.Acceleration != 1.0 || !cfg.Simulation.AutoAdvance {
		t.Errorf("Simulation = %+v, want 1x with auto-advance", cfg.Simulation)
	}
	if cfg.Simulation.Population.Organic == 0 {
		t.Error("default population has no organic users")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
logging:
  level: debug
  format: console
simulation:
  acceleration: 25
scanner:
  interval: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Simulation.Acceleration != 25 {
		t.Errorf("Acceleration = %v, want 25", cfg.Simulation.Acceleration)
	}
	if cfg.Scanner.Interval != 30*time.Second {
		t.Errorf("Scanner.Interval = %v, want 30s", cfg.Scanner.Interval)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.GCInterval != 5*time.Minute {
		t.Errorf("Database.GCInterval = %v, want default", cfg.Database.GCInterval)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("INFODEMIC_SERVER_PORT", "7070")
	t.Setenv("INFODEMIC_SCANNER_QUEUE_SIZE", "8")
	t.Setenv("INFODEMIC_SIMULATION_POPULATION__ORGANIC", "12")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Scanner.QueueSize != 8 {
		t.Errorf("Scanner.QueueSize = %d, want 8", cfg.Scanner.QueueSize)
	}
	if cfg.Simulation.Population.Organic != 12 {
		t.Errorf("Population.Organic = %d, want 12", cfg.Simulation.Population.Organic)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 0\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"acceleration too high", "simulation:\n  acceleration: 500\n"},
		{"zero scan interval", "scanner:\n  interval: 0s\n"},
		{"unknown provider", "generation:\n  provider: quantum\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := LoadFile(path)
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("LoadFile error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INFODEMIC_SERVER_PORT", "server.port"},
		{"INFODEMIC_SCANNER_QUEUE_SIZE", "scanner.queue_size"},
		{"INFODEMIC_SIMULATION_AUTO_ADVANCE", "simulation.auto_advance"},
		{"INFODEMIC_SIMULATION_POPULATION__ORGANIC", "simulation.population.organic"},
		{"INFODEMIC_UNKNOWN_SECTION", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
