// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector matches the store's value-log GC method.
type GarbageCollector interface {
	RunGC() error
}

// MaintenanceService runs store garbage collection on a fixed interval.
// A failed GC round is logged and retried on the next tick rather than
// crashing the service.
type MaintenanceService struct {
	gc       GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewMaintenanceService creates a store maintenance service.
func NewMaintenanceService(gc GarbageCollector, interval time.Duration, logger zerolog.Logger) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceService{
		gc:       gc,
		interval: interval,
		logger:   logger,
		name:     "store-maintenance",
	}
}

// Serve implements suture.Service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.gc.RunGC(); err != nil {
				m.logger.Warn().Err(err).Msg("store garbage collection failed")
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it to identify the service.
func (m *MaintenanceService) String() string {
	return m.name
}
