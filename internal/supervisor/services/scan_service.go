// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package services

import (
	"context"
)

// ScanScheduler matches the scanner.Worker lifecycle.
type ScanScheduler interface {
	Start(ctx context.Context) error
	Stop()
}

// ScanService runs the scan scheduler under supervision. The scheduler owns
// its own loop goroutine; this wrapper starts it, blocks until the context
// is canceled, and stops it on the way out.
type ScanService struct {
	scheduler ScanScheduler
	name      string
}

// NewScanService creates a scan scheduler service wrapper.
func NewScanService(scheduler ScanScheduler) *ScanService {
	return &ScanService{
		scheduler: scheduler,
		name:      "scan-scheduler",
	}
}

// Serve implements suture.Service.
func (s *ScanService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it to identify the service.
func (s *ScanService) String() string {
	return s.name
}
