// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crisislab/infodemic/internal/logging"
)

type mockGC struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (m *mockGC) RunGC() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return m.err
}

func (m *mockGC) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func TestMaintenanceService_RunsOnInterval(t *testing.T) {
	gc := &mockGC{}
	svc := NewMaintenanceService(gc, 5*time.Millisecond, logging.NewTestLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if gc.count() == 0 {
		t.Error("no GC rounds ran")
	}
}

func TestMaintenanceService_GCErrorDoesNotStopService(t *testing.T) {
	gc := &mockGC{err: errors.New("value log busy")}
	svc := NewMaintenanceService(gc, 5*time.Millisecond, logging.NewTestLogger(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want deadline exceeded", err)
	}
	if gc.count() < 2 {
		t.Errorf("GC rounds = %d, want retries after failure", gc.count())
	}
}
