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
)

type mockScheduler struct {
	mu       sync.Mutex
	startErr error
	started  bool
	stopped  bool
}

func (m *mockScheduler) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

func (m *mockScheduler) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func TestScanService_StartAndStop(t *testing.T) {
	sched := &mockScheduler{}
	svc := NewScanService(sched)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	sched.mu.Lock()
	defer sched.mu.Unlock()
	if !sched.started || !sched.stopped {
		t.Errorf("(started, stopped) = (%v, %v), want (true, true)", sched.started, sched.stopped)
	}
}

func TestScanService_StartFailurePropagates(t *testing.T) {
	sched := &mockScheduler{startErr: errors.New("already started")}
	svc := NewScanService(sched)

	if err := svc.Serve(context.Background()); !errors.Is(err, sched.startErr) {
		t.Errorf("Serve returned %v, want start error", err)
	}
}

func TestScanService_String(t *testing.T) {
	if got := NewScanService(&mockScheduler{}).String(); got != "scan-scheduler" {
		t.Errorf("String() = %q", got)
	}
}
