// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crisislab/infodemic/internal/metrics"
)

// Runner is the work a scan job performs.
type Runner interface {
	Run(ctx context.Context) (RunStats, error)
}

// Job is one queued scan trigger.
type Job struct {
	ID         string    `json:"id"`
	Priority   bool      `json:"priority"` // administrative immediate trigger
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// DeadLetter is a job that exhausted its retries. It is kept for the
// operator view rather than silently dropped.
type DeadLetter struct {
	JobID     string    `json:"job_id"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}

// WorkerConfig tunes the scan scheduler.
type WorkerConfig struct {
	// Interval is the scan cadence.
	Interval time.Duration

	// Backoff are the waits before each retry; len(Backoff)+1 is the total
	// attempt cap.
	Backoff []time.Duration

	// QueueSize bounds pending jobs.
	QueueSize int
}

// DefaultWorkerConfig returns the standard schedule: a 10 second cadence
// and retries after 30 seconds and 5 minutes.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Interval:  10 * time.Second,
		Backoff:   []time.Duration{30 * time.Second, 5 * time.Minute},
		QueueSize: 4,
	}
}

// WorkerStats is a snapshot for the operator view.
type WorkerStats struct {
	Runs        int64        `json:"runs"`
	Failures    int64        `json:"failures"`
	Retries     int64        `json:"retries"`
	Paused      bool         `json:"paused"`
	LastRun     *time.Time   `json:"last_run,omitempty"`
	LastStats   RunStats     `json:"last_stats"`
	DeadLetters []DeadLetter `json:"dead_letters"`
}

// Worker triggers the scan pipeline on a cadence and on demand. Jobs are
// processed with concurrency 1; no two scans ever run simultaneously.
type Worker struct {
	runner Runner
	cfg    WorkerConfig
	logger zerolog.Logger

	jobs   chan Job
	stopCh chan struct{}
	doneCh chan struct{}

	mu          sync.Mutex
	running     bool
	paused      bool
	runs        int64
	failures    int64
	retries     int64
	lastRun     *time.Time
	lastStats   RunStats
	deadLetters []DeadLetter
}

// NewWorker creates a scan worker.
func NewWorker(runner Runner, cfg WorkerConfig, logger zerolog.Logger) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &Worker{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan Job, cfg.QueueSize),
	}
}

// Start launches the scheduler loop. It returns immediately; Stop shuts the
// loop down and waits for an in-flight job to finish.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker already started")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Stop halts scheduling. The in-flight job, if any, completes.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
}

// Pause stops cadence-driven jobs. Explicit triggers still enqueue.
func (w *Worker) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = true
}

// Resume re-enables cadence-driven jobs.
func (w *Worker) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = false
}

// Paused reports whether the cadence is paused.
func (w *Worker) Paused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paused
}

// TriggerNow enqueues an immediate high-priority run. Returns an error when
// the queue is full.
func (w *Worker) TriggerNow() error {
	job := Job{ID: uuid.New().String(), Priority: true, EnqueuedAt: time.Now()}
	select {
	case w.jobs <- job:
		return nil
	default:
		return fmt.Errorf("scan queue full")
	}
}

// Stats returns an operator snapshot including dead-lettered jobs.
func (w *Worker) Stats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	letters := make([]DeadLetter, len(w.deadLetters))
	copy(letters, w.deadLetters)
	return WorkerStats{
		Runs:        w.runs,
		Failures:    w.failures,
		Retries:     w.retries,
		Paused:      w.paused,
		LastRun:     w.lastRun,
		LastStats:   w.lastStats,
		DeadLetters: letters,
	}
}

// loop owns all job execution; running everything on one goroutine is what
// guarantees single concurrency.
func (w *Worker) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.runJob(ctx, job)
		case <-ticker.C:
			if w.Paused() {
				continue
			}
			w.runJob(ctx, Job{ID: uuid.New().String(), EnqueuedAt: time.Now()})
		}
	}
}

// runJob executes one job with escalating backoff: an immediate attempt,
// then one after each configured wait. Exhausted jobs are dead-lettered.
func (w *Worker) runJob(ctx context.Context, job Job) {
	maxAttempts := len(w.cfg.Backoff) + 1
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if !w.wait(ctx, w.cfg.Backoff[attempt-1]) {
				return
			}
			metrics.ScanRetries.Inc()
			w.mu.Lock()
			w.retries++
			w.mu.Unlock()
		}

		stats, err := w.runner.Run(ctx)
		now := time.Now()

		w.mu.Lock()
		w.runs++
		w.lastRun = &now
		if err == nil {
			w.lastStats = stats
		} else {
			w.failures++
		}
		w.mu.Unlock()

		if err == nil {
			return
		}
		lastErr = err
		w.logger.Warn().
			Err(err).
			Str("job_id", job.ID).
			Int("attempt", attempt+1).
			Msg("scan job failed")
	}

	metrics.ScanDeadLetters.Inc()
	w.mu.Lock()
	w.deadLetters = append(w.deadLetters, DeadLetter{
		JobID:     job.ID,
		Attempts:  maxAttempts,
		LastError: lastErr.Error(),
		FailedAt:  time.Now(),
	})
	w.mu.Unlock()

	w.logger.Error().
		Err(lastErr).
		Str("job_id", job.ID).
		Int("attempts", maxAttempts).
		Msg("scan job dead-lettered")
}

// wait sleeps for d, abandoning the wait on stop or context cancellation.
func (w *Worker) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-w.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
