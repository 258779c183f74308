// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/crisislab/infodemic/internal/metrics"
	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/scanner"
	"github.com/crisislab/infodemic/internal/simulation"
	"github.com/crisislab/infodemic/internal/store"
)

// CrisisController is the orchestrator surface the API exposes.
type CrisisController interface {
	Start(ctx context.Context, crisisType models.CrisisType) (*models.Crisis, error)
	Stop(ctx context.Context) error
	Pause()
	Resume(ctx context.Context) error
	SetAcceleration(ctx context.Context, factor float64) error
	Acceleration() float64
	SetAutoAdvance(ctx context.Context, enabled bool)
	Paused() bool
	ProgressToNextPhase(ctx context.Context) (*models.Crisis, error)
	SetPhase(ctx context.Context, phase models.CrisisPhase) (*models.Crisis, error)
	Active(ctx context.Context) (*models.Crisis, error)
}

// Forecaster projects content spread for analytics views.
type Forecaster interface {
	Forecast(ctx context.Context, crisisID string, horizonMinutes int) (*simulation.Forecast, error)
}

// ScanController is the scan scheduler surface the API exposes.
type ScanController interface {
	TriggerNow() error
	Pause()
	Resume()
	Paused() bool
	Stats() scanner.WorkerStats
}

// Handler holds the dependencies for all admin endpoints.
type Handler struct {
	orchestrator CrisisController
	forecaster   Forecaster
	scans        ScanController
	store        store.Store
	logger       zerolog.Logger
}

// NewHandler creates the admin API handler.
func NewHandler(orch CrisisController, forecaster Forecaster, scans ScanController, st store.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		orchestrator: orch,
		forecaster:   forecaster,
		scans:        scans,
		store:        st,
		logger:       logger,
	}
}

// Health reports liveness and whether a crisis is running.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	active := false
	if _, err := h.orchestrator.Active(r.Context()); err == nil {
		active = true
	}
	rw.Success(map[string]interface{}{
		"status":        "ok",
		"crisis_active": active,
	})
}

// StartCrisis begins a new crisis scenario. A crisis already in progress is
// ended first.
func (h *Handler) StartCrisis(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	var req StartCrisisRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	crisis, err := h.orchestrator.Start(r.Context(), models.CrisisType(req.Type))
	if err != nil && crisis == nil {
		rw.domainError(err)
		return
	}
	if err != nil {
		// The crisis started but its first phase misfired; the timeline
		// continues, so report the crisis and log the hiccup.
		h.logger.Warn().Err(err).Str("crisis_id", crisis.ID).Msg("initial phase execution failed")
	}
	rw.Created(crisis)
}

// StopCrisis ends the active crisis.
func (h *Handler) StopCrisis(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	if err := h.orchestrator.Stop(r.Context()); err != nil {
		rw.domainError(err)
		return
	}
	rw.NoContent()
}

// ActiveCrisis returns the crisis currently in progress.
func (h *Handler) ActiveCrisis(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	crisis, err := h.orchestrator.Active(r.Context())
	if err != nil {
		rw.domainError(err)
		return
	}
	rw.Success(crisis)
}

// PauseCrisis freezes the phase timeline.
func (h *Handler) PauseCrisis(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)
	h.orchestrator.Pause()
	rw.Success(map[string]bool{"paused": true})
}

// ResumeCrisis unfreezes the phase timeline.
func (h *Handler) ResumeCrisis(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	if err := h.orchestrator.Resume(r.Context()); err != nil {
		rw.domainError(err)
		return
	}
	rw.Success(map[string]bool{"paused": false})
}

// AdvancePhase moves the active crisis to its next phase immediately.
func (h *Handler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	crisis, err := h.orchestrator.ProgressToNextPhase(r.Context())
	if err != nil && crisis == nil {
		rw.domainError(err)
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("phase execution failed during manual advance")
	}
	rw.Success(crisis)
}

// SetPhase jumps the active crisis forward to a named phase.
func (h *Handler) SetPhase(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	var req SetPhaseRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	phase, err := models.ParsePhase(req.Phase)
	if err != nil {
		rw.domainError(err)
		return
	}

	crisis, err := h.orchestrator.SetPhase(r.Context(), phase)
	if err != nil && crisis == nil {
		rw.domainError(err)
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("phase", phase.String()).Msg("phase execution failed during jump")
	}
	rw.Success(crisis)
}

// SetAcceleration changes the time acceleration factor.
func (h *Handler) SetAcceleration(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	var req SetAccelerationRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if err := h.orchestrator.SetAcceleration(r.Context(), req.Factor); err != nil {
		rw.domainError(err)
		return
	}
	rw.Success(map[string]float64{"factor": req.Factor})
}

// GetAcceleration returns the current acceleration factor.
func (h *Handler) GetAcceleration(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)
	rw.Success(map[string]float64{"factor": h.orchestrator.Acceleration()})
}

// SetAutoAdvance toggles automatic phase progression.
func (h *Handler) SetAutoAdvance(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	var req AutoAdvanceRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	h.orchestrator.SetAutoAdvance(r.Context(), req.Enabled)
	rw.Success(map[string]bool{"enabled": req.Enabled})
}

// CrisisForecast projects the cascade of the most viral item in the active
// crisis. Query parameter: horizon (minutes, default 120).
func (h *Handler) CrisisForecast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	crisis, err := h.orchestrator.Active(r.Context())
	if err != nil {
		rw.domainError(err)
		return
	}
	forecast, err := h.forecaster.Forecast(r.Context(), crisis.ID, queryInt(r, "horizon", 120))
	if err != nil {
		rw.domainError(err)
		return
	}
	rw.Success(forecast)
}

// TriggerScan enqueues an immediate scan run.
func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	if err := h.scans.TriggerNow(); err != nil {
		rw.Conflict(err.Error())
		return
	}
	rw.Success(map[string]string{"status": "queued"})
}

// PauseScans stops cadence-driven scanning.
func (h *Handler) PauseScans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)
	h.scans.Pause()
	rw.Success(map[string]bool{"paused": true})
}

// ResumeScans re-enables cadence-driven scanning.
func (h *Handler) ResumeScans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)
	h.scans.Resume()
	rw.Success(map[string]bool{"paused": false})
}

// ScanStats returns the scheduler's operator snapshot, dead letters included.
func (h *Handler) ScanStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)
	rw.Success(h.scans.Stats())
}

// ListThreats returns threat records ordered by score descending.
// Query parameters: min_score, limit, addressed (true/false).
func (h *Handler) ListThreats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	filter := store.ThreatFilter{
		MinScore: queryFloat(r, "min_score", 0),
		Limit:    queryInt(r, "limit", 0),
	}
	if v := r.URL.Query().Get("addressed"); v == "true" || v == "false" {
		addressed := v == "true"
		filter.Addressed = &addressed
	}

	threats, err := h.store.ListThreats(r.Context(), filter)
	if err != nil {
		rw.domainError(err)
		return
	}
	rw.Success(map[string]interface{}{
		"threats": threats,
		"count":   len(threats),
	})
}

// GetThreat returns one threat record by ID.
func (h *Handler) GetThreat(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	record, err := h.store.GetThreat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.domainError(err)
		return
	}
	rw.Success(record)
}

// Reset clears all crisis data and returns the system to dormant. The
// synthetic population survives.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r, h.logger)

	if err := h.orchestrator.Stop(r.Context()); err != nil && !errors.Is(err, models.ErrNotFound) {
		rw.domainError(err)
		return
	}
	if err := h.store.Reset(r.Context()); err != nil {
		rw.domainError(err)
		return
	}
	metrics.ThreatsActive.Set(0)

	h.logger.Info().Msg("system reset to dormant")
	rw.Success(map[string]string{"status": "reset"})
}
