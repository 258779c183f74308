// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crisislab/infodemic/internal/events"
	"github.com/crisislab/infodemic/internal/metrics"
	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/store"
)

// Acceleration bounds.
const (
	MinAcceleration = 1.0
	MaxAcceleration = 100.0
)

// Orchestrator owns the crisis lifecycle: starting, stopping, pausing, time
// acceleration, and timer-driven phase auto-advance.
//
// It holds exactly one pending timer handle; every transition replaces it,
// so manual overrides and auto-advance can never stack timers.
type Orchestrator struct {
	store  store.Store
	engine *Engine
	bus    *events.Bus
	logger zerolog.Logger
	now    func() time.Time

	mu           sync.Mutex
	timer        *time.Timer
	acceleration float64
	autoAdvance  bool
	paused       bool
}

// NewOrchestrator creates an orchestrator with acceleration 1x and
// auto-advance enabled.
func NewOrchestrator(st store.Store, engine *Engine, bus *events.Bus, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:        st,
		engine:       engine,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
		acceleration: MinAcceleration,
		autoAdvance:  true,
	}
}

// Start begins a new crisis of the given type, entering the initial-spark
// phase. If a crisis is already active it is ended first, so at most one
// crisis is active after the call.
func (o *Orchestrator) Start(ctx context.Context, crisisType models.CrisisType) (*models.Crisis, error) {
	if !models.ValidCrisisType(crisisType) {
		return nil, fmt.Errorf("crisis type %q: %w", crisisType, models.ErrValidation)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if active, err := o.store.GetActiveCrisis(ctx); err == nil {
		if err := o.endCrisisLocked(ctx, active); err != nil {
			return nil, fmt.Errorf("end previous crisis: %w", err)
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("check active crisis: %w", err)
	}

	crisis := &models.Crisis{
		Type:         crisisType,
		CurrentPhase: models.PhaseInitialSpark,
		StartedAt:    o.now(),
	}
	if err := o.store.CreateCrisis(ctx, crisis); err != nil {
		return nil, fmt.Errorf("create crisis: %w", err)
	}
	if err := o.store.SetActiveCrisis(ctx, crisis.ID); err != nil {
		return nil, fmt.Errorf("set active crisis: %w", err)
	}

	metrics.CrisisActive.Set(1)
	metrics.RecordPhaseTransition(crisis.CurrentPhase.String())
	o.publish(ctx, events.TopicCrisisStarted, events.CrisisStarted{
		CrisisID:  crisis.ID,
		Type:      crisis.Type,
		StartedAt: crisis.StartedAt,
	})
	o.publish(ctx, events.TopicCrisisPhaseChanged, events.CrisisPhaseChanged{
		CrisisID: crisis.ID,
		From:     models.PhaseDormant,
		To:       crisis.CurrentPhase,
		At:       o.now(),
	})

	o.logger.Info().
		Str("crisis_id", crisis.ID).
		Str("type", string(crisis.Type)).
		Msg("crisis started")

	execErr := o.engine.ExecutePhase(ctx, crisis)
	o.armTimerLocked(crisis.CurrentPhase)
	if execErr != nil {
		return crisis, execErr
	}
	return crisis, nil
}

// Stop ends the active crisis: pending timers are cancelled and the crisis
// is marked ended and dormant.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	crisis, err := o.store.GetActiveCrisis(ctx)
	if err != nil {
		return err
	}
	return o.endCrisisLocked(ctx, crisis)
}

// Pause cancels the pending auto-advance timer. In-flight phase work
// completes; no new transitions are scheduled until Resume.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
	o.cancelTimerLocked()
}

// Resume re-arms the auto-advance timer for the current phase.
func (o *Orchestrator) Resume(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.paused {
		return nil
	}
	o.paused = false

	crisis, err := o.store.GetActiveCrisis(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}
	o.armTimerLocked(crisis.CurrentPhase)
	return nil
}

// SetAcceleration changes the time-acceleration factor, bounded 1-100. The
// timer for the current phase is re-armed at the new rate.
func (o *Orchestrator) SetAcceleration(ctx context.Context, factor float64) error {
	if factor < MinAcceleration || factor > MaxAcceleration {
		return fmt.Errorf("acceleration %v outside [%v, %v]: %w",
			factor, MinAcceleration, MaxAcceleration, models.ErrValidation)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.acceleration = factor

	if crisis, err := o.store.GetActiveCrisis(ctx); err == nil {
		o.armTimerLocked(crisis.CurrentPhase)
	}
	return nil
}

// Acceleration returns the current time-acceleration factor.
func (o *Orchestrator) Acceleration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acceleration
}

// SetAutoAdvance toggles timer-driven progression. When disabled, phases
// change only through ProgressToNextPhase or SetPhase.
func (o *Orchestrator) SetAutoAdvance(ctx context.Context, enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.autoAdvance = enabled
	if !enabled {
		o.cancelTimerLocked()
		return
	}
	if crisis, err := o.store.GetActiveCrisis(ctx); err == nil {
		o.armTimerLocked(crisis.CurrentPhase)
	}
}

// Paused reports whether auto-advance is paused.
func (o *Orchestrator) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// ProgressToNextPhase advances the active crisis to the next phase in the
// fixed forward order. Advancing out of resolution ends the crisis.
func (o *Orchestrator) ProgressToNextPhase(ctx context.Context) (*models.Crisis, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	crisis, err := o.store.GetActiveCrisis(ctx)
	if err != nil {
		return nil, err
	}
	return crisis, o.transitionLocked(ctx, crisis, crisis.CurrentPhase.Next())
}

// SetPhase moves the active crisis to a specific phase. Transitions are
// forward-only; setting the current phase re-executes its behavior and
// re-arms the timer.
func (o *Orchestrator) SetPhase(ctx context.Context, phase models.CrisisPhase) (*models.Crisis, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	crisis, err := o.store.GetActiveCrisis(ctx)
	if err != nil {
		return nil, err
	}
	if phase < crisis.CurrentPhase {
		return nil, fmt.Errorf("phase %s is behind current %s: %w",
			phase, crisis.CurrentPhase, models.ErrValidation)
	}
	return crisis, o.transitionLocked(ctx, crisis, phase)
}

// Active returns the active crisis, or ErrNotFound.
func (o *Orchestrator) Active(ctx context.Context) (*models.Crisis, error) {
	return o.store.GetActiveCrisis(ctx)
}

// transitionLocked moves crisis into the target phase, executes its
// behavior, and re-arms the single timer handle.
func (o *Orchestrator) transitionLocked(ctx context.Context, crisis *models.Crisis, to models.CrisisPhase) error {
	from := crisis.CurrentPhase

	if to == models.PhaseDormant {
		return o.endCrisisLocked(ctx, crisis)
	}

	crisis.CurrentPhase = to
	if err := o.store.UpdateCrisis(ctx, crisis); err != nil {
		return fmt.Errorf("update crisis: %w", err)
	}

	metrics.RecordPhaseTransition(to.String())
	o.publish(ctx, events.TopicCrisisPhaseChanged, events.CrisisPhaseChanged{
		CrisisID: crisis.ID,
		From:     from,
		To:       to,
		At:       o.now(),
	})
	o.logger.Info().
		Str("crisis_id", crisis.ID).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("phase transition")

	execErr := o.engine.ExecutePhase(ctx, crisis)
	o.armTimerLocked(to)
	return execErr
}

// endCrisisLocked marks the crisis ended and dormant, cancels the timer,
// and clears the active pointer.
func (o *Orchestrator) endCrisisLocked(ctx context.Context, crisis *models.Crisis) error {
	o.cancelTimerLocked()

	if crisis.Active() {
		now := o.now()
		crisis.CurrentPhase = models.PhaseDormant
		crisis.EndedAt = &now
		crisis.Intervention.ResolutionTimeMS = now.Sub(crisis.StartedAt).Milliseconds()
		if err := o.store.UpdateCrisis(ctx, crisis); err != nil {
			return fmt.Errorf("update crisis: %w", err)
		}

		metrics.RecordPhaseTransition(models.PhaseDormant.String())
		o.publish(ctx, events.TopicCrisisEnded, events.CrisisEnded{
			CrisisID: crisis.ID,
			EndedAt:  now,
		})
		o.logger.Info().Str("crisis_id", crisis.ID).Msg("crisis ended")
	}

	if err := o.store.SetActiveCrisis(ctx, ""); err != nil {
		return fmt.Errorf("clear active crisis: %w", err)
	}
	metrics.CrisisActive.Set(0)
	return nil
}

// armTimerLocked replaces the pending timer with one for the given phase's
// accelerated duration. No timer is armed while paused, with auto-advance
// off, or for phases without a duration.
func (o *Orchestrator) armTimerLocked(phase models.CrisisPhase) {
	o.cancelTimerLocked()

	if o.paused || !o.autoAdvance {
		return
	}
	spec := SpecFor(phase)
	if spec.Duration <= 0 {
		return
	}

	delay := time.Duration(float64(spec.Duration) / o.acceleration)
	o.timer = time.AfterFunc(delay, func() {
		if _, err := o.ProgressToNextPhase(context.Background()); err != nil && !errors.Is(err, models.ErrNotFound) {
			o.logger.Error().Err(err).Msg("auto phase advance failed")
		}
	})
}

func (o *Orchestrator) cancelTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *Orchestrator) publish(ctx context.Context, topic string, payload any) {
	if err := o.bus.Publish(ctx, topic, payload); err != nil {
		o.logger.Warn().Err(err).Str("topic", topic).Msg("publish failed")
	}
}
