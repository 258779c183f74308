// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package models

import (
	"fmt"
	"time"
)

// CrisisType identifies one of the fixed scenario catalog entries.
type CrisisType string

const (
	CrisisAccountFreeze         CrisisType = "account_freeze"
	CrisisATMOutage             CrisisType = "atm_outage"
	CrisisUnauthorizedDeduction CrisisType = "unauthorized_deduction"
	CrisisSystemMaintenance     CrisisType = "system_maintenance"
	CrisisDataBreach            CrisisType = "data_breach"
	CrisisGeneralPanic          CrisisType = "general_panic"
)

// ValidCrisisType reports whether t is in the scenario catalog.
func ValidCrisisType(t CrisisType) bool {
	switch t {
	case CrisisAccountFreeze, CrisisATMOutage, CrisisUnauthorizedDeduction,
		CrisisSystemMaintenance, CrisisDataBreach, CrisisGeneralPanic:
		return true
	default:
		return false
	}
}

// CrisisPhase is a stage in the crisis lifecycle. Phases only move forward;
// RESOLUTION wraps back to DORMANT.
type CrisisPhase int

const (
	PhaseDormant CrisisPhase = iota
	PhaseInitialSpark
	PhaseBotAmplification
	PhaseOrganicSpread
	PhasePeakPanic
	PhaseIntervention
	PhaseSentimentShift
	PhaseResolution
)

// phaseNames maps phases to their wire representation.
var phaseNames = map[CrisisPhase]string{
	PhaseDormant:          "dormant",
	PhaseInitialSpark:     "initial_spark",
	PhaseBotAmplification: "bot_amplification",
	PhaseOrganicSpread:    "organic_spread",
	PhasePeakPanic:        "peak_panic",
	PhaseIntervention:     "intervention",
	PhaseSentimentShift:   "sentiment_shift",
	PhaseResolution:       "resolution",
}

// String returns the phase's wire name.
func (p CrisisPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalJSON encodes the phase as its wire name.
func (p CrisisPhase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON decodes a phase from its wire name.
func (p *CrisisPhase) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	phase, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = phase
	return nil
}

// ParsePhase resolves a wire name to a phase.
func ParsePhase(s string) (CrisisPhase, error) {
	for phase, name := range phaseNames {
		if name == s {
			return phase, nil
		}
	}
	return PhaseDormant, fmt.Errorf("%w: unknown phase %q", ErrValidation, s)
}

// Next returns the phase that follows p. RESOLUTION returns to DORMANT;
// DORMANT advances into INITIAL_SPARK.
func (p CrisisPhase) Next() CrisisPhase {
	if p >= PhaseResolution {
		return PhaseDormant
	}
	return p + 1
}

// Active reports whether the phase is part of a running crisis.
func (p CrisisPhase) Active() bool {
	return p != PhaseDormant
}

// CrisisMetrics are aggregates recomputed from all content tied to a crisis
// after each phase execution. Readers must tolerate eventually-consistent
// snapshots.
type CrisisMetrics struct {
	TotalPosts       int64   `json:"total_posts"`
	TotalEngagements int64   `json:"total_engagements"`
	PeakThreatLevel  float64 `json:"peak_threat_level"` // 0-1
	SentimentScore   float64 `json:"sentiment_score"`   // -1..1
}

// InterventionMetrics track the official response to a crisis.
type InterventionMetrics struct {
	ResponseCount        int   `json:"response_count"`
	TimeToInterventionMS int64 `json:"time_to_intervention_ms"`
	ResolutionTimeMS     int64 `json:"resolution_time_ms"`
}

// Crisis is one simulated misinformation episode.
type Crisis struct {
	ID           string      `json:"id"`
	Type         CrisisType  `json:"type"`
	CurrentPhase CrisisPhase `json:"current_phase"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Metrics      CrisisMetrics       `json:"metrics"`
	Intervention InterventionMetrics `json:"intervention"`
}

// Active reports whether the crisis is in a non-dormant phase.
func (c *Crisis) Active() bool {
	return c.CurrentPhase.Active()
}
