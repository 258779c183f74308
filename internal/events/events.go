// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package events defines the notification topics published by the simulation
// and detection subsystems, and a best-effort in-process bus carrying them.
//
// Delivery is at-most-once: a failed or unobserved publish never fails the
// operation that triggered it.
package events

import (
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

// Topics.
const (
	TopicCrisisStarted      = "crisis.started"
	TopicCrisisEnded        = "crisis.ended"
	TopicCrisisPhaseChanged = "crisis.phase_changed"
	TopicNewContent         = "content.created"
	TopicThreatDetected     = "threat.detected"
	TopicThreatAddressed    = "threat.addressed"
)

// CrisisStarted announces a new active crisis.
type CrisisStarted struct {
	CrisisID  string            `json:"crisis_id"`
	Type      models.CrisisType `json:"type"`
	StartedAt time.Time         `json:"started_at"`
}

// CrisisEnded announces that a crisis returned to dormant.
type CrisisEnded struct {
	CrisisID string    `json:"crisis_id"`
	EndedAt  time.Time `json:"ended_at"`
}

// CrisisPhaseChanged announces a phase transition.
type CrisisPhaseChanged struct {
	CrisisID string             `json:"crisis_id"`
	From     models.CrisisPhase `json:"from"`
	To       models.CrisisPhase `json:"to"`
	At       time.Time          `json:"at"`
}

// NewContent announces a generated content item.
type NewContent struct {
	ContentID string             `json:"content_id"`
	CrisisID  string             `json:"crisis_id"`
	AuthorID  string             `json:"author_id"`
	Type      models.ContentType `json:"type"`
	CreatedAt time.Time          `json:"created_at"`
}

// ThreatDetected announces a newly created threat record. Updates to an
// existing record do not re-announce.
type ThreatDetected struct {
	ThreatID  string          `json:"threat_id"`
	ContentID string          `json:"content_id"`
	Severity  models.Severity `json:"severity"`
	Score     float64         `json:"score"`
	Reasons   []string        `json:"reasons"`
	At        time.Time       `json:"at"`
}

// ThreatAddressed announces that a threat received an official response.
type ThreatAddressed struct {
	ThreatID   string    `json:"threat_id"`
	ContentID  string    `json:"content_id"`
	ResponseID string    `json:"response_id"`
	At         time.Time `json:"at"`
}
