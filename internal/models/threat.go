// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package models

import "time"

// Severity buckets a numeric threat score.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severity tier boundaries. A score below ThreatDetectionFloor is not a
// threat at all: the score is still computed but no record is created.
const (
	SeverityCriticalFloor = 80.0
	SeverityHighFloor     = 60.0
	SeverityMediumFloor   = 40.0
	ThreatDetectionFloor  = 20.0
)

// SeverityForScore maps a score to its tier. The second return value is
// false when the score is below the detection floor.
func SeverityForScore(score float64) (Severity, bool) {
	switch {
	case score >= SeverityCriticalFloor:
		return SeverityCritical, true
	case score >= SeverityHighFloor:
		return SeverityHigh, true
	case score >= SeverityMediumFloor:
		return SeverityMedium, true
	case score >= ThreatDetectionFloor:
		return SeverityLow, true
	default:
		return "", false
	}
}

// ThreatRecord is the persisted outcome of scoring a content item as
// dangerous. A content item maps to at most one record; rescoring updates
// the existing record. Records transition only unaddressed -> addressed.
type ThreatRecord struct {
	ID        string   `json:"id"`
	ContentID string   `json:"content_id"`
	Severity  Severity `json:"severity"`
	Score     float64  `json:"score"` // 0-100
	Reasons   []string `json:"reasons"`

	Addressed   bool       `json:"addressed"`
	AddressedAt *time.Time `json:"addressed_at,omitempty"`
	ResponseID  string     `json:"response_id,omitempty"` // intervention reply, set once addressed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
