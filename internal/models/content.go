// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package models

import (
	"fmt"
	"time"
)

// ContentType identifies the kind of a content item.
type ContentType string

const (
	ContentTypePost  ContentType = "post"
	ContentTypeReply ContentType = "reply"
	ContentTypeQuote ContentType = "quote"
	ContentTypeShare ContentType = "share"
)

// EmotionalTone classifies the dominant emotion of a content item.
type EmotionalTone string

const (
	TonePanic      EmotionalTone = "panic"
	ToneAnger      EmotionalTone = "anger"
	ToneConcern    EmotionalTone = "concern"
	ToneNeutral    EmotionalTone = "neutral"
	ToneReassuring EmotionalTone = "reassuring"
	ToneFactual    EmotionalTone = "factual"
)

// EngagementKind identifies an engagement counter on a content item.
type EngagementKind string

const (
	EngagementLike  EngagementKind = "like"
	EngagementShare EngagementKind = "share"
	EngagementReply EngagementKind = "reply"
	EngagementView  EngagementKind = "view"
)

// ContentItem is a post, reply, quote, or share in the simulated network.
//
// Engagement counters are monotonically non-decreasing and mutated only via
// the store's atomic increment. ViralCoefficient never decreases except
// through an explicit recompute from the item's own engagement history and
// the author's influence.
type ContentItem struct {
	ID       string      `json:"id"`
	Type     ContentType `json:"type"`
	Body     string      `json:"body"`
	AuthorID string      `json:"author_id"`
	ParentID string      `json:"parent_id,omitempty"` // set for replies/quotes/shares
	CrisisID string      `json:"crisis_id,omitempty"`

	Tone     EmotionalTone `json:"tone"`
	Language string        `json:"language"`

	Likes   int64 `json:"likes"`
	Shares  int64 `json:"shares"`
	Replies int64 `json:"replies"`
	Views   int64 `json:"views"`

	ViralCoefficient float64 `json:"viral_coefficient"`
	EmotionalWeight  float64 `json:"emotional_weight"` // 0-1, fixed at creation
	PanicFactor      float64 `json:"panic_factor"`     // 0-1
	ThreatLevel      float64 `json:"threat_level"`     // 0-1, updated by scoring

	Misinformation       bool `json:"misinformation"`
	InterventionResponse bool `json:"is_intervention_response"`

	CreatedAt    time.Time  `json:"created_at"`
	LastScoredAt *time.Time `json:"last_scored_at,omitempty"`
}

// TotalInteractions returns the sum of all engagement counters.
func (c *ContentItem) TotalInteractions() int64 {
	return c.Likes + c.Shares + c.Replies + c.Views
}

// AgeMinutes returns the item's age in minutes at the given instant, with a
// floor of one minute so rate computations cannot blow up on fresh items.
func (c *ContentItem) AgeMinutes(now time.Time) float64 {
	age := now.Sub(c.CreatedAt).Minutes()
	if age < 1 {
		return 1
	}
	return age
}

// Increment applies a single engagement to the matching counter.
func (c *ContentItem) Increment(kind EngagementKind, delta int64) error {
	if delta < 0 {
		return fmt.Errorf("%w: engagement counters are non-decreasing", ErrValidation)
	}
	switch kind {
	case EngagementLike:
		c.Likes += delta
	case EngagementShare:
		c.Shares += delta
	case EngagementReply:
		c.Replies += delta
	case EngagementView:
		c.Views += delta
	default:
		return fmt.Errorf("%w: unknown engagement kind %q", ErrValidation, kind)
	}
	return nil
}

// ValidTone reports whether the tone is one of the known values.
func ValidTone(t EmotionalTone) bool {
	switch t {
	case TonePanic, ToneAnger, ToneConcern, ToneNeutral, ToneReassuring, ToneFactual:
		return true
	default:
		return false
	}
}
