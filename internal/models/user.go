// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package models

import "time"

// UserType identifies the behavioral class of a synthetic user.
type UserType string

const (
	UserTypeOrganic    UserType = "organic"
	UserTypeAmplifier  UserType = "amplifier" // automated re-share accounts
	UserTypeInfluencer UserType = "influencer"
	UserTypeOfficial   UserType = "official" // the single fact-checking responder
)

// Personality tags drive the behavior model's parameter lookup.
type Personality string

const (
	PersonalityAnxious    Personality = "anxious"
	PersonalitySkeptical  Personality = "skeptical"
	PersonalityTrusting   Personality = "trusting"
	PersonalityAnalytical Personality = "analytical"
	PersonalityImpulsive  Personality = "impulsive"
)

// SyntheticUser is a simulated account. Exactly one UserTypeOfficial user
// exists per deployment; it is created once at setup, not enforced by a lock.
type SyntheticUser struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Type        UserType    `json:"type"`
	Personality Personality `json:"personality"`

	AnxietyLevel     float64 `json:"anxiety_level"`     // 0-100
	CredibilityScore float64 `json:"credibility_score"` // 0-100
	ShareThreshold   float64 `json:"share_threshold"`   // 0-100

	ResponseDelaySeconds int `json:"response_delay_seconds"`

	Followers int `json:"followers"`
	Following int `json:"following"`

	InfluenceScore float64 `json:"influence_score"` // >= 1.0

	CreatedAt time.Time `json:"created_at"`
}

// ClampAnxiety bounds the anxiety level to [0, 100].
func (u *SyntheticUser) ClampAnxiety() {
	if u.AnxietyLevel < 0 {
		u.AnxietyLevel = 0
	}
	if u.AnxietyLevel > 100 {
		u.AnxietyLevel = 100
	}
}

// ValidUserType reports whether t is a known user type.
func ValidUserType(t UserType) bool {
	switch t {
	case UserTypeOrganic, UserTypeAmplifier, UserTypeInfluencer, UserTypeOfficial:
		return true
	default:
		return false
	}
}

// ValidPersonality reports whether p is a known personality tag.
func ValidPersonality(p Personality) bool {
	switch p {
	case PersonalityAnxious, PersonalitySkeptical, PersonalityTrusting,
		PersonalityAnalytical, PersonalityImpulsive:
		return true
	default:
		return false
	}
}
