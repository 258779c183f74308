// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package virality provides pure functions estimating how a content item
// spreads: reach, velocity, peak time, expected engagement, and the random
// choices the simulation makes when users engage.
//
// Nothing here mutates stored state; the simulation engine applies results.
package virality

import (
	"math"
	"math/rand"

	"github.com/crisislab/infodemic/internal/models"
)

// Spread is the projected propagation profile of one content item.
type Spread struct {
	// Amplification is the network amplification factor applied to the
	// author's follower count.
	Amplification float64 `json:"amplification"`

	// ExpectedReach is the projected number of users exposed.
	ExpectedReach float64 `json:"expected_reach"`

	// Velocity is the projected spread rate in content per minute.
	Velocity float64 `json:"velocity"`

	// PeakTimeMinutes is when the spread rate is projected to peak.
	PeakTimeMinutes float64 `json:"peak_time_minutes"`

	// EngagementEstimate is the projected total engagement count.
	EngagementEstimate float64 `json:"engagement_estimate"`

	// ActivationProbability is the chance an influencer picks the item up.
	ActivationProbability float64 `json:"activation_probability"`
}

// Estimate computes the spread profile for item authored by author. The
// item's viral coefficient must be positive.
func Estimate(item *models.ContentItem, author *models.SyntheticUser) Spread {
	vc := item.ViralCoefficient
	ew := item.EmotionalWeight
	influence := author.InfluenceScore

	ampl := 1 + 0.5*(vc-1)
	ampl *= 1 + 0.3*ew
	if influence > 3 {
		ampl *= influence * 0.2
	}
	ampl *= 1.15 // secondary-reach bonus

	reach := float64(author.Followers) * ampl

	velocity := 0.5 * vc *
		(1 + 0.5*ew) *
		(1 + 0.8*item.PanicFactor) *
		(1 + 0.3*math.Log(influence+1))

	peak := 120 / math.Max(velocity, 0.5) / vc

	engagement := reach * (0.05 + 0.1*ew) * (1 + 0.3*(vc-1))

	return Spread{
		Amplification:         ampl,
		ExpectedReach:         reach,
		Velocity:              velocity,
		PeakTimeMinutes:       peak,
		EngagementEstimate:    engagement,
		ActivationProbability: activationProbability(item.ThreatLevel, vc, velocity),
	}
}

// activationProbability accumulates additive bonuses, capped at 0.95.
func activationProbability(threatLevel, vc, velocity float64) float64 {
	p := 0.0
	if threatLevel > 0.6 {
		p += 0.3
	}
	if vc > 2.5 {
		p += 0.3
	}
	if velocity > 2.0 {
		p += 0.2
	}
	if velocity > 3 && vc > 3 {
		p += 0.2
	}
	return math.Min(p, 0.95)
}

// ChooseEngagement picks the engagement type for a user acting on item:
// a small reply chance, a reshare chance scaled by the user's share
// threshold and the item's viral coefficient, then like, then view.
func ChooseEngagement(rng *rand.Rand, user *models.SyntheticUser, item *models.ContentItem) models.EngagementKind {
	if rng.Float64() < 0.05 {
		return models.EngagementReply
	}
	reshareP := user.ShareThreshold / 100 * item.ViralCoefficient / 5
	if rng.Float64() < reshareP {
		return models.EngagementShare
	}
	if rng.Float64() < 0.5 {
		return models.EngagementLike
	}
	return models.EngagementView
}

// SelectWeighted picks one item from candidates, weighted by
// viral_coefficient x (1 + emotional_weight). Returns nil when candidates is
// empty or all weights are zero.
func SelectWeighted(rng *rand.Rand, candidates []models.ContentItem) *models.ContentItem {
	if len(candidates) == 0 {
		return nil
	}

	total := 0.0
	for i := range candidates {
		total += weight(&candidates[i])
	}
	if total <= 0 {
		return nil
	}

	roll := rng.Float64() * total
	for i := range candidates {
		roll -= weight(&candidates[i])
		if roll <= 0 {
			return &candidates[i]
		}
	}
	return &candidates[len(candidates)-1]
}

func weight(item *models.ContentItem) float64 {
	w := item.ViralCoefficient * (1 + item.EmotionalWeight)
	if w < 0 {
		return 0
	}
	return w
}
