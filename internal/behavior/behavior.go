// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package behavior decides what a synthetic user does on each simulation
// tick: post, engage with a candidate item, or wait.
//
// Personality differences are data, not code: a lookup table maps each
// personality tag to the parameters one generic decision function consumes.
package behavior

import (
	"math/rand"
	"time"

	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/virality"
)

// ActionType classifies a decision outcome.
type ActionType string

const (
	// ActionWait means the user does nothing this tick.
	ActionWait ActionType = "wait"
	// ActionPost means the user originates a new content item.
	ActionPost ActionType = "post"
	// ActionEngage means the user engages with Target.
	ActionEngage ActionType = "engage"
)

// Action is one user's decision for a tick.
type Action struct {
	Type       ActionType
	Target     *models.ContentItem
	Engagement models.EngagementKind

	// Delay is how long after the tick the action notionally happens.
	Delay time.Duration
}

// Params are the per-personality knobs of the decision function.
type Params struct {
	// EngagementMultiplier scales the generic engagement probability.
	EngagementMultiplier float64

	// PanicSensitivity scales how strongly panic content moves anxiety and
	// engagement.
	PanicSensitivity float64

	// PostProbability is the chance an over-threshold anxious user
	// originates a new post.
	PostProbability float64

	// ImmediateChance is the chance of engaging without any delay.
	ImmediateChance float64

	// DelayScale multiplies the user's base response delay.
	DelayScale float64
}

// personalityParams is the personality lookup table. Unknown tags fall back
// to trusting.
var personalityParams = map[models.Personality]Params{
	models.PersonalityAnxious: {
		EngagementMultiplier: 1.3,
		PanicSensitivity:     1.5,
		PostProbability:      0.2,
		ImmediateChance:      0.1,
		DelayScale:           0.8,
	},
	models.PersonalitySkeptical: {
		EngagementMultiplier: 0.6,
		PanicSensitivity:     0.5,
		PostProbability:      0,
		ImmediateChance:      0.05,
		DelayScale:           1.2,
	},
	models.PersonalityTrusting: {
		EngagementMultiplier: 1.0,
		PanicSensitivity:     1.0,
		PostProbability:      0,
		ImmediateChance:      0.1,
		DelayScale:           1.0,
	},
	models.PersonalityAnalytical: {
		EngagementMultiplier: 0.8,
		PanicSensitivity:     0.6,
		PostProbability:      0,
		ImmediateChance:      0,
		DelayScale:           2.0,
	},
	models.PersonalityImpulsive: {
		EngagementMultiplier: 1.2,
		PanicSensitivity:     1.2,
		PostProbability:      0,
		ImmediateChance:      0.3,
		DelayScale:           0.3,
	},
}

// ParamsFor returns the decision parameters for a personality tag.
func ParamsFor(p models.Personality) Params {
	if params, ok := personalityParams[p]; ok {
		return params
	}
	return personalityParams[models.PersonalityTrusting]
}

// Anxiety evolution constants.
const (
	anxietyBaseline      = 50.0
	anxietyDecayRate     = 0.05 // per tick, toward baseline
	officialCalmingDrop  = 8.0
	panicExposureScale   = 10.0
	anxiousPostThreshold = 70.0
)

// Peak engagement hours (local time). Outside them users are mostly idle.
var peakHours = map[int]bool{
	7: true, 8: true, 9: true,
	12: true, 13: true,
	18: true, 19: true, 20: true, 21: true, 22: true, 23: true,
}

const (
	peakActiveProbability    = 0.8
	offPeakActiveProbability = 0.25
)

// Model makes tick decisions for synthetic users.
type Model struct {
	rng *rand.Rand
	now func() time.Time
}

// NewModel creates a decision model with a seeded random source.
func NewModel(seed int64) *Model {
	return &Model{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // simulation randomness
		now: time.Now,
	}
}

// Decide returns the user's action for this tick. Candidates are the content
// items the user could act on; callers exclude items whose threat has
// already been addressed.
func (m *Model) Decide(user *models.SyntheticUser, candidates []models.ContentItem) Action {
	if user.Type == models.UserTypeAmplifier {
		return m.decideAmplifier(candidates)
	}
	return m.decideHuman(user, candidates)
}

// decideAmplifier targets the highest-threat misinformation item: reshare
// 70% of the time, otherwise like.
func (m *Model) decideAmplifier(candidates []models.ContentItem) Action {
	var target *models.ContentItem
	for i := range candidates {
		item := &candidates[i]
		if !item.Misinformation {
			continue
		}
		if target == nil || item.ThreatLevel > target.ThreatLevel {
			target = item
		}
	}
	if target == nil {
		return Action{Type: ActionWait}
	}

	engagement := models.EngagementLike
	if m.rng.Float64() < 0.7 {
		engagement = models.EngagementShare
	}
	return Action{Type: ActionEngage, Target: target, Engagement: engagement}
}

func (m *Model) decideHuman(user *models.SyntheticUser, candidates []models.ContentItem) Action {
	if !m.activeNow() {
		return Action{Type: ActionWait}
	}

	params := ParamsFor(user.Personality)
	baseDelay := time.Duration(float64(user.ResponseDelaySeconds)*params.DelayScale) * time.Second

	if params.ImmediateChance > 0 && m.rng.Float64() < params.ImmediateChance {
		if target := virality.SelectWeighted(m.rng, candidates); target != nil {
			return Action{
				Type:       ActionEngage,
				Target:     target,
				Engagement: virality.ChooseEngagement(m.rng, user, target),
			}
		}
	}

	if user.AnxietyLevel > anxiousPostThreshold && params.PostProbability > 0 {
		if m.rng.Float64() < params.PostProbability {
			return Action{Type: ActionPost, Delay: baseDelay}
		}
	}

	target := virality.SelectWeighted(m.rng, candidates)
	if target == nil {
		return Action{Type: ActionWait}
	}
	if m.rng.Float64() < m.engagementProbability(user, params, target) {
		return Action{
			Type:       ActionEngage,
			Target:     target,
			Engagement: virality.ChooseEngagement(m.rng, user, target),
			Delay:      baseDelay,
		}
	}
	return Action{Type: ActionWait}
}

// engagementProbability combines the personality multiplier, the item's
// emotional resonance, the panic/anxiety match, and the viral coefficient,
// capped at 0.95.
func (m *Model) engagementProbability(user *models.SyntheticUser, params Params, item *models.ContentItem) float64 {
	resonance := 0.3 + 0.7*item.EmotionalWeight
	panicMatch := 1 + params.PanicSensitivity*item.PanicFactor*(user.AnxietyLevel/100)
	vcFactor := item.ViralCoefficient / 5

	p := params.EngagementMultiplier * resonance * panicMatch * vcFactor
	if p > 0.95 {
		return 0.95
	}
	if p < 0 {
		return 0
	}
	return p
}

// activeNow draws against the hour bucket's activity probability.
func (m *Model) activeNow() bool {
	p := offPeakActiveProbability
	if peakHours[m.now().Hour()] {
		p = peakActiveProbability
	}
	return m.rng.Float64() < p
}

// ApplyExposure evolves the user's anxiety after seeing item. Panic content
// raises anxiety by panic intensity and personality sensitivity; an official
// intervention response lowers it by a fixed amount.
func ApplyExposure(user *models.SyntheticUser, item *models.ContentItem) {
	if item.InterventionResponse {
		user.AnxietyLevel -= officialCalmingDrop
		user.ClampAnxiety()
		return
	}
	if item.Tone == models.TonePanic {
		params := ParamsFor(user.Personality)
		user.AnxietyLevel += item.PanicFactor * item.EmotionalWeight * params.PanicSensitivity * panicExposureScale
		user.ClampAnxiety()
	}
}

// DecayAnxiety moves anxiety 5% of the distance back toward the baseline.
func DecayAnxiety(user *models.SyntheticUser) {
	user.AnxietyLevel += (anxietyBaseline - user.AnxietyLevel) * anxietyDecayRate
	user.ClampAnxiety()
}
