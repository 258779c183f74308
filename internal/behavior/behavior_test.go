// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package behavior

import (
	"math"
	"testing"
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

// newPeakModel returns a model pinned to a peak activity hour.
func newPeakModel(seed int64) *Model {
	m := NewModel(seed)
	m.now = func() time.Time {
		return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	}
	return m
}

func TestParamsFor_UnknownFallsBackToTrusting(t *testing.T) {
	got := ParamsFor("alien")
	want := ParamsFor(models.PersonalityTrusting)
	if got != want {
		t.Errorf("ParamsFor(alien) = %+v, want trusting params %+v", got, want)
	}
}

func TestDecideAmplifier_TargetsHighestThreatMisinformation(t *testing.T) {
	m := newPeakModel(1)
	amplifier := &models.SyntheticUser{Type: models.UserTypeAmplifier}

	candidates := []models.ContentItem{
		{ID: "benign", ThreatLevel: 0.9},
		{ID: "low", Misinformation: true, ThreatLevel: 0.2},
		{ID: "high", Misinformation: true, ThreatLevel: 0.8},
	}

	shares, likes := 0, 0
	for i := 0; i < 1000; i++ {
		action := m.Decide(amplifier, candidates)
		if action.Type != ActionEngage {
			t.Fatalf("amplifier action = %v, want engage", action.Type)
		}
		if action.Target.ID != "high" {
			t.Fatalf("amplifier target = %s, want high", action.Target.ID)
		}
		switch action.Engagement {
		case models.EngagementShare:
			shares++
		case models.EngagementLike:
			likes++
		default:
			t.Fatalf("amplifier engagement = %v, want share or like", action.Engagement)
		}
	}

	shareRate := float64(shares) / float64(shares+likes)
	if shareRate < 0.6 || shareRate > 0.8 {
		t.Errorf("share rate = %v, want ~0.7", shareRate)
	}
}

func TestDecideAmplifier_WaitsWithoutMisinformation(t *testing.T) {
	m := newPeakModel(2)
	amplifier := &models.SyntheticUser{Type: models.UserTypeAmplifier}

	action := m.Decide(amplifier, []models.ContentItem{{ID: "benign", ThreatLevel: 0.9}})
	if action.Type != ActionWait {
		t.Errorf("action = %v with no misinformation, want wait", action.Type)
	}
}

func TestDecideHuman_OffHoursMostlyWaits(t *testing.T) {
	m := NewModel(3)
	m.now = func() time.Time {
		return time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC) // 3am
	}
	user := &models.SyntheticUser{
		Type:        models.UserTypeOrganic,
		Personality: models.PersonalityTrusting,
	}
	candidates := []models.ContentItem{{ID: "c", ViralCoefficient: 5, EmotionalWeight: 1}}

	waits := 0
	const n = 2000
	for i := 0; i < n; i++ {
		if m.Decide(user, candidates).Type == ActionWait {
			waits++
		}
	}
	// Off-peak activity probability is 0.25, so at least ~75% waits.
	if float64(waits)/n < 0.65 {
		t.Errorf("off-hours waits = %d/%d, want most ticks idle", waits, n)
	}
}

func TestDecideHuman_AnxiousUsersPost(t *testing.T) {
	m := newPeakModel(4)
	user := &models.SyntheticUser{
		Type:         models.UserTypeOrganic,
		Personality:  models.PersonalityAnxious,
		AnxietyLevel: 90,
	}

	posts := 0
	const n = 5000
	for i := 0; i < n; i++ {
		if m.Decide(user, nil).Type == ActionPost {
			posts++
		}
	}
	if posts == 0 {
		t.Fatal("high-anxiety anxious user never posted")
	}

	// Below the threshold the post branch never fires.
	user.AnxietyLevel = 50
	for i := 0; i < n; i++ {
		if m.Decide(user, nil).Type == ActionPost {
			t.Fatal("calm user posted")
		}
	}
}

func TestDecideHuman_ImpulsiveEngagesImmediately(t *testing.T) {
	m := newPeakModel(5)
	user := &models.SyntheticUser{
		Type:                 models.UserTypeOrganic,
		Personality:          models.PersonalityImpulsive,
		ResponseDelaySeconds: 60,
	}
	candidates := []models.ContentItem{{ID: "c", ViralCoefficient: 2, EmotionalWeight: 0.5}}

	immediate := 0
	const n = 5000
	for i := 0; i < n; i++ {
		action := m.Decide(user, candidates)
		if action.Type == ActionEngage && action.Delay == 0 {
			immediate++
		}
	}
	if immediate == 0 {
		t.Error("impulsive user never engaged immediately")
	}
}

func TestDecideHuman_AnalyticalDelay(t *testing.T) {
	m := newPeakModel(6)
	user := &models.SyntheticUser{
		Type:                 models.UserTypeOrganic,
		Personality:          models.PersonalityAnalytical,
		ResponseDelaySeconds: 30,
	}
	candidates := []models.ContentItem{{ID: "c", ViralCoefficient: 5, EmotionalWeight: 1, PanicFactor: 1}}

	want := time.Duration(30*ParamsFor(models.PersonalityAnalytical).DelayScale) * time.Second
	for i := 0; i < 2000; i++ {
		action := m.Decide(user, candidates)
		if action.Type == ActionEngage {
			if action.Delay != want {
				t.Fatalf("analytical delay = %v, want %v", action.Delay, want)
			}
			return
		}
	}
	t.Fatal("analytical user never engaged with a maximally viral item")
}

func TestEngagementProbability_CapAndScaling(t *testing.T) {
	m := NewModel(7)
	user := &models.SyntheticUser{AnxietyLevel: 100}

	hot := &models.ContentItem{ViralCoefficient: 10, EmotionalWeight: 1, PanicFactor: 1}
	if got := m.engagementProbability(user, ParamsFor(models.PersonalityAnxious), hot); got != 0.95 {
		t.Errorf("probability = %v for maximal item, want 0.95 cap", got)
	}

	dull := &models.ContentItem{ViralCoefficient: 0.5}
	skeptical := m.engagementProbability(user, ParamsFor(models.PersonalitySkeptical), dull)
	trusting := m.engagementProbability(user, ParamsFor(models.PersonalityTrusting), dull)
	if skeptical >= trusting {
		t.Errorf("skeptical %v not below trusting %v for same item", skeptical, trusting)
	}
}

func TestApplyExposure(t *testing.T) {
	panicItem := &models.ContentItem{
		Tone:            models.TonePanic,
		PanicFactor:     0.8,
		EmotionalWeight: 0.9,
	}

	anxious := &models.SyntheticUser{Personality: models.PersonalityAnxious, AnxietyLevel: 50}
	skeptical := &models.SyntheticUser{Personality: models.PersonalitySkeptical, AnxietyLevel: 50}
	ApplyExposure(anxious, panicItem)
	ApplyExposure(skeptical, panicItem)

	if anxious.AnxietyLevel <= 50 {
		t.Errorf("panic exposure left anxious user at %v", anxious.AnxietyLevel)
	}
	if anxious.AnxietyLevel <= skeptical.AnxietyLevel {
		t.Errorf("anxious %v not above skeptical %v after same exposure",
			anxious.AnxietyLevel, skeptical.AnxietyLevel)
	}

	calmed := &models.SyntheticUser{Personality: models.PersonalityAnxious, AnxietyLevel: 80}
	ApplyExposure(calmed, &models.ContentItem{InterventionResponse: true, Tone: models.ToneFactual})
	if calmed.AnxietyLevel != 72 {
		t.Errorf("official response moved anxiety to %v, want 72", calmed.AnxietyLevel)
	}

	// Neutral content changes nothing.
	before := anxious.AnxietyLevel
	ApplyExposure(anxious, &models.ContentItem{Tone: models.ToneNeutral})
	if anxious.AnxietyLevel != before {
		t.Errorf("neutral exposure moved anxiety %v -> %v", before, anxious.AnxietyLevel)
	}
}

func TestDecayAnxiety(t *testing.T) {
	high := &models.SyntheticUser{AnxietyLevel: 100}
	DecayAnxiety(high)
	if math.Abs(high.AnxietyLevel-97.5) > 1e-9 {
		t.Errorf("AnxietyLevel = %v after decay from 100, want 97.5", high.AnxietyLevel)
	}

	low := &models.SyntheticUser{AnxietyLevel: 0}
	DecayAnxiety(low)
	if math.Abs(low.AnxietyLevel-2.5) > 1e-9 {
		t.Errorf("AnxietyLevel = %v after decay from 0, want 2.5", low.AnxietyLevel)
	}

	// Repeated decay converges on the baseline.
	u := &models.SyntheticUser{AnxietyLevel: 100}
	for i := 0; i < 500; i++ {
		DecayAnxiety(u)
	}
	if math.Abs(u.AnxietyLevel-50) > 0.5 {
		t.Errorf("AnxietyLevel = %v after long decay, want ~50", u.AnxietyLevel)
	}
}

func TestDecide_ErrorIsolationAcrossUsers(t *testing.T) {
	// A degenerate user record never panics the decision function.
	m := newPeakModel(8)
	weird := &models.SyntheticUser{Type: models.UserTypeOrganic, Personality: "unknown"}
	for i := 0; i < 100; i++ {
		_ = m.Decide(weird, []models.ContentItem{{ViralCoefficient: 1}})
	}
}
