// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package virality

import (
	"math"
	"math/rand"
	"testing"

	"github.com/crisislab/infodemic/internal/models"
)

func TestEstimate_BaselineContent(t *testing.T) {
	// Coefficient 1, no emotion, low influence: amplification is just the
	// secondary-reach bonus.
	item := &models.ContentItem{ViralCoefficient: 1}
	author := &models.SyntheticUser{Followers: 1000, InfluenceScore: 1}

	spread := Estimate(item, author)

	if math.Abs(spread.Amplification-1.15) > 1e-9 {
		t.Errorf("Amplification = %v, want 1.15", spread.Amplification)
	}
	if math.Abs(spread.ExpectedReach-1150) > 1e-6 {
		t.Errorf("ExpectedReach = %v, want 1150", spread.ExpectedReach)
	}

	wantVelocity := 0.5 * (1 + 0.3*math.Log(2))
	if math.Abs(spread.Velocity-wantVelocity) > 1e-9 {
		t.Errorf("Velocity = %v, want %v", spread.Velocity, wantVelocity)
	}
	if spread.ActivationProbability != 0 {
		t.Errorf("ActivationProbability = %v, want 0", spread.ActivationProbability)
	}
}

func TestEstimate_InfluenceScaling(t *testing.T) {
	item := &models.ContentItem{ViralCoefficient: 2, EmotionalWeight: 0.5}

	low := Estimate(item, &models.SyntheticUser{Followers: 100, InfluenceScore: 3})
	high := Estimate(item, &models.SyntheticUser{Followers: 100, InfluenceScore: 5})

	// The influence multiplier only kicks in above 3.
	wantLow := (1 + 0.5) * (1 + 0.3*0.5) * 1.15
	if math.Abs(low.Amplification-wantLow) > 1e-9 {
		t.Errorf("Amplification at influence 3 = %v, want %v", low.Amplification, wantLow)
	}
	wantHigh := wantLow * 5 * 0.2
	if math.Abs(high.Amplification-wantHigh) > 1e-9 {
		t.Errorf("Amplification at influence 5 = %v, want %v", high.Amplification, wantHigh)
	}
}

func TestEstimate_PeakTime(t *testing.T) {
	// Higher velocity and coefficient peak sooner.
	calm := Estimate(
		&models.ContentItem{ViralCoefficient: 1},
		&models.SyntheticUser{Followers: 10, InfluenceScore: 1},
	)
	viral := Estimate(
		&models.ContentItem{ViralCoefficient: 4, EmotionalWeight: 0.9, PanicFactor: 0.9},
		&models.SyntheticUser{Followers: 10, InfluenceScore: 5},
	)

	if viral.PeakTimeMinutes >= calm.PeakTimeMinutes {
		t.Errorf("viral peak %v not sooner than calm peak %v",
			viral.PeakTimeMinutes, calm.PeakTimeMinutes)
	}

	// Velocity floor of 0.5 bounds the peak at 240 minutes for coefficient 1.
	if calm.PeakTimeMinutes > 240+1e-9 {
		t.Errorf("calm peak = %v, want <= 240", calm.PeakTimeMinutes)
	}
}

func TestActivationProbability_CapsAt95(t *testing.T) {
	item := &models.ContentItem{
		ViralCoefficient: 4,
		EmotionalWeight:  1,
		PanicFactor:      1,
		ThreatLevel:      0.9,
	}
	author := &models.SyntheticUser{Followers: 100000, InfluenceScore: 10}

	spread := Estimate(item, author)
	if spread.ActivationProbability != 0.95 {
		t.Errorf("ActivationProbability = %v, want cap of 0.95", spread.ActivationProbability)
	}
}

func TestChooseEngagement_Distribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	user := &models.SyntheticUser{ShareThreshold: 50}
	item := &models.ContentItem{ViralCoefficient: 2.5}

	counts := map[models.EngagementKind]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[ChooseEngagement(rng, user, item)]++
	}

	for _, kind := range []models.EngagementKind{
		models.EngagementReply, models.EngagementShare,
		models.EngagementLike, models.EngagementView,
	} {
		if counts[kind] == 0 {
			t.Errorf("engagement kind %q never chosen in %d draws", kind, n)
		}
	}

	// Reply chance is a flat 5%.
	replyRate := float64(counts[models.EngagementReply]) / n
	if replyRate < 0.03 || replyRate > 0.07 {
		t.Errorf("reply rate = %v, want ~0.05", replyRate)
	}
}

func TestSelectWeighted(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	if got := SelectWeighted(rng, nil); got != nil {
		t.Errorf("SelectWeighted(empty) = %v, want nil", got)
	}

	zero := []models.ContentItem{{ID: "a"}, {ID: "b"}}
	if got := SelectWeighted(rng, zero); got != nil {
		t.Errorf("SelectWeighted(zero weights) = %v, want nil", got)
	}

	items := []models.ContentItem{
		{ID: "dull", ViralCoefficient: 0.1},
		{ID: "hot", ViralCoefficient: 5, EmotionalWeight: 1},
	}
	hot := 0
	const n = 5000
	for i := 0; i < n; i++ {
		picked := SelectWeighted(rng, items)
		if picked == nil {
			t.Fatal("SelectWeighted returned nil for weighted items")
		}
		if picked.ID == "hot" {
			hot++
		}
	}
	if float64(hot)/n < 0.9 {
		t.Errorf("hot item picked %d/%d times, want overwhelming majority", hot, n)
	}
}

func TestCascade_Shape(t *testing.T) {
	spread := Spread{
		Velocity:        4,
		PeakTimeMinutes: 10,
		ExpectedReach:   5000,
	}

	points := Cascade(spread, 30)
	if len(points) != 30 {
		t.Fatalf("len(points) = %d, want 30", len(points))
	}

	// Rate climbs to the peak minute and falls after it.
	peakIdx := 9 // minute 10
	for i := 1; i <= peakIdx; i++ {
		if points[i].NewPosts < points[i-1].NewPosts {
			t.Errorf("rate fell before peak at minute %d", points[i].Minute)
		}
	}
	for i := peakIdx + 1; i < len(points); i++ {
		if points[i].NewPosts > points[i-1].NewPosts {
			t.Errorf("rate rose after peak at minute %d", points[i].Minute)
		}
	}

	// Cumulative reach is monotonic and bounded by expected reach.
	for i := 1; i < len(points); i++ {
		if points[i].CumulativeReach < points[i-1].CumulativeReach {
			t.Errorf("cumulative reach decreased at minute %d", points[i].Minute)
		}
	}
	last := points[len(points)-1].CumulativeReach
	if last <= 0 || last > spread.ExpectedReach {
		t.Errorf("final cumulative reach = %v, want in (0, %v]", last, spread.ExpectedReach)
	}

	if Cascade(spread, 0) != nil {
		t.Error("Cascade with zero horizon should return nil")
	}
}
