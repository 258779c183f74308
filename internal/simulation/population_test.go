// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"context"
	"testing"

	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/store"
)

func TestSeedPopulation(t *testing.T) {
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	spec := PopulationSpec{Organic: 20, Amplifiers: 4, Influencers: 2}
	created, err := SeedPopulation(ctx, st, spec, 1)
	if err != nil {
		t.Fatalf("SeedPopulation: %v", err)
	}
	if created != 27 {
		t.Errorf("created = %d, want 27 (population plus one official)", created)
	}

	officials, err := st.ListUsers(ctx, models.UserTypeOfficial)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(officials) != 1 {
		t.Fatalf("officials = %d, want exactly 1", len(officials))
	}
	if officials[0].CredibilityScore != 100 {
		t.Errorf("official credibility = %v, want 100", officials[0].CredibilityScore)
	}

	organic, _ := st.ListUsers(ctx, models.UserTypeOrganic)
	if len(organic) != 20 {
		t.Errorf("organic = %d, want 20", len(organic))
	}
	for _, u := range organic {
		if !models.ValidPersonality(u.Personality) {
			t.Errorf("user %s has invalid personality %q", u.Username, u.Personality)
		}
		if u.InfluenceScore < 1 {
			t.Errorf("user %s influence %v below 1", u.Username, u.InfluenceScore)
		}
	}

	amps, _ := st.ListUsers(ctx, models.UserTypeAmplifier)
	if len(amps) != 4 {
		t.Errorf("amplifiers = %d, want 4", len(amps))
	}
}

func TestSeedPopulation_Idempotent(t *testing.T) {
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	spec := PopulationSpec{Organic: 5, Amplifiers: 1, Influencers: 1}
	if _, err := SeedPopulation(ctx, st, spec, 1); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	created, err := SeedPopulation(ctx, st, spec, 1)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if created != 0 {
		t.Errorf("second seed created %d users, want 0", created)
	}

	users, _ := st.ListUsers(ctx, "")
	if len(users) != 8 {
		t.Errorf("total users = %d, want 8", len(users))
	}
}
