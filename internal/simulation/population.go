// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/store"
)

// PopulationSpec sizes the synthetic population seeded at startup.
type PopulationSpec struct {
	Organic     int
	Amplifiers  int
	Influencers int
}

// organicPersonalities is the personality pool for organic users.
var organicPersonalities = []models.Personality{
	models.PersonalityAnxious,
	models.PersonalitySkeptical,
	models.PersonalityTrusting,
	models.PersonalityAnalytical,
	models.PersonalityImpulsive,
}

// SeedPopulation creates the synthetic user base. It is idempotent: when
// users already exist nothing is created. Exactly one official responder
// exists per deployment; it is created here and survives resets.
func SeedPopulation(ctx context.Context, st store.Store, spec PopulationSpec, seed int64) (int, error) {
	existing, err := st.ListUsers(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation randomness, not crypto

	users := []*models.SyntheticUser{{
		Username:             "official_response",
		Type:                 models.UserTypeOfficial,
		Personality:          models.PersonalityAnalytical,
		CredibilityScore:     100,
		ShareThreshold:       100,
		ResponseDelaySeconds: 30,
		Followers:            50000,
		InfluenceScore:       5,
	}}

	for i := 0; i < spec.Influencers; i++ {
		users = append(users, &models.SyntheticUser{
			Username:             fmt.Sprintf("influencer_%02d", i+1),
			Type:                 models.UserTypeInfluencer,
			Personality:          organicPersonalities[rng.Intn(len(organicPersonalities))],
			AnxietyLevel:         30 + rng.Float64()*30,
			CredibilityScore:     50 + rng.Float64()*40,
			ShareThreshold:       30 + rng.Float64()*40,
			ResponseDelaySeconds: 10 + rng.Intn(50),
			Followers:            10000 + rng.Intn(40000),
			InfluenceScore:       3 + rng.Float64()*2,
		})
	}

	for i := 0; i < spec.Amplifiers; i++ {
		users = append(users, &models.SyntheticUser{
			Username:             fmt.Sprintf("amp_%03d", i+1),
			Type:                 models.UserTypeAmplifier,
			Personality:          models.PersonalityImpulsive,
			AnxietyLevel:         50,
			CredibilityScore:     5 + rng.Float64()*15,
			ShareThreshold:       10 + rng.Float64()*20,
			ResponseDelaySeconds: 1 + rng.Intn(9),
			Followers:            10 + rng.Intn(90),
			InfluenceScore:       1,
		})
	}

	for i := 0; i < spec.Organic; i++ {
		users = append(users, &models.SyntheticUser{
			Username:             fmt.Sprintf("user_%04d", i+1),
			Type:                 models.UserTypeOrganic,
			Personality:          organicPersonalities[rng.Intn(len(organicPersonalities))],
			AnxietyLevel:         30 + rng.Float64()*40,
			CredibilityScore:     20 + rng.Float64()*60,
			ShareThreshold:       40 + rng.Float64()*40,
			ResponseDelaySeconds: 10 + rng.Intn(110),
			Followers:            50 + rng.Intn(450),
			InfluenceScore:       1 + rng.Float64(),
		})
	}

	for _, u := range users {
		if err := st.CreateUser(ctx, u); err != nil {
			return 0, fmt.Errorf("create user %s: %w", u.Username, err)
		}
	}
	return len(users), nil
}
