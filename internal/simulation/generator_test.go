// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/crisislab/infodemic/internal/logging"
	"github.com/crisislab/infodemic/internal/models"
)

type failingGenerator struct {
	calls int
}

func (g *failingGenerator) Generate(context.Context, GenerateRequest) (string, error) {
	g.calls++
	return "", errors.New("upstream unavailable")
}

type fixedGenerator struct {
	text string
}

func (g *fixedGenerator) Generate(context.Context, GenerateRequest) (string, error) {
	return g.text, nil
}

func TestTemplateGenerator_CoversAllScenariosAndPhases(t *testing.T) {
	gen := NewTemplateGenerator(1)
	ctx := context.Background()

	scenarios := []models.CrisisType{
		models.CrisisAccountFreeze, models.CrisisATMOutage,
		models.CrisisUnauthorizedDeduction, models.CrisisSystemMaintenance,
		models.CrisisDataBreach, models.CrisisGeneralPanic,
		"unknown_scenario",
	}
	for _, scenario := range scenarios {
		for phase := models.PhaseInitialSpark; phase <= models.PhaseResolution; phase++ {
			text, err := gen.Generate(ctx, GenerateRequest{Scenario: scenario, Phase: phase})
			if err != nil {
				t.Fatalf("Generate(%s, %s): %v", scenario, phase, err)
			}
			if text == "" {
				t.Errorf("Generate(%s, %s) returned empty text", scenario, phase)
			}
		}
	}
}

func TestResilientGenerator_FallsBackOnFailure(t *testing.T) {
	primary := &failingGenerator{}
	gen := NewResilientGenerator(primary, NewTemplateGenerator(1), logging.NewTestLogger(nil))

	text, err := gen.Generate(context.Background(), GenerateRequest{
		Scenario: models.CrisisDataBreach,
		Phase:    models.PhaseInitialSpark,
	})
	if err != nil {
		t.Fatalf("Generate with failing primary: %v", err)
	}
	if text == "" {
		t.Error("fallback returned empty text")
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
}

func TestResilientGenerator_BreakerStopsHammeringFailedPrimary(t *testing.T) {
	primary := &failingGenerator{}
	gen := NewResilientGenerator(primary, NewTemplateGenerator(1), logging.NewTestLogger(nil))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := gen.Generate(ctx, GenerateRequest{Phase: models.PhaseInitialSpark}); err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
	}
	// The breaker opens after 3 consecutive failures; later calls skip the
	// primary entirely.
	if primary.calls >= 10 {
		t.Errorf("primary calls = %d, want breaker to cut them off", primary.calls)
	}
}

func TestResilientGenerator_UsesPrimaryWhenHealthy(t *testing.T) {
	gen := NewResilientGenerator(&fixedGenerator{text: "generated text"}, NewTemplateGenerator(1), logging.NewTestLogger(nil))

	text, err := gen.Generate(context.Background(), GenerateRequest{Phase: models.PhasePeakPanic})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "generated text" {
		t.Errorf("text = %q, want primary output", text)
	}
}

func TestResilientGenerator_EmptyPrimaryOutputFallsBack(t *testing.T) {
	gen := NewResilientGenerator(&fixedGenerator{text: ""}, NewTemplateGenerator(1), logging.NewTestLogger(nil))

	text, err := gen.Generate(context.Background(), GenerateRequest{Phase: models.PhaseResolution})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text == "" {
		t.Error("empty primary output was not replaced by a template")
	}
}
