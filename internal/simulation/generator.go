// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/crisislab/infodemic/internal/metrics"
	"github.com/crisislab/infodemic/internal/models"
)

// GenerateRequest describes the text to produce.
type GenerateRequest struct {
	Scenario    models.CrisisType
	Phase       models.CrisisPhase
	Personality models.Personality
	Language    string
}

// Generator produces post text for a scenario, phase, and personality. The
// external text-generation capability implements this; it may fail or be
// unavailable.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// templates are keyed by scenario, bucketed by phase role. The resolution
// and intervention phases always speak with the official voice.
var seedTemplates = map[models.CrisisType][]string{
	models.CrisisAccountFreeze: {
		"My account is FROZEN and nobody at the bank answers. Is this happening to anyone else?!",
		"They froze my account without warning. Everything locked. Get your money out NOW.",
		"Heard they're freezing accounts over a certain balance. This is urgent, check yours.",
	},
	models.CrisisATMOutage: {
		"Every ATM downtown is down. Cards swallowed, no cash. Something big is going on.",
		"ATM just ate my card and the screen went dark. Third machine today. PANIC.",
		"No ATM in the city is dispensing cash. They're not telling us something.",
	},
	models.CrisisUnauthorizedDeduction: {
		"Money is being deducted from accounts with NO authorization. Check your balance immediately.",
		"Just lost $400 to a deduction I never approved. The bank got hacked, I'm sure of it.",
		"Unexplained charges hitting everyone's account right now. This is a scam or a breach.",
	},
	models.CrisisSystemMaintenance: {
		"This 'maintenance window' is a cover story. Systems have been down for hours.",
		"Online banking 'under maintenance' again?! They're hiding a crash, guaranteed.",
		"Maintenance that locks everyone out of their money isn't maintenance. Wake up.",
	},
	models.CrisisDataBreach: {
		"Massive data breach at the bank. Names, cards, everything stolen. Change your passwords NOW.",
		"My card details just showed up in a leak. The breach is real and they're silent about it.",
		"Insider says customer data was stolen weeks ago and they never told us. Urgent.",
	},
	models.CrisisGeneralPanic: {
		"Something is very wrong with the banking system today. Get cash while you still can.",
		"Everyone I know is having account problems at once. This is not a coincidence.",
		"URGENT: withdraw what you need today. Trust me on this one.",
	},
}

var interventionTemplates = []string{
	"Official update: we are aware of the circulating claims. Accounts and funds are safe. Details: status page.",
	"Fact check: the reported issue affects a small number of sessions and no funds were lost. We are on it.",
	"This claim is inaccurate. Our systems are operating normally; the affected service is being restored now.",
}

var resolutionTemplates = []string{
	"All clear: the earlier disruption is fully resolved. Thank you for your patience.",
	"Update: services are restored and operating normally. No customer action is required.",
}

var engagementTemplates = []string{
	"Can anyone confirm this??",
	"This just happened to my cousin too.",
	"Saw the same thing this morning, not sure what to believe.",
	"Sharing so more people see this.",
	"Is there an official statement yet?",
}

// TemplateGenerator serves static template text. It is the fallback when the
// external generator is unavailable, and never fails.
type TemplateGenerator struct {
	rng *rand.Rand
}

// NewTemplateGenerator creates a template generator with a seeded source.
func NewTemplateGenerator(seed int64) *TemplateGenerator {
	return &TemplateGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // template shuffling
	}
}

// Generate returns a template for the request; always succeeds.
func (g *TemplateGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	pick := func(pool []string) string {
		return pool[g.rng.Intn(len(pool))]
	}

	switch req.Phase {
	case models.PhaseIntervention:
		return pick(interventionTemplates), nil
	case models.PhaseResolution:
		return pick(resolutionTemplates), nil
	case models.PhaseOrganicSpread, models.PhaseSentimentShift:
		return pick(engagementTemplates), nil
	}

	pool, ok := seedTemplates[req.Scenario]
	if !ok {
		pool = seedTemplates[models.CrisisGeneralPanic]
	}
	return pick(pool), nil
}

// ResilientGenerator wraps an external generator with a circuit breaker and
// degrades to static templates on failure. Adapter unavailability is logged
// as a warning and never fails phase execution.
type ResilientGenerator struct {
	primary  Generator
	fallback *TemplateGenerator
	breaker  *gobreaker.CircuitBreaker[string]
	logger   zerolog.Logger
}

// NewResilientGenerator wraps primary with breaker-protected fallback.
// A nil primary serves templates directly.
func NewResilientGenerator(primary Generator, fallback *TemplateGenerator, logger zerolog.Logger) *ResilientGenerator {
	settings := gobreaker.Settings{
		Name:        "content-generator",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("content generator breaker state changed")
		},
	}
	return &ResilientGenerator{
		primary:  primary,
		fallback: fallback,
		breaker:  gobreaker.NewCircuitBreaker[string](settings),
		logger:   logger,
	}
}

// Generate returns primary output when available, template text otherwise.
func (g *ResilientGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if g.primary == nil {
		return g.fallback.Generate(ctx, req)
	}

	text, err := g.breaker.Execute(func() (string, error) {
		out, genErr := g.primary.Generate(ctx, req)
		if genErr != nil {
			return "", genErr
		}
		if out == "" {
			return "", fmt.Errorf("generator returned empty text")
		}
		return out, nil
	})
	if err != nil {
		metrics.GenerationFallbacks.Inc()
		g.logger.Warn().
			Err(err).
			Str("scenario", string(req.Scenario)).
			Str("phase", req.Phase.String()).
			Msg("content generation failed, using template")
		return g.fallback.Generate(ctx, req)
	}
	return text, nil
}
