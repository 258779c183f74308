// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package simulation drives misinformation crises: an engine that executes
// the behavior of each crisis phase, and an orchestrator owning the
// lifecycle, timer-based auto-advance, and time acceleration.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/crisislab/infodemic/internal/behavior"
	"github.com/crisislab/infodemic/internal/events"
	"github.com/crisislab/infodemic/internal/metrics"
	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/store"
	"github.com/crisislab/infodemic/internal/virality"
)

// interventionTopN is how many unaddressed threats the official responder
// fact-checks per intervention phase.
const interventionTopN = 5

// Engine executes phase behavior for the active crisis. Phase execution is
// idempotent per phase entry, not per tick; the orchestrator invokes it
// exactly once on entering a phase.
type Engine struct {
	store    store.Store
	bus      *events.Bus
	gen      Generator
	behavior *behavior.Model
	rng      *rand.Rand
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine creates a phase engine.
func NewEngine(st store.Store, bus *events.Bus, gen Generator, bm *behavior.Model, seed int64, logger zerolog.Logger) *Engine {
	return &Engine{
		store:    st,
		bus:      bus,
		gen:      gen,
		behavior: bm,
		rng:      rand.New(rand.NewSource(seed)), //nolint:gosec // simulation randomness
		logger:   logger,
		now:      time.Now,
	}
}

// ExecutePhase runs the behavior of the crisis's current phase and then
// recomputes the crisis's aggregate metrics. A failing individual user
// action is logged and skipped, never aborting the rest of the phase.
func (e *Engine) ExecutePhase(ctx context.Context, crisis *models.Crisis) error {
	logger := e.logger.With().
		Str("crisis_id", crisis.ID).
		Str("phase", crisis.CurrentPhase.String()).
		Logger()
	logger.Info().Msg("executing phase")

	var err error
	switch crisis.CurrentPhase {
	case models.PhaseDormant:
		return nil
	case models.PhaseInitialSpark:
		err = e.executeInitialSpark(ctx, crisis)
	case models.PhaseBotAmplification:
		err = e.executeBotAmplification(ctx, crisis)
	case models.PhaseOrganicSpread:
		err = e.executeOrganicSpread(ctx, crisis)
	case models.PhasePeakPanic:
		err = e.executePeakPanic(ctx, crisis)
	case models.PhaseIntervention:
		err = e.executeIntervention(ctx, crisis)
	case models.PhaseSentimentShift:
		err = e.executeSentimentShift(ctx, crisis)
	case models.PhaseResolution:
		err = e.executeResolution(ctx, crisis)
	default:
		return fmt.Errorf("phase %v: %w", crisis.CurrentPhase, models.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("execute %s: %w", crisis.CurrentPhase, err)
	}

	if err := e.RecomputeMetrics(ctx, crisis); err != nil {
		return fmt.Errorf("recompute metrics: %w", err)
	}
	return nil
}

// executeInitialSpark has a small set of high-anxiety organic users post
// seed misinformation.
func (e *Engine) executeInitialSpark(ctx context.Context, crisis *models.Crisis) error {
	users, err := e.store.ListUsers(ctx, models.UserTypeOrganic)
	if err != nil {
		return fmt.Errorf("list organic users: %w", err)
	}

	var anxious []models.SyntheticUser
	for _, u := range users {
		if u.AnxietyLevel > 60 {
			anxious = append(anxious, u)
		}
	}
	seeders := e.sample(anxious, SpecFor(models.PhaseInitialSpark).ContentTarget)

	for i := range seeders {
		user := &seeders[i]
		tone := models.TonePanic
		if e.rng.Float64() < 0.3 {
			tone = models.ToneConcern
		}
		_, err := e.createContent(ctx, crisis, user, contentParams{
			Type:            models.ContentTypePost,
			Tone:            tone,
			EmotionalWeight: 0.7 + 0.25*e.rng.Float64(),
			PanicFactor:     0.6 + 0.4*e.rng.Float64(),
			ViralCoeff:      1.5 + e.rng.Float64(),
			Misinformation:  true,
		})
		if err != nil {
			e.logger.Error().Err(err).Str("user_id", user.ID).Msg("seed post failed")
		}
	}
	return nil
}

// executeBotAmplification has automated amplifiers re-share and quote
// existing crisis content, 1-3 amplifications each.
func (e *Engine) executeBotAmplification(ctx context.Context, crisis *models.Crisis) error {
	amplifiers, err := e.store.ListUsers(ctx, models.UserTypeAmplifier)
	if err != nil {
		return fmt.Errorf("list amplifiers: %w", err)
	}
	items, err := e.store.ListContentByCrisis(ctx, crisis.ID)
	if err != nil {
		return fmt.Errorf("list crisis content: %w", err)
	}

	var misinfo []models.ContentItem
	for _, item := range items {
		if item.Misinformation {
			misinfo = append(misinfo, item)
		}
	}
	if len(misinfo) == 0 {
		return nil
	}

	for i := range amplifiers {
		bot := &amplifiers[i]
		for n := 1 + e.rng.Intn(3); n > 0; n-- {
			target := virality.SelectWeighted(e.rng, misinfo)
			if target == nil {
				break
			}
			if err := e.applyEngagement(ctx, target.ID, models.EngagementShare); err != nil {
				e.logger.Error().Err(err).Str("bot_id", bot.ID).Msg("amplification failed")
				continue
			}
			if e.rng.Float64() < 0.3 {
				if _, err := e.createContent(ctx, crisis, bot, contentParams{
					Type:            models.ContentTypeQuote,
					ParentID:        target.ID,
					Tone:            target.Tone,
					EmotionalWeight: target.EmotionalWeight,
					PanicFactor:     target.PanicFactor,
					ViralCoeff:      target.ViralCoefficient * 0.8,
					Misinformation:  true,
				}); err != nil {
					e.logger.Error().Err(err).Str("bot_id", bot.ID).Msg("quote post failed")
				}
			}
		}
	}
	return nil
}

// executeOrganicSpread lets a larger organic sample act on crisis content
// via the behavior model.
func (e *Engine) executeOrganicSpread(ctx context.Context, crisis *models.Crisis) error {
	users, err := e.store.ListUsers(ctx, models.UserTypeOrganic)
	if err != nil {
		return fmt.Errorf("list organic users: %w", err)
	}
	candidates, err := e.engageableContent(ctx, crisis)
	if err != nil {
		return err
	}

	for _, user := range e.sample(users, 20) {
		u := user
		action := e.behavior.Decide(&u, candidates)
		if err := e.applyAction(ctx, crisis, &u, action); err != nil {
			e.logger.Error().Err(err).Str("user_id", u.ID).Msg("user action failed")
		}
	}
	return nil
}

// executePeakPanic has influencers post boosted misinformation and injects
// mass organic engagement.
func (e *Engine) executePeakPanic(ctx context.Context, crisis *models.Crisis) error {
	influencers, err := e.store.ListUsers(ctx, models.UserTypeInfluencer)
	if err != nil {
		return fmt.Errorf("list influencers: %w", err)
	}

	for i := range influencers {
		inf := &influencers[i]
		_, err := e.createContent(ctx, crisis, inf, contentParams{
			Type:            models.ContentTypePost,
			Tone:            models.TonePanic,
			EmotionalWeight: 0.8 + 0.2*e.rng.Float64(),
			PanicFactor:     0.7 + 0.3*e.rng.Float64(),
			ViralCoeff:      (1.8 + e.rng.Float64()) * 1.5, // peak-phase virality boost
			Misinformation:  true,
		})
		if err != nil {
			e.logger.Error().Err(err).Str("user_id", inf.ID).Msg("influencer post failed")
		}
	}

	candidates, err := e.engageableContent(ctx, crisis)
	if err != nil {
		return err
	}
	kinds := []models.EngagementKind{
		models.EngagementLike, models.EngagementShare,
		models.EngagementReply, models.EngagementView,
	}
	for i := 0; i < 30; i++ {
		target := virality.SelectWeighted(e.rng, candidates)
		if target == nil {
			break
		}
		kind := kinds[e.rng.Intn(len(kinds))]
		if err := e.applyEngagement(ctx, target.ID, kind); err != nil {
			e.logger.Error().Err(err).Msg("mass engagement failed")
		}
	}
	return nil
}

// executeIntervention has the official responder post fact-check replies to
// the highest-threat unaddressed items.
func (e *Engine) executeIntervention(ctx context.Context, crisis *models.Crisis) error {
	official, err := e.officialResponder(ctx)
	if err != nil {
		return err
	}

	unaddressed := false
	threats, err := e.store.ListThreats(ctx, store.ThreatFilter{
		Addressed: &unaddressed,
		Limit:     interventionTopN,
	})
	if err != nil {
		return fmt.Errorf("list unaddressed threats: %w", err)
	}

	for _, threat := range threats {
		reply, err := e.createContent(ctx, crisis, official, contentParams{
			Type:                 models.ContentTypeReply,
			ParentID:             threat.ContentID,
			Tone:                 models.ToneFactual,
			EmotionalWeight:      0.2,
			ViralCoeff:           1.2,
			InterventionResponse: true,
		})
		if err != nil {
			e.logger.Error().Err(err).Str("threat_id", threat.ID).Msg("fact-check post failed")
			continue
		}

		if _, err := e.store.MarkThreatAddressed(ctx, threat.ID, reply.ID); err != nil {
			if errors.Is(err, models.ErrConflict) {
				continue // addressed concurrently
			}
			e.logger.Error().Err(err).Str("threat_id", threat.ID).Msg("mark addressed failed")
			continue
		}
		if _, err := e.store.IncrementCounter(ctx, store.CounterThreatsActive, -1); err != nil {
			e.logger.Error().Err(err).Msg("active threat counter decrement failed")
		}
		metrics.ThreatsActive.Dec()

		crisis.Intervention.ResponseCount++
		if crisis.Intervention.TimeToInterventionMS == 0 {
			crisis.Intervention.TimeToInterventionMS = e.now().Sub(crisis.StartedAt).Milliseconds()
		}

		if err := e.bus.Publish(ctx, events.TopicThreatAddressed, events.ThreatAddressed{
			ThreatID:   threat.ID,
			ContentID:  threat.ContentID,
			ResponseID: reply.ID,
			At:         e.now(),
		}); err != nil {
			e.logger.Warn().Err(err).Msg("threat addressed publish failed")
		}
	}
	return nil
}

// executeSentimentShift has organic users positively engage with the
// intervention responses while anxiety starts decaying.
func (e *Engine) executeSentimentShift(ctx context.Context, crisis *models.Crisis) error {
	items, err := e.store.ListContentByCrisis(ctx, crisis.ID)
	if err != nil {
		return fmt.Errorf("list crisis content: %w", err)
	}
	var responses []models.ContentItem
	for _, item := range items {
		if item.InterventionResponse {
			responses = append(responses, item)
		}
	}

	users, err := e.store.ListUsers(ctx, models.UserTypeOrganic)
	if err != nil {
		return fmt.Errorf("list organic users: %w", err)
	}

	for _, user := range e.sample(users, 15) {
		u := user
		if len(responses) > 0 && e.rng.Float64() < 0.6 {
			response := &responses[e.rng.Intn(len(responses))]
			if err := e.applyEngagement(ctx, response.ID, models.EngagementLike); err != nil {
				e.logger.Error().Err(err).Str("user_id", u.ID).Msg("sentiment engagement failed")
			}
			behavior.ApplyExposure(&u, response)
		}
		behavior.DecayAnxiety(&u)
		if err := e.store.UpdateUser(ctx, &u); err != nil {
			e.logger.Error().Err(err).Str("user_id", u.ID).Msg("user update failed")
		}
	}
	return nil
}

// executeResolution posts the official all-clear. Ending the crisis is the
// orchestrator's transition out of this phase.
func (e *Engine) executeResolution(ctx context.Context, crisis *models.Crisis) error {
	official, err := e.officialResponder(ctx)
	if err != nil {
		return err
	}
	_, err = e.createContent(ctx, crisis, official, contentParams{
		Type:            models.ContentTypePost,
		Tone:            models.ToneReassuring,
		EmotionalWeight: 0.3,
		ViralCoeff:      1.1,
	})
	if err != nil {
		return fmt.Errorf("all-clear post: %w", err)
	}
	return nil
}

// RecomputeMetrics rebuilds the crisis's aggregate metrics from all content
// tied to it and persists the crisis. Peak threat level only ratchets up.
func (e *Engine) RecomputeMetrics(ctx context.Context, crisis *models.Crisis) error {
	items, err := e.store.ListContentByCrisis(ctx, crisis.ID)
	if err != nil {
		return fmt.Errorf("list crisis content: %w", err)
	}

	var engagements int64
	peak := crisis.Metrics.PeakThreatLevel
	sentiment := 0.0
	for _, item := range items {
		engagements += item.TotalInteractions()
		if item.ThreatLevel > peak {
			peak = item.ThreatLevel
		}
		sentiment += toneWeight(item.Tone)
	}
	if len(items) > 0 {
		sentiment /= float64(len(items))
	}

	crisis.Metrics = models.CrisisMetrics{
		TotalPosts:       int64(len(items)),
		TotalEngagements: engagements,
		PeakThreatLevel:  peak,
		SentimentScore:   sentiment,
	}
	if err := e.store.UpdateCrisis(ctx, crisis); err != nil {
		return fmt.Errorf("update crisis: %w", err)
	}
	return nil
}

// toneWeight is the signed sentiment contribution of one tone.
func toneWeight(tone models.EmotionalTone) float64 {
	switch tone {
	case models.TonePanic:
		return -1
	case models.ToneAnger:
		return -0.75
	case models.ToneConcern:
		return -0.4
	case models.ToneFactual:
		return 0.5
	case models.ToneReassuring:
		return 0.75
	default:
		return 0
	}
}

// contentParams are the creation attributes for one content item.
type contentParams struct {
	Type                 models.ContentType
	ParentID             string
	Tone                 models.EmotionalTone
	EmotionalWeight      float64
	PanicFactor          float64
	ViralCoeff           float64
	Misinformation       bool
	InterventionResponse bool
}

// createContent generates body text, persists the item, and announces it.
func (e *Engine) createContent(ctx context.Context, crisis *models.Crisis, author *models.SyntheticUser, p contentParams) (*models.ContentItem, error) {
	body, err := e.gen.Generate(ctx, GenerateRequest{
		Scenario:    crisis.Type,
		Phase:       crisis.CurrentPhase,
		Personality: author.Personality,
		Language:    "en",
	})
	if err != nil {
		return nil, fmt.Errorf("generate body: %w", err)
	}

	item := &models.ContentItem{
		Type:                 p.Type,
		Body:                 body,
		AuthorID:             author.ID,
		ParentID:             p.ParentID,
		CrisisID:             crisis.ID,
		Tone:                 p.Tone,
		Language:             "en",
		ViralCoefficient:     p.ViralCoeff,
		EmotionalWeight:      p.EmotionalWeight,
		PanicFactor:          p.PanicFactor,
		Misinformation:       p.Misinformation,
		InterventionResponse: p.InterventionResponse,
		CreatedAt:            e.now(),
	}
	if err := e.store.CreateContent(ctx, item); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	metrics.RecordPost(crisis.CurrentPhase.String())
	if err := e.bus.Publish(ctx, events.TopicNewContent, events.NewContent{
		ContentID: item.ID,
		CrisisID:  crisis.ID,
		AuthorID:  author.ID,
		Type:      item.Type,
		CreatedAt: item.CreatedAt,
	}); err != nil {
		e.logger.Warn().Err(err).Msg("new content publish failed")
	}
	return item, nil
}

// applyAction carries out one behavior decision.
func (e *Engine) applyAction(ctx context.Context, crisis *models.Crisis, user *models.SyntheticUser, action behavior.Action) error {
	switch action.Type {
	case behavior.ActionWait:
		return nil
	case behavior.ActionPost:
		tone := models.ToneConcern
		if user.AnxietyLevel > 85 {
			tone = models.TonePanic
		}
		_, err := e.createContent(ctx, crisis, user, contentParams{
			Type:            models.ContentTypePost,
			Tone:            tone,
			EmotionalWeight: 0.5 + 0.4*e.rng.Float64(),
			PanicFactor:     user.AnxietyLevel / 100,
			ViralCoeff:      1 + 0.5*e.rng.Float64(),
			Misinformation:  e.rng.Float64() < 0.5,
		})
		return err
	case behavior.ActionEngage:
		if action.Target == nil {
			return nil
		}
		if err := e.applyEngagement(ctx, action.Target.ID, action.Engagement); err != nil {
			return err
		}
		behavior.ApplyExposure(user, action.Target)
		if err := e.store.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if action.Engagement == models.EngagementReply {
			_, err := e.createContent(ctx, crisis, user, contentParams{
				Type:            models.ContentTypeReply,
				ParentID:        action.Target.ID,
				Tone:            action.Target.Tone,
				EmotionalWeight: action.Target.EmotionalWeight * 0.8,
				PanicFactor:     action.Target.PanicFactor * 0.8,
				ViralCoeff:      1,
			})
			return err
		}
		return nil
	default:
		return fmt.Errorf("action %q: %w", action.Type, models.ErrValidation)
	}
}

// applyEngagement increments the counter and recomputes the target's viral
// coefficient.
func (e *Engine) applyEngagement(ctx context.Context, contentID string, kind models.EngagementKind) error {
	updated, err := e.store.IncrementEngagement(ctx, contentID, kind, 1)
	if err != nil {
		return fmt.Errorf("increment %s: %w", kind, err)
	}
	metrics.RecordEngagement(string(kind))

	var author *models.SyntheticUser
	if updated.AuthorID != "" {
		author, err = e.store.GetUser(ctx, updated.AuthorID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("load author: %w", err)
		}
	}

	// Ratcheted through a scoped write: a scan outcome or another engagement
	// landing after the increment is never reverted.
	recomputed := recomputeViralCoefficient(updated, author)
	if recomputed > updated.ViralCoefficient {
		if _, err := e.store.RaiseViralCoefficient(ctx, contentID, recomputed); err != nil {
			return fmt.Errorf("raise viral coefficient: %w", err)
		}
	}
	return nil
}

// recomputeViralCoefficient derives the coefficient from the item's own
// engagement history and the author's influence. It never returns less than
// the current value.
func recomputeViralCoefficient(item *models.ContentItem, author *models.SyntheticUser) float64 {
	base := 1 + 0.35*math.Log1p(float64(item.TotalInteractions()))
	if author != nil && author.InfluenceScore > 1 {
		base *= 1 + 0.05*(author.InfluenceScore-1)
	}
	return math.Max(item.ViralCoefficient, base)
}

// engageableContent lists crisis content excluding the official responses
// and items whose threat has already been addressed.
func (e *Engine) engageableContent(ctx context.Context, crisis *models.Crisis) ([]models.ContentItem, error) {
	items, err := e.store.ListContentByCrisis(ctx, crisis.ID)
	if err != nil {
		return nil, fmt.Errorf("list crisis content: %w", err)
	}
	filtered := items[:0]
	for _, item := range items {
		if item.InterventionResponse {
			continue
		}
		record, err := e.store.GetThreatByContent(ctx, item.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("threat lookup for %s: %w", item.ID, err)
		}
		if record != nil && record.Addressed {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

// officialResponder returns the singleton official user.
func (e *Engine) officialResponder(ctx context.Context) (*models.SyntheticUser, error) {
	officials, err := e.store.ListUsers(ctx, models.UserTypeOfficial)
	if err != nil {
		return nil, fmt.Errorf("list official users: %w", err)
	}
	if len(officials) == 0 {
		return nil, fmt.Errorf("official responder: %w", models.ErrNotFound)
	}
	return &officials[0], nil
}

// sample returns up to n users drawn without replacement.
func (e *Engine) sample(users []models.SyntheticUser, n int) []models.SyntheticUser {
	if len(users) <= n {
		return users
	}
	picked := make([]models.SyntheticUser, len(users))
	copy(picked, users)
	e.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:n]
}
