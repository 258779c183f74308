// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crisislab/infodemic/internal/events"
	"github.com/crisislab/infodemic/internal/logging"
	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/store"
)

func newPipelineHarness(t *testing.T) (*Pipeline, *store.BadgerStore) {
	t.Helper()
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	logger := logging.NewTestLogger(nil)
	bus := events.NewBus(logger)
	t.Cleanup(func() {
		bus.Close()
		st.Close()
	})
	return NewPipeline(st, bus, DefaultPipelineConfig(), logger), st
}

func dangerousItem(t *testing.T, st *store.BadgerStore, authorID string) *models.ContentItem {
	t.Helper()
	item := &models.ContentItem{
		Type:      models.ContentTypePost,
		Body:      "URGENT: accounts frozen, cards blocked, bank hacked",
		AuthorID:  authorID,
		Tone:      models.TonePanic,
		Likes:     600,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
	if err := st.CreateContent(context.Background(), item); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	return item
}

func TestPipeline_FlagsDangerousContent(t *testing.T) {
	p, st := newPipelineHarness(t)
	ctx := context.Background()

	item := dangerousItem(t, st, "")

	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Candidates != 1 || stats.Flagged != 1 || stats.NewThreats != 1 {
		t.Errorf("stats = %+v, want one flagged new threat", stats)
	}

	record, err := st.GetThreatByContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetThreatByContent: %v", err)
	}
	// Engagement 40, keywords 20 (urgent, frozen, blocked, hacked),
	// emotional 20.
	if record.Score != 80 {
		t.Errorf("Score = %v, want 80", record.Score)
	}
	if record.Severity != models.SeverityCritical {
		t.Errorf("Severity = %v, want critical", record.Severity)
	}
	if len(record.Reasons) == 0 {
		t.Error("threat record has no reasons")
	}

	// The scored item carries the normalized threat level and scan time.
	scored, err := st.GetContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if scored.ThreatLevel != 0.8 {
		t.Errorf("ThreatLevel = %v, want 0.8", scored.ThreatLevel)
	}
	if scored.LastScoredAt == nil {
		t.Error("LastScoredAt not set")
	}

	// Counters moved behind the store.
	total, _ := st.GetCounter(ctx, store.CounterThreatsTotal)
	active, _ := st.GetCounter(ctx, store.CounterThreatsActive)
	if total != 1 || active != 1 {
		t.Errorf("counters = (%d, %d), want (1, 1)", total, active)
	}
}

func TestPipeline_SecondRunCreatesNothingNew(t *testing.T) {
	p, st := newPipelineHarness(t)
	ctx := context.Background()

	dangerousItem(t, st, "")

	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.NewThreats != 0 {
		t.Errorf("second run created %d threats, want 0", stats.NewThreats)
	}

	threats, err := st.ListThreats(ctx, store.ThreatFilter{})
	if err != nil {
		t.Fatalf("ListThreats: %v", err)
	}
	if len(threats) != 1 {
		t.Errorf("threat records = %d after two runs, want 1", len(threats))
	}

	total, _ := st.GetCounter(ctx, store.CounterThreatsTotal)
	if total != 1 {
		t.Errorf("total counter = %d after two runs, want 1", total)
	}
}

func TestPipeline_RescoreUpdatesExistingRecord(t *testing.T) {
	p, st := newPipelineHarness(t)
	ctx := context.Background()

	item := dangerousItem(t, st, "")
	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := st.GetThreatByContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetThreatByContent: %v", err)
	}

	// More engagement, and enough staleness to re-admit the item.
	if _, err := st.IncrementEngagement(ctx, item.ID, models.EngagementShare, 400); err != nil {
		t.Fatalf("IncrementEngagement: %v", err)
	}
	stale := time.Now().Add(-2 * time.Minute)
	updated, err := st.GetContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	updated.LastScoredAt = &stale
	if err := st.UpdateContent(ctx, updated); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Flagged != 1 || stats.NewThreats != 0 {
		t.Errorf("stats = %+v, want rescore of existing record", stats)
	}

	second, err := st.GetThreatByContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetThreatByContent after rescore: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("rescore created new record %s, want update of %s", second.ID, first.ID)
	}
}

// racingStore applies an engagement delta right after handing out the
// candidate list, mimicking the simulation engine writing in the window
// between a scan's read and its write-back.
type racingStore struct {
	store.Store
	contentID string
	delta     int64
	once      sync.Once
	incErr    error
}

func (s *racingStore) ListScanCandidates(ctx context.Context, filter store.ScanFilter) ([]models.ContentItem, error) {
	items, err := s.Store.ListScanCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {
		_, s.incErr = s.Store.IncrementEngagement(ctx, s.contentID, models.EngagementLike, s.delta)
	})
	return items, nil
}

func TestPipeline_WriteBackKeepsConcurrentEngagement(t *testing.T) {
	_, st := newPipelineHarness(t)
	ctx := context.Background()

	item := dangerousItem(t, st, "")
	racing := &racingStore{Store: st, contentID: item.ID, delta: 10}
	logger := logging.NewTestLogger(nil)
	bus := events.NewBus(logger)
	t.Cleanup(func() { bus.Close() })
	p := NewPipeline(racing, bus, DefaultPipelineConfig(), logger)

	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if racing.incErr != nil {
		t.Fatalf("IncrementEngagement: %v", racing.incErr)
	}

	got, err := st.GetContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if got.Likes != 610 {
		t.Errorf("Likes = %d, want 610 with the mid-scan engagement kept", got.Likes)
	}
	if got.LastScoredAt == nil || got.ThreatLevel == 0 {
		t.Errorf("scan outcome = (%v, %v), want level and time recorded", got.ThreatLevel, got.LastScoredAt)
	}
}

func TestPipeline_OfficialContentNeverFlagged(t *testing.T) {
	p, st := newPipelineHarness(t)
	ctx := context.Background()

	official := &models.SyntheticUser{Username: "official", Type: models.UserTypeOfficial}
	if err := st.CreateUser(ctx, official); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	item := dangerousItem(t, st, official.ID)

	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Flagged != 0 {
		t.Errorf("official content flagged: %+v", stats)
	}

	scored, err := st.GetContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if scored.ThreatLevel != 0 {
		t.Errorf("ThreatLevel = %v for official content, want 0", scored.ThreatLevel)
	}
	if scored.LastScoredAt == nil {
		t.Error("official content not marked as evaluated")
	}
}

func TestPipeline_BelowFloorIgnored(t *testing.T) {
	p, st := newPipelineHarness(t)
	ctx := context.Background()

	quiet := &models.ContentItem{
		Type:      models.ContentTypePost,
		Body:      "panic panic panic",
		Tone:      models.TonePanic,
		Likes:     3,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := st.CreateContent(ctx, quiet); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}

	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Candidates != 0 {
		t.Errorf("candidates = %d for below-floor content, want 0", stats.Candidates)
	}
}
