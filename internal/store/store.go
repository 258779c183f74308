// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package store defines the persistence capability consumed by the simulation
// and detection subsystems, and provides the BadgerDB implementation.
//
// The two subsystems never share in-memory objects; everything crosses this
// boundary as persisted records.
package store

import (
	"context"
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

// ScanFilter selects content items needing (re-)evaluation by the scan
// pipeline.
type ScanFilter struct {
	// MinInteractions is the engagement floor; items below it are skipped.
	MinInteractions int64

	// StaleBefore re-admits items whose last evaluation is older than this.
	// Items never scored always qualify.
	StaleBefore time.Time

	// CreatedAfter, when non-zero, excludes older content.
	CreatedAfter time.Time
}

// ThreatFilter selects threat records.
type ThreatFilter struct {
	// Addressed filters by addressed state when non-nil.
	Addressed *bool

	// MinScore excludes records scoring below it.
	MinScore float64

	// Limit bounds the result set; 0 means no limit. Results are ordered by
	// score descending.
	Limit int
}

// ContentStore persists content items.
type ContentStore interface {
	CreateContent(ctx context.Context, item *models.ContentItem) error
	GetContent(ctx context.Context, id string) (*models.ContentItem, error)
	UpdateContent(ctx context.Context, item *models.ContentItem) error
	ListContentByCrisis(ctx context.Context, crisisID string) ([]models.ContentItem, error)
	ListScanCandidates(ctx context.Context, filter ScanFilter) ([]models.ContentItem, error)

	// IncrementEngagement atomically applies an engagement delta and returns
	// the updated item. Counters are monotonically non-decreasing.
	IncrementEngagement(ctx context.Context, id string, kind models.EngagementKind, delta int64) (*models.ContentItem, error)

	// UpdateContentScore records a scan outcome, rewriting only the threat
	// level and evaluation time inside one transaction. Concurrent writes to
	// other fields are never reverted.
	UpdateContentScore(ctx context.Context, id string, threatLevel float64, scoredAt time.Time) (*models.ContentItem, error)

	// RaiseViralCoefficient ratchets the item's viral coefficient up to vc
	// inside one transaction. Lower values leave the item unchanged.
	RaiseViralCoefficient(ctx context.Context, id string, vc float64) (*models.ContentItem, error)
}

// UserStore persists synthetic users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.SyntheticUser) error
	GetUser(ctx context.Context, id string) (*models.SyntheticUser, error)
	UpdateUser(ctx context.Context, user *models.SyntheticUser) error

	// ListUsers returns users of the given type; an empty type returns all.
	ListUsers(ctx context.Context, userType models.UserType) ([]models.SyntheticUser, error)
}

// CrisisStore persists crises. At most one crisis is active at a time.
type CrisisStore interface {
	CreateCrisis(ctx context.Context, crisis *models.Crisis) error
	GetCrisis(ctx context.Context, id string) (*models.Crisis, error)
	UpdateCrisis(ctx context.Context, crisis *models.Crisis) error

	// GetActiveCrisis returns the currently active crisis, or ErrNotFound.
	GetActiveCrisis(ctx context.Context) (*models.Crisis, error)

	// SetActiveCrisis records which crisis is active; empty id clears it.
	SetActiveCrisis(ctx context.Context, id string) error
}

// ThreatStore persists threat records. A content item maps to at most one
// record; upserts are keyed by content id.
type ThreatStore interface {
	// UpsertThreat creates a record for the content item or updates the
	// existing one. Returns the stored record and whether it was created.
	UpsertThreat(ctx context.Context, record *models.ThreatRecord) (*models.ThreatRecord, bool, error)

	GetThreat(ctx context.Context, id string) (*models.ThreatRecord, error)
	GetThreatByContent(ctx context.Context, contentID string) (*models.ThreatRecord, error)
	ListThreats(ctx context.Context, filter ThreatFilter) ([]models.ThreatRecord, error)

	// MarkThreatAddressed transitions a record to addressed, recording the
	// response content id. Addressing an already-addressed record returns
	// ErrConflict and leaves the record unchanged.
	MarkThreatAddressed(ctx context.Context, id, responseID string) (*models.ThreatRecord, error)
}

// CounterStore provides atomically-incrementable process-wide counters
// (e.g. total and active threat counts) behind the store boundary.
type CounterStore interface {
	IncrementCounter(ctx context.Context, name string, delta int64) (int64, error)
	GetCounter(ctx context.Context, name string) (int64, error)
}

// Counter names used by the scan pipeline.
const (
	CounterThreatsTotal  = "threats_total"
	CounterThreatsActive = "threats_active"
)

// Store is the full persistence capability.
type Store interface {
	ContentStore
	UserStore
	CrisisStore
	ThreatStore
	CounterStore

	// Reset clears all crisis-associated content and threats, returns all
	// crises to dormant, and zeroes counters. Administrative use only.
	Reset(ctx context.Context) error

	Close() error
}
