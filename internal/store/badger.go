// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crisislab/infodemic/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	contentKeyPrefix       = "content:"
	contentCrisisKeyPrefix = "content_crisis:" // content_crisis:<crisisID>:<contentID> -> contentID
	userKeyPrefix          = "user:"
	crisisKeyPrefix        = "crisis:"
	threatKeyPrefix        = "threat:"
	threatContentKeyPrefix = "threat_content:" // threat_content:<contentID> -> threatID
	counterKeyPrefix       = "counter:"
	activeCrisisKey        = "crisis_active"
)

// BadgerStore implements Store using BadgerDB for durable storage.
type BadgerStore struct {
	db *badger.DB
}

// Open creates a BadgerDB-backed store at the given path.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemory creates an ephemeral store. Intended for tests.
func OpenInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger in-memory: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunGC runs one round of value-log garbage collection. Badger returns
// ErrNoRewrite when there was nothing to reclaim; callers treat that as
// success.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// setJSON marshals v and stores it under key.
func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// getJSON loads the value under key into out, mapping missing keys to
// models.ErrNotFound.
func getJSON(txn *badger.Txn, key string, out any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", key, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// --- ContentStore ---

// CreateContent stores a new content item and its crisis index entry.
func (s *BadgerStore) CreateContent(_ context.Context, item *models.ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, contentKeyPrefix+item.ID, item); err != nil {
			return err
		}
		if item.CrisisID != "" {
			idxKey := contentCrisisKeyPrefix + item.CrisisID + ":" + item.ID
			if err := txn.Set([]byte(idxKey), []byte(item.ID)); err != nil {
				return fmt.Errorf("set crisis index: %w", err)
			}
		}
		return nil
	})
}

// GetContent retrieves a content item by id.
func (s *BadgerStore) GetContent(_ context.Context, id string) (*models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, contentKeyPrefix+id, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateContent overwrites an existing content item.
func (s *BadgerStore) UpdateContent(ctx context.Context, item *models.ContentItem) error {
	if _, err := s.GetContent(ctx, item.ID); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, contentKeyPrefix+item.ID, item)
	})
}

// ListContentByCrisis returns all content tied to a crisis, replies and
// shares included.
func (s *BadgerStore) ListContentByCrisis(_ context.Context, crisisID string) ([]models.ContentItem, error) {
	var items []models.ContentItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(contentCrisisKeyPrefix + crisisID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var contentID string
			if err := it.Item().Value(func(val []byte) error {
				contentID = string(val)
				return nil
			}); err != nil {
				return err
			}

			var item models.ContentItem
			if err := getJSON(txn, contentKeyPrefix+contentID, &item); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					continue // index entry without item, skip
				}
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListScanCandidates returns content items above the engagement floor that
// were never scored or whose last evaluation is stale.
func (s *BadgerStore) ListScanCandidates(_ context.Context, filter ScanFilter) ([]models.ContentItem, error) {
	var items []models.ContentItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(contentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item models.ContentItem
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return err
			}

			if item.TotalInteractions() < filter.MinInteractions {
				continue
			}
			if !filter.CreatedAfter.IsZero() && item.CreatedAt.Before(filter.CreatedAfter) {
				continue
			}
			if item.LastScoredAt != nil && item.LastScoredAt.After(filter.StaleBefore) {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementEngagement atomically applies an engagement delta.
func (s *BadgerStore) IncrementEngagement(_ context.Context, id string, kind models.EngagementKind, delta int64) (*models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, contentKeyPrefix+id, &item); err != nil {
			return err
		}
		if err := item.Increment(kind, delta); err != nil {
			return err
		}
		return setJSON(txn, contentKeyPrefix+id, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateContentScore records a scan outcome. The item is reloaded and only
// the threat level and evaluation time are rewritten, so engagement applied
// between a candidate listing and this write survives.
func (s *BadgerStore) UpdateContentScore(_ context.Context, id string, threatLevel float64, scoredAt time.Time) (*models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, contentKeyPrefix+id, &item); err != nil {
			return err
		}
		item.ThreatLevel = threatLevel
		item.LastScoredAt = &scoredAt
		return setJSON(txn, contentKeyPrefix+id, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RaiseViralCoefficient ratchets the item's viral coefficient up to vc.
// A value at or below the stored one writes nothing, so the coefficient
// never decreases regardless of caller interleaving.
func (s *BadgerStore) RaiseViralCoefficient(_ context.Context, id string, vc float64) (*models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, contentKeyPrefix+id, &item); err != nil {
			return err
		}
		if vc <= item.ViralCoefficient {
			return nil
		}
		item.ViralCoefficient = vc
		return setJSON(txn, contentKeyPrefix+id, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- UserStore ---

// CreateUser stores a new synthetic user.
func (s *BadgerStore) CreateUser(_ context.Context, user *models.SyntheticUser) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, userKeyPrefix+user.ID, user)
	})
}

// GetUser retrieves a user by id.
func (s *BadgerStore) GetUser(_ context.Context, id string) (*models.SyntheticUser, error) {
	var user models.SyntheticUser
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKeyPrefix+id, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser overwrites an existing user.
func (s *BadgerStore) UpdateUser(ctx context.Context, user *models.SyntheticUser) error {
	if _, err := s.GetUser(ctx, user.ID); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, userKeyPrefix+user.ID, user)
	})
}

// ListUsers returns users of the given type; an empty type returns all.
func (s *BadgerStore) ListUsers(_ context.Context, userType models.UserType) ([]models.SyntheticUser, error) {
	var users []models.SyntheticUser
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user models.SyntheticUser
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return err
			}
			if userType != "" && user.Type != userType {
				continue
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// --- CrisisStore ---

// CreateCrisis stores a new crisis.
func (s *BadgerStore) CreateCrisis(_ context.Context, crisis *models.Crisis) error {
	if crisis.ID == "" {
		crisis.ID = uuid.New().String()
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, crisisKeyPrefix+crisis.ID, crisis)
	})
}

// GetCrisis retrieves a crisis by id.
func (s *BadgerStore) GetCrisis(_ context.Context, id string) (*models.Crisis, error) {
	var crisis models.Crisis
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, crisisKeyPrefix+id, &crisis)
	})
	if err != nil {
		return nil, err
	}
	return &crisis, nil
}

// UpdateCrisis overwrites an existing crisis.
func (s *BadgerStore) UpdateCrisis(ctx context.Context, crisis *models.Crisis) error {
	if _, err := s.GetCrisis(ctx, crisis.ID); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, crisisKeyPrefix+crisis.ID, crisis)
	})
}

// GetActiveCrisis returns the currently active crisis.
func (s *BadgerStore) GetActiveCrisis(ctx context.Context) (*models.Crisis, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(activeCrisisKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("active crisis: %w", models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get active crisis: %w", err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetCrisis(ctx, id)
}

// SetActiveCrisis records which crisis is active; empty id clears it.
func (s *BadgerStore) SetActiveCrisis(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if id == "" {
			err := txn.Delete([]byte(activeCrisisKey))
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("clear active crisis: %w", err)
			}
			return nil
		}
		return txn.Set([]byte(activeCrisisKey), []byte(id))
	})
}

// --- ThreatStore ---

// UpsertThreat creates or updates the threat record for a content item.
// Updates preserve identity, creation time, and addressed state so that
// rescoring never duplicates or un-addresses a record.
func (s *BadgerStore) UpsertThreat(_ context.Context, record *models.ThreatRecord) (*models.ThreatRecord, bool, error) {
	now := time.Now()
	var stored models.ThreatRecord
	var created bool

	err := s.db.Update(func(txn *badger.Txn) error {
		idxKey := threatContentKeyPrefix + record.ContentID

		var existingID string
		item, err := txn.Get([]byte(idxKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// New record below.
		case err != nil:
			return fmt.Errorf("get threat index: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				existingID = string(val)
				return nil
			}); err != nil {
				return err
			}
		}

		if existingID == "" {
			created = true
			stored = *record
			if stored.ID == "" {
				stored.ID = uuid.New().String()
			}
			stored.CreatedAt = now
			stored.UpdatedAt = now
			if err := setJSON(txn, threatKeyPrefix+stored.ID, &stored); err != nil {
				return err
			}
			return txn.Set([]byte(idxKey), []byte(stored.ID))
		}

		if err := getJSON(txn, threatKeyPrefix+existingID, &stored); err != nil {
			return err
		}
		stored.Score = record.Score
		stored.Severity = record.Severity
		stored.Reasons = record.Reasons
		stored.UpdatedAt = now
		return setJSON(txn, threatKeyPrefix+existingID, &stored)
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

// GetThreat retrieves a threat record by id.
func (s *BadgerStore) GetThreat(_ context.Context, id string) (*models.ThreatRecord, error) {
	var record models.ThreatRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, threatKeyPrefix+id, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetThreatByContent retrieves the threat record for a content item.
func (s *BadgerStore) GetThreatByContent(_ context.Context, contentID string) (*models.ThreatRecord, error) {
	var record models.ThreatRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(threatContentKeyPrefix + contentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("threat for content %s: %w", contentID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get threat index: %w", err)
		}
		var threatID string
		if err := item.Value(func(val []byte) error {
			threatID = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, threatKeyPrefix+threatID, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListThreats returns threat records matching the filter, ordered by score
// descending.
func (s *BadgerStore) ListThreats(_ context.Context, filter ThreatFilter) ([]models.ThreatRecord, error) {
	var records []models.ThreatRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(threatKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record models.ThreatRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			if filter.Addressed != nil && record.Addressed != *filter.Addressed {
				continue
			}
			if record.Score < filter.MinScore {
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

// MarkThreatAddressed transitions a threat to addressed exactly once.
func (s *BadgerStore) MarkThreatAddressed(_ context.Context, id, responseID string) (*models.ThreatRecord, error) {
	var record models.ThreatRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, threatKeyPrefix+id, &record); err != nil {
			return err
		}
		if record.Addressed {
			return fmt.Errorf("threat %s already addressed: %w", id, models.ErrConflict)
		}
		now := time.Now()
		record.Addressed = true
		record.AddressedAt = &now
		record.ResponseID = responseID
		record.UpdatedAt = now
		return setJSON(txn, threatKeyPrefix+id, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// --- CounterStore ---

// IncrementCounter atomically adds delta to a named counter and returns the
// new value.
func (s *BadgerStore) IncrementCounter(_ context.Context, name string, delta int64) (int64, error) {
	var value int64
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(counterKeyPrefix + name)
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			value = 0
		case err != nil:
			return fmt.Errorf("get counter %s: %w", name, err)
		default:
			if err := item.Value(func(val []byte) error {
				parsed, perr := strconv.ParseInt(string(val), 10, 64)
				if perr != nil {
					return fmt.Errorf("parse counter %s: %w", name, perr)
				}
				value = parsed
				return nil
			}); err != nil {
				return err
			}
		}
		value += delta
		return txn.Set(key, []byte(strconv.FormatInt(value, 10)))
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// GetCounter returns the current value of a named counter; missing counters
// read as zero.
func (s *BadgerStore) GetCounter(_ context.Context, name string) (int64, error) {
	var value int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(counterKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get counter %s: %w", name, err)
		}
		return item.Value(func(val []byte) error {
			parsed, perr := strconv.ParseInt(string(val), 10, 64)
			if perr != nil {
				return fmt.Errorf("parse counter %s: %w", name, perr)
			}
			value = parsed
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// --- Reset ---

// Reset clears content, threats, indexes and counters, and returns every
// crisis to dormant.
func (s *BadgerStore) Reset(_ context.Context) error {
	// Collect keys to delete and crises to dormant outside the write txn.
	var deleteKeys [][]byte
	var crises []models.Crisis

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixes := []string{
			contentKeyPrefix, contentCrisisKeyPrefix,
			threatKeyPrefix, threatContentKeyPrefix,
			counterKeyPrefix,
		}
		for _, p := range prefixes {
			prefix := []byte(p)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				deleteKeys = append(deleteKeys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(crisisKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var crisis models.Crisis
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &crisis)
			}); err != nil {
				return err
			}
			crises = append(crises, crisis)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range deleteKeys {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		now := time.Now()
		for i := range crises {
			crisis := &crises[i]
			if crisis.CurrentPhase != models.PhaseDormant {
				crisis.CurrentPhase = models.PhaseDormant
				if crisis.EndedAt == nil {
					crisis.EndedAt = &now
				}
			}
			if err := setJSON(txn, crisisKeyPrefix+crisis.ID, crisis); err != nil {
				return err
			}
		}
		err := txn.Delete([]byte(activeCrisisKey))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("clear active crisis: %w", err)
		}
		return nil
	})
}
