// Package store persists video records in a pluggable key/value backend.
//
// Backends are dumb string stores. RecordStore layers the persistence
// policy on top: JSON encoding, whole-record overwrites, corrupt values
// treated as absent, and the age-based eviction sweep.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/metrics"
	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/videokey"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

// Backend is a string key/value store scoped to one deployment.
type Backend interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	Close() error
}

// RecordStore loads, saves and sweeps video records.
type RecordStore struct {
	backend Backend
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecordStore creates a RecordStore over backend. m may be nil.
func NewRecordStore(backend Backend, m *metrics.Metrics) *RecordStore {
	return &RecordStore{
		backend: backend,
		metrics: m,
		now:     time.Now,
	}
}

// SetClock replaces the clock used to stamp saved records.
func (s *RecordStore) SetClock(now func() time.Time) {
	s.now = now
}

// Load returns the record stored under key. A missing or unparsable value
// yields found == false and no error; only backend failures are returned.
func (s *RecordStore) Load(ctx context.Context, key string) (*models.VideoRecord, bool, error) {
	defer s.metrics.ObserveStore("load", time.Now())

	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	record, err := decodeRecord(raw)
	if err != nil {
		s.metrics.CorruptRecord()
		logger.Log.Warn("Stored record is corrupt, treating as absent",
			zap.String("videoId", key),
			zap.Error(err),
		)
		return nil, false, nil
	}

	return record, true, nil
}

// Save overwrites the record under key. CreatedAt is filled in on first
// save and LastAccessed is stamped with the current time. The caller's
// record is not modified; the stored copy is returned.
func (s *RecordStore) Save(ctx context.Context, key string, record *models.VideoRecord) (*models.VideoRecord, error) {
	defer s.metrics.ObserveStore("save", time.Now())

	nowMs := s.now().UnixMilli()
	stored := models.VideoRecord{
		Events:       record.Events,
		CreatedAt:    record.CreatedAt,
		LastAccessed: nowMs,
	}
	if stored.CreatedAt == 0 {
		stored.CreatedAt = nowMs
	}
	if stored.Events == nil {
		stored.Events = []models.Event{}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", key, err)
	}

	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		return nil, fmt.Errorf("save %s: %w", key, err)
	}

	return &stored, nil
}

// SweepExpired deletes every video record created more than maxAgeDays
// before now, and every video key whose value does not parse. Records
// without a creation time are kept. Running it again with the same clock
// removes nothing further.
func (s *RecordStore) SweepExpired(ctx context.Context, maxAgeDays int, now time.Time) (int, error) {
	defer s.metrics.ObserveStore("sweep", time.Now())

	keys, err := s.backend.Keys(ctx, videokey.Prefix)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}

	maxAge := (time.Duration(maxAgeDays) * day).Milliseconds()
	nowMs := now.UnixMilli()

	var (
		removed int
		errs    []error
	)
	for _, key := range keys {
		raw, ok, err := s.backend.Get(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", key, err))
			continue
		}
		if !ok {
			continue
		}

		expired := false
		record, decodeErr := decodeRecord(raw)
		switch {
		case decodeErr != nil:
			s.metrics.CorruptRecord()
			logger.Log.Warn("Removing corrupt record",
				zap.String("videoId", key),
				zap.Error(decodeErr),
			)
			expired = true
		case record.CreatedAt != 0 && nowMs-record.CreatedAt > maxAge:
			expired = true
		}
		if !expired {
			continue
		}

		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		removed++
	}

	s.metrics.SweepRemoved(removed)
	if removed > 0 {
		logger.Log.Info("Retention sweep removed records",
			zap.Int("removed", removed),
			zap.Int("scanned", len(keys)),
			zap.Int("maxAgeDays", maxAgeDays),
		)
	}

	return removed, errors.Join(errs...)
}

// Ping checks the backend.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *RecordStore) Close() error {
	return s.backend.Close()
}

// decodeRecord parses a stored value. Anything other than a JSON object,
// including null, is corrupt.
func decodeRecord(raw string) (*models.VideoRecord, error) {
	if trimmed := strings.TrimSpace(raw); !strings.HasPrefix(trimmed, "{") {
		return nil, errors.New("record is not a JSON object")
	}

	var record models.VideoRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	if record.Events == nil {
		record.Events = []models.Event{}
	}
	return &record, nil
}
