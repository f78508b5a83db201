// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package telemetry

import (
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/figura/internal/schema"
)

// UsageRecord is one per-attempt accounting row.
type UsageRecord struct {
	RequestID        string              `json:"request_id"`
	VisualIntent     schema.VisualIntent `json:"visual_intent"`
	RenderingPath    schema.RenderingPath `json:"rendering_path"`
	GenerationTimeMs int64               `json:"generation_time_ms"`
	Success          bool                `json:"success"`
	ModelUsed        string              `json:"model_used,omitempty"`
	TokensUsed       int                 `json:"tokens_used,omitempty"`
	CostUSD          float64             `json:"cost_usd,omitempty"`
	CacheHit         bool                `json:"cache_hit"`
	RetryCount       int                 `json:"retry_count"`
	ErrorCode        string              `json:"error_code,omitempty"`
	RecordedAt       time.Time           `json:"recorded_at"`
}

// NewUsageRecord projects a generation result into an accounting row.
func NewUsageRecord(requestID string, result *schema.GenerationResult, costUSD float64) UsageRecord {
	rec := UsageRecord{
		RequestID:        requestID,
		RenderingPath:    result.RenderingPath,
		GenerationTimeMs: result.GenerationTimeMs,
		Success:          result.Success,
		ModelUsed:        result.ModelUsed,
		TokensUsed:       result.TokensUsed,
		CostUSD:          costUSD,
		CacheHit:         result.CacheHit,
		RetryCount:       result.RetryCount,
		ErrorCode:        result.ErrorCode,
		RecordedAt:       time.Now().UTC(),
	}
	if result.VisualSpec != nil {
		rec.VisualIntent = result.VisualSpec.Intent
	}
	return rec
}

// UsageRecorder persists accounting rows. Recording is best effort for
// callers: the pipeline logs failures but never fails a generation over
// bookkeeping.
type UsageRecorder interface {
	Record(rec UsageRecord) error
	Recent(limit int) ([]UsageRecord, error)
	Close() error
}

const usageKeyPrefix = "usage:"

// BadgerUsageRecorder stores rows in a Badger keyspace, keyed by recording
// time so Recent scans read newest-first via a reverse iterator.
type BadgerUsageRecorder struct {
	db *badger.DB
}

// OpenBadgerUsageRecorder opens (creating if needed) a recorder at dir.
func OpenBadgerUsageRecorder(dir string) (*BadgerUsageRecorder, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open usage store: %w", err)
	}
	return &BadgerUsageRecorder{db: db}, nil
}

// NewBadgerUsageRecorder wraps an already-open database, for deployments
// sharing one Badger instance between cache and usage keyspaces.
func NewBadgerUsageRecorder(db *badger.DB) *BadgerUsageRecorder {
	return &BadgerUsageRecorder{db: db}
}

func usageKey(rec UsageRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", usageKeyPrefix, rec.RecordedAt.UnixNano(), rec.RequestID))
}

// Record implements UsageRecorder.
func (r *BadgerUsageRecorder) Record(rec UsageRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode usage record: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(usageKey(rec), raw)
	})
}

// Recent implements UsageRecorder, returning up to limit rows newest-first.
func (r *BadgerUsageRecorder) Recent(limit int) ([]UsageRecord, error) {
	var out []UsageRecord
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(usageKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek past the prefix range end.
		seek := append([]byte(usageKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(usageKeyPrefix)) && len(out) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec UsageRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Close implements UsageRecorder.
func (r *BadgerUsageRecorder) Close() error { return r.db.Close() }

// MemoryUsageRecorder keeps rows in memory, for tests and for deployments
// that only want the Prometheus side of telemetry.
type MemoryUsageRecorder struct {
	mu   sync.Mutex
	rows []UsageRecord
}

// NewMemoryUsageRecorder builds an empty in-memory recorder.
func NewMemoryUsageRecorder() *MemoryUsageRecorder { return &MemoryUsageRecorder{} }

// Record implements UsageRecorder.
func (r *MemoryUsageRecorder) Record(rec UsageRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rec)
	return nil
}

// Recent implements UsageRecorder.
func (r *MemoryUsageRecorder) Recent(limit int) ([]UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.rows)
	if limit > n {
		limit = n
	}
	out := make([]UsageRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.rows[i])
	}
	return out, nil
}

// Close implements UsageRecorder.
func (r *MemoryUsageRecorder) Close() error { return nil }
