package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
)

// Memory is an in-memory record store and ingest log with the same
// semantics as Postgres: per-batch atomic appends, stable query ordering.
// It backs unit tests and local runs without a database.
type Memory struct {
	mu       sync.RWMutex
	raw      []contracts.RawRecord
	enriched []contracts.EnrichedRecord
	outcomes []contracts.IngestOutcome
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// AppendBatch appends the batch and its outcome under one lock, so a
// concurrent reader sees either all of the batch or none of it.
func (m *Memory) AppendBatch(_ context.Context, raw []contracts.RawRecord, enriched []contracts.EnrichedRecord, outcome contracts.IngestOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = append(m.raw, raw...)
	m.enriched = append(m.enriched, enriched...)
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

// Records returns a filtered copy of the enriched records, most recent date
// first, then campaign name.
func (m *Memory) Records(_ context.Context, filter contracts.RecordFilter) ([]contracts.EnrichedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	campaign := strings.ToLower(filter.Campaign)
	out := make([]contracts.EnrichedRecord, 0, len(m.enriched))
	for _, e := range m.enriched {
		if campaign != "" && !strings.Contains(strings.ToLower(e.CampaignName), campaign) {
			continue
		}
		if filter.DateFrom != nil && e.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.Date.After(*filter.DateTo) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CampaignName < out[j].CampaignName
	})
	return out, nil
}

// RawCount reports how many raw records have been appended.
func (m *Memory) RawCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.raw)
}

// Record appends an outcome without any batch rows.
func (m *Memory) Record(_ context.Context, outcome contracts.IngestOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

// Recent returns up to limit outcomes, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]contracts.IngestOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]contracts.IngestOutcome, 0, limit)
	for i := len(m.outcomes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.outcomes[i])
	}
	return out, nil
}

// PruneBefore drops outcomes older than cutoff.
func (m *Memory) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.outcomes[:0]
	var removed int64
	for _, o := range m.outcomes {
		if o.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	m.outcomes = kept
	return removed, nil
}
