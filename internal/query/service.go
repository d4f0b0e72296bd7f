package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/pkg/logger"
	"github.com/adpulse/adpulse/pkg/redis"
)

// Cache keys for the unfiltered aggregate views. Filtered queries are not
// cached; their key space is unbounded.
const (
	summaryCacheKey = "summary"
	dailyCacheKey   = "daily_rollup"
)

// Service answers aggregate queries over the accumulated record set. It
// reads a consistent snapshot from the store on every query, so concurrent
// ingests simply become visible on the next call.
type Service struct {
	store  contracts.RecordStore
	log    contracts.IngestLog
	cache  *redis.Cache
	logger *logger.Logger
}

// NewService creates a query service. cache may be backed by a disabled
// client, in which case every query goes straight to the store.
func NewService(store contracts.RecordStore, ingestLog contracts.IngestLog, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{store: store, log: ingestLog, cache: cache, logger: log}
}

// List returns enriched records matching the filter.
func (s *Service) List(ctx context.Context, filter contracts.RecordFilter) ([]contracts.EnrichedRecord, error) {
	recs, err := s.store.Records(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// Campaigns returns the distinct canonical campaign names, sorted.
func (s *Service) Campaigns(ctx context.Context) ([]string, error) {
	recs, err := s.store.Records(ctx, contracts.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range recs {
		if _, ok := seen[r.CampaignName]; !ok {
			seen[r.CampaignName] = struct{}{}
			names = append(names, r.CampaignName)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Summary computes the per-record-mean summary over the (optionally
// filtered) record set. The unfiltered summary is served from cache when
// available.
func (s *Service) Summary(ctx context.Context, filter contracts.RecordFilter) (Summary, error) {
	unfiltered := filter == (contracts.RecordFilter{})

	if unfiltered {
		var cached Summary
		if found, err := s.cache.Get(ctx, summaryCacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	recs, err := s.store.Records(ctx, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	sum := Summarize(recs)

	if unfiltered {
		if err := s.cache.Set(ctx, summaryCacheKey, sum, redis.TTLShort); err != nil {
			s.logger.WithError(err).Warn("Failed to cache summary")
		}
	}
	return sum, nil
}

// DailyRollup computes the per-day totals rollup over all records, cached
// briefly since it scans the full set.
func (s *Service) DailyRollup(ctx context.Context) ([]DailyPerformance, error) {
	var cached []DailyPerformance
	if found, err := s.cache.Get(ctx, dailyCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	recs, err := s.store.Records(ctx, contracts.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("daily rollup: %w", err)
	}
	days := RollupDaily(recs)

	if err := s.cache.Set(ctx, dailyCacheKey, days, redis.TTLShort); err != nil {
		s.logger.WithError(err).Warn("Failed to cache daily rollup")
	}
	return days, nil
}

// TopCampaigns ranks campaigns by the requested metric. The metric is
// checked before touching the store so a caller error never costs a scan.
func (s *Service) TopCampaigns(ctx context.Context, metric string, limit int) ([]CampaignTotals, error) {
	if !validRankMetric(metric) {
		return nil, fmt.Errorf("%w: %q (must be one of %v)", contracts.ErrUnknownMetric, metric, RankMetrics)
	}

	recs, err := s.store.Records(ctx, contracts.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("top campaigns: %w", err)
	}
	return RankCampaigns(recs, metric, limit)
}

// RecentOutcomes returns the most recent ingest outcomes, newest first.
func (s *Service) RecentOutcomes(ctx context.Context, limit int) ([]contracts.IngestOutcome, error) {
	if limit <= 0 {
		limit = 20
	}
	outcomes, err := s.log.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent ingest outcomes: %w", err)
	}
	return outcomes, nil
}

// InvalidateCache drops the cached aggregate views. Called after a
// successful ingest so the next query reflects the new records.
func (s *Service) InvalidateCache(ctx context.Context) {
	for _, key := range []string{summaryCacheKey, dailyCacheKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to invalidate cache")
		}
	}
}
