package contracts

import (
	"context"
	"time"
)

// RecordFilter narrows a record query. Zero values mean "no constraint".
type RecordFilter struct {
	Campaign string     // case-insensitive substring match on campaign name
	DateFrom *time.Time // inclusive
	DateTo   *time.Time // inclusive
}

// RecordStore is the append-only owner of persisted records. AppendBatch
// must write the raw batch, the enriched batch, and the outcome atomically:
// either all of them become durable or none do.
type RecordStore interface {
	AppendBatch(ctx context.Context, raw []RawRecord, enriched []EnrichedRecord, outcome IngestOutcome) error
	Records(ctx context.Context, filter RecordFilter) ([]EnrichedRecord, error)
}

// IngestLog is the append-only audit trail of batch outcomes. The pipeline
// only writes it; reads serve the reporting surface.
type IngestLog interface {
	Record(ctx context.Context, outcome IngestOutcome) error
	Recent(ctx context.Context, limit int) ([]IngestOutcome, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
