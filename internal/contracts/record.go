package contracts

import "time"

// RawRow is one candidate row as submitted by an upload: column name to raw
// cell value, before any validation or type coercion.
type RawRow map[string]string

// RawRecord is a validated, typed marketing performance row. Records are
// append-only: once accepted they are never updated or deleted.
type RawRecord struct {
	Date         time.Time `json:"date"`
	CampaignName string    `json:"campaign_name"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Spend        float64   `json:"spend"`
	Revenue      float64   `json:"revenue"`
}

// EnrichedRecord is a RawRecord plus derived metrics. It is recomputable at
// any time from its RawRecord and is never hand-edited.
type EnrichedRecord struct {
	RawRecord
	CTR          float64   `json:"ctr"` // percent
	CPC          float64   `json:"cpc"`
	ROI          float64   `json:"roi"` // percent
	CalculatedAt time.Time `json:"calculated_at"`
}

// IngestStatus classifies the outcome of one batch ingest.
type IngestStatus string

const (
	StatusSuccess IngestStatus = "success" // every submitted row accepted
	StatusPartial IngestStatus = "partial" // some rows rejected, at least one accepted
	StatusFailed  IngestStatus = "failed"  // zero rows accepted or structural failure
)

// IngestOutcome is the audit record written once per batch ingest.
type IngestOutcome struct {
	SourceName    string       `json:"source_name"`
	RowsSubmitted int          `json:"rows_submitted"`
	RowsAccepted  int          `json:"rows_accepted"`
	Status        IngestStatus `json:"status"`
	Timestamp     time.Time    `json:"timestamp"`
	ErrorDetail   string       `json:"error_detail,omitempty"`
}

// RowError reports why a single row was rejected. Index refers to the row's
// position in the submitted batch, zero-based.
type RowError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// IngestResult carries everything one ingest call produced: the accepted
// enriched rows, per-row rejections, and the recorded outcome.
type IngestResult struct {
	Accepted          []EnrichedRecord `json:"accepted"`
	Rejected          []RowError       `json:"rejected,omitempty"`
	DroppedDuplicates int              `json:"dropped_duplicates"`
	Outcome           IngestOutcome    `json:"outcome"`
}
