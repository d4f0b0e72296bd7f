package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/pkg/logger"
)

// Ingestor runs the validate -> clean -> enrich pipeline over one batch and
// appends the surviving rows to the record store. The pipeline itself is
// pure and synchronous; the store handle is passed in explicitly so the
// whole flow can be tested against an in-memory store.
type Ingestor struct {
	store  contracts.RecordStore
	log    contracts.IngestLog
	logger *logger.Logger
	now    func() time.Time
}

// NewIngestor creates an ingestor bound to a record store and ingest log.
func NewIngestor(store contracts.RecordStore, ingestLog contracts.IngestLog, log *logger.Logger) *Ingestor {
	return &Ingestor{
		store:  store,
		log:    ingestLog,
		logger: log,
		now:    time.Now,
	}
}

// Run ingests one batch. Row-level failures never abort the batch: the
// accepted rows are appended and the rejections are returned alongside them.
// A structural failure or a store failure aborts the ingest with nothing
// persisted beyond the failed outcome itself.
func (in *Ingestor) Run(ctx context.Context, source string, rows []contracts.RawRow) (*contracts.IngestResult, error) {
	started := in.now()

	typed, rejected, err := ValidateBatch(rows)
	if err != nil {
		outcome := contracts.IngestOutcome{
			SourceName:    source,
			RowsSubmitted: len(rows),
			Status:        contracts.StatusFailed,
			Timestamp:     started,
			ErrorDetail:   err.Error(),
		}
		if logErr := in.log.Record(ctx, outcome); logErr != nil {
			in.logger.WithError(logErr).Error("Failed to record failed ingest outcome")
		}
		return &contracts.IngestResult{Outcome: outcome}, err
	}

	cleaned, dropped := CleanBatch(typed)
	enriched := EnrichBatch(cleaned, started)

	outcome := contracts.IngestOutcome{
		SourceName:    source,
		RowsSubmitted: len(rows),
		RowsAccepted:  len(enriched),
		Status:        statusFor(len(enriched), len(rejected)),
		Timestamp:     started,
		ErrorDetail:   rejectionDetail(rejected),
	}
	result := &contracts.IngestResult{
		Accepted:          enriched,
		Rejected:          rejected,
		DroppedDuplicates: dropped,
		Outcome:           outcome,
	}

	if len(enriched) == 0 {
		if logErr := in.log.Record(ctx, outcome); logErr != nil {
			in.logger.WithError(logErr).Error("Failed to record failed ingest outcome")
		}
		return result, nil
	}

	// The store appends raw rows, enriched rows and the outcome in one
	// atomic write: either the batch is durable with its outcome or
	// neither is.
	if err := in.store.AppendBatch(ctx, cleaned, enriched, outcome); err != nil {
		return nil, fmt.Errorf("append batch from %q: %w", source, err)
	}

	in.logger.WithFields(map[string]interface{}{
		"source":     source,
		"submitted":  len(rows),
		"accepted":   len(enriched),
		"rejected":   len(rejected),
		"duplicates": dropped,
		"status":     string(outcome.Status),
	}).Info("Batch ingested")

	return result, nil
}

// RecordFailure logs a failed outcome for an ingest that never reached the
// pipeline, such as an unreadable upload.
func (in *Ingestor) RecordFailure(ctx context.Context, source, reason string, submitted int) contracts.IngestOutcome {
	outcome := contracts.IngestOutcome{
		SourceName:    source,
		RowsSubmitted: submitted,
		Status:        contracts.StatusFailed,
		Timestamp:     in.now(),
		ErrorDetail:   reason,
	}
	if err := in.log.Record(ctx, outcome); err != nil {
		in.logger.WithError(err).Error("Failed to record failed ingest outcome")
	}
	return outcome
}

// statusFor classifies the batch. Duplicate-dropped rows do not count as
// rejections: a duplicate was accepted, it just collapsed into its first
// occurrence.
func statusFor(accepted, rejected int) contracts.IngestStatus {
	switch {
	case accepted == 0:
		return contracts.StatusFailed
	case rejected > 0:
		return contracts.StatusPartial
	default:
		return contracts.StatusSuccess
	}
}

// rejectionDetail condenses row errors into the outcome's error text. The
// full per-row detail travels in the IngestResult; the log keeps a digest.
func rejectionDetail(rejected []contracts.RowError) string {
	if len(rejected) == 0 {
		return ""
	}
	const maxShown = 5
	parts := make([]string, 0, maxShown+1)
	for i, re := range rejected {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("and %d more", len(rejected)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf("row %d: %s", re.Index, re.Reason))
	}
	return strings.Join(parts, "; ")
}
