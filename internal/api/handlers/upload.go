package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/internal/ingest"
	"github.com/adpulse/adpulse/internal/metrics"
	"github.com/adpulse/adpulse/internal/pipeline"
	"github.com/adpulse/adpulse/internal/query"
	"github.com/adpulse/adpulse/pkg/logger"
)

// UploadHandler accepts CSV uploads and runs them through the ingest
// pipeline.
type UploadHandler struct {
	ingestor *pipeline.Ingestor
	queries  *query.Service
	logger   *logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(ingestor *pipeline.Ingestor, queries *query.Service, log *logger.Logger) *UploadHandler {
	return &UploadHandler{ingestor: ingestor, queries: queries, logger: log}
}

// uploadResponse is the transport shape of an ingest result.
type uploadResponse struct {
	Outcome           contracts.IngestOutcome `json:"outcome"`
	RowsAccepted      int                     `json:"rows_accepted"`
	Rejected          []contracts.RowError    `json:"rejected,omitempty"`
	DroppedDuplicates int                     `json:"dropped_duplicates"`
}

// UploadCSV handles POST /api/upload: a multipart form with a "file" field
// holding a CSV batch.
func (h *UploadHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(h.logger, w, http.StatusBadRequest, "File must be CSV format")
		return
	}

	rows, err := ingest.ReadCSV(file)
	if err != nil {
		outcome := h.ingestor.RecordFailure(ctx, header.Filename, err.Error(), 0)
		metrics.ObserveIngest(string(outcome.Status), 0, 0)
		respondError(h.logger, w, http.StatusBadRequest, "Unreadable CSV: "+err.Error())
		return
	}

	result, err := h.ingestor.Run(ctx, header.Filename, rows)
	if err != nil {
		var structural *contracts.StructuralError
		if errors.As(err, &structural) {
			metrics.ObserveIngest(string(contracts.StatusFailed), 0, 0)
			respondJSON(h.logger, w, http.StatusBadRequest, uploadResponse{Outcome: result.Outcome})
			return
		}

		var storeErr *contracts.StoreError
		if errors.As(err, &storeErr) {
			h.logger.WithError(err).Error("Record store unavailable during ingest")
			respondError(h.logger, w, http.StatusServiceUnavailable, "Record store unavailable")
			return
		}

		h.logger.WithError(err).Error("Ingest failed")
		respondError(h.logger, w, http.StatusInternalServerError, "Ingest failed")
		return
	}

	metrics.ObserveIngest(string(result.Outcome.Status), len(result.Accepted), len(result.Rejected))

	if len(result.Accepted) > 0 {
		h.queries.InvalidateCache(ctx)
	}

	status := http.StatusOK
	if result.Outcome.Status == contracts.StatusFailed {
		status = http.StatusBadRequest
	}

	respondJSON(h.logger, w, status, uploadResponse{
		Outcome:           result.Outcome,
		RowsAccepted:      len(result.Accepted),
		Rejected:          result.Rejected,
		DroppedDuplicates: result.DroppedDuplicates,
	})
}
