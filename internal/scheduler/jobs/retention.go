package jobs

import (
	"context"
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/pkg/logger"
)

// IngestLogRetentionJob prunes old ingest log entries. Records themselves
// are append-only forever; only the audit log has a retention window.
type IngestLogRetentionJob struct {
	log           contracts.IngestLog
	retentionDays int
	logger        *logger.Logger
}

// NewIngestLogRetentionJob creates the retention job.
func NewIngestLogRetentionJob(ingestLog contracts.IngestLog, retentionDays int, log *logger.Logger) *IngestLogRetentionJob {
	return &IngestLogRetentionJob{
		log:           ingestLog,
		retentionDays: retentionDays,
		logger:        log,
	}
}

// Name returns the job name.
func (j *IngestLogRetentionJob) Name() string {
	return "ingest_log_retention"
}

// Schedule runs daily at 03:10.
func (j *IngestLogRetentionJob) Schedule() string {
	return "0 10 3 * * *"
}

// Run prunes entries older than the retention window.
func (j *IngestLogRetentionJob) Run(ctx context.Context) error {
	if j.retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)
	removed, err := j.log.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.Format("2006-01-02"),
		}).Info("Pruned ingest log")
	}

	return nil
}
