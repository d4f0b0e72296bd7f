package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/adpulse/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "prune", schedule: "0 10 3 * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name must be rejected")
}

func TestScheduler_AddJobBadSchedule(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "broken", schedule: "not a cron expression"}

	assert.Error(t, s.AddJob(job))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "prune", schedule: "0 10 3 * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunNow("prune"))

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(&countingJob{name: "prune", schedule: "0 10 3 * * *"}))

	s.Start()
	s.Stop()
}
