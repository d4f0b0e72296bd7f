package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adpulse/adpulse/pkg/logger"
)

// Job is a unit of scheduled background work.
type Job interface {
	Name() string
	Schedule() string // cron expression with seconds
	Run(ctx context.Context) error
}

// Scheduler manages scheduled maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
	jobs   map[string]Job
	mu     sync.RWMutex
}

// New creates a new scheduler.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: log,
		jobs:   make(map[string]Job),
	}
}

// AddJob registers a job with the scheduler.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow runs a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	go s.runJob(job)
	return nil
}

func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	start := time.Now()

	s.logger.WithField("job", name).Info("Job started")

	err := job.Run(context.Background())
	duration := time.Since(start)

	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"job":      name,
			"duration": duration,
		}).Error("Job failed")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"duration": duration,
	}).Info("Job completed")
}
