// Package jobs runs background jobs on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"medinsight/internal/metrics"
)

// ErrUnknownJob is returned by RunNow for a job that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a unit of background work.
type Job interface {
	Name() string
	Spec() string
	Run(ctx context.Context) error
}

// Scheduler is responsible for running background jobs
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	jobs      []Job

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool
}

// NewScheduler creates a scheduler for jobs. Schedules are evaluated in UTC.
func NewScheduler(logger *slog.Logger, enabled bool, jobs ...Job) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		enabled: enabled,
		jobs:    jobs,
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(job Job) (err error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", job.Name()))
		s.processingMutex.Unlock()
		return nil
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", job.Name()),
				slog.Any("panic", r))
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
		metrics.RecordJobRun(job.Name(), err)

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err = job.Run(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", job.Name()), slog.Any("error", err))
	}
	return err
}

// Start registers every job with cron and starts it.
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Spec(), func() { _ = s.executeJobSafely(job) }); err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
		}
		s.logger.Info("Scheduled job",
			slog.String("job", job.Name()),
			slog.String("spec", job.Spec()))
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Background jobs started", slog.Int("jobs", len(s.jobs)))
	return nil
}

// Stop halts all background jobs and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	<-s.cron.Stop().Done()
	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// RunNow triggers a registered job outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.executeJobSafely(job)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}
