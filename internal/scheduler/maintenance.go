package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/tasks"
)

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Schedule string
	Task     backlite.Task

	entryID cron.EntryID
}

// JobsFromConfig builds the audit cleanup and copy reconciliation jobs. A job
// with an empty schedule is left out.
func JobsFromConfig(cfg *config.Config) []*Job {
	var jobs []*Job
	if cfg.Audit.CleanupSchedule != "" {
		jobs = append(jobs, &Job{
			Name:     "cleanup_audit_events",
			Schedule: cfg.Audit.CleanupSchedule,
			Task:     tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays},
		})
	}
	if cfg.Reconcile.Schedule != "" {
		jobs = append(jobs, &Job{
			Name:     "reconcile_copies",
			Schedule: cfg.Reconcile.Schedule,
			Task:     tasks.ReconcileCopiesTask{Repair: cfg.Reconcile.Repair},
		})
	}
	return jobs
}

// MaintenanceScheduler enqueues maintenance tasks on their cron schedules.
type MaintenanceScheduler struct {
	enqueuer Enqueuer
	jobs     []*Job
	logger   *zap.Logger

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(enqueuer Enqueuer, jobs []*Job, logger *zap.Logger) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		enqueuer: enqueuer,
		jobs:     jobs,
		logger:   logger.Named("scheduler"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start validates every schedule and begins the cron loop. It does nothing
// when there are no jobs.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if len(s.jobs) == 0 {
		s.logger.Info("Maintenance scheduler disabled, no jobs configured")
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	for _, job := range s.jobs {
		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.enqueue(s.ctx, job)
		})
		if err != nil {
			s.cancelFunc()
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		job.entryID = entryID
	}

	s.cron.Start()
	s.isRunning = true

	for _, job := range s.jobs {
		next, _ := NextRunTime(job.Schedule, time.Now())
		s.logger.Info("Scheduled maintenance job",
			zap.String("job", job.Name),
			zap.String("schedule", job.Schedule),
			zap.String("description", DescribeCronSchedule(job.Schedule)),
			zap.Time("next_run", next),
		)
	}

	go func(ctx context.Context) {
		<-ctx.Done()
		s.Stop()
	}(s.ctx)

	return nil
}

// Stop waits for running jobs and stops the cron loop.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	done := s.cron.Stop()
	<-done.Done()

	s.isRunning = false
	s.cancelFunc()
	s.logger.Info("Maintenance scheduler stopped")
}

// RunNow enqueues the named job immediately and returns the task ID.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, name string) (string, error) {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.enqueue(ctx, job)
		}
	}
	return "", fmt.Errorf("unknown maintenance job %q", name)
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTimes returns when each scheduled job fires next, keyed by job name.
func (s *MaintenanceScheduler) NextRunTimes() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time, len(s.jobs))
	if !s.isRunning {
		return next
	}
	for _, job := range s.jobs {
		if entry := s.cron.Entry(job.entryID); entry.Valid() {
			next[job.Name] = entry.Next
		}
	}
	return next
}

func (s *MaintenanceScheduler) enqueue(ctx context.Context, job *Job) (string, error) {
	id, err := s.enqueuer.Enqueue(ctx, job.Task)
	if err != nil {
		s.logger.Error("Failed to enqueue maintenance job", zap.String("job", job.Name), zap.Error(err))
		return "", err
	}
	s.logger.Info("Enqueued maintenance job", zap.String("job", job.Name), zap.String("task_id", id))
	return id, nil
}
