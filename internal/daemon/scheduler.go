package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// jobTag marks the watch jobs.
const jobTag = "watch"

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval, starting immediately. A run that is still
// in progress when the next one is due delays it instead of overlapping.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.schedule(name, gocron.DurationJob(interval), task, gocron.WithStartAt(gocron.WithStartImmediately()))
}

// ScheduleCron runs task on a standard five-field cron expression.
func (s *Scheduler) ScheduleCron(name, expr string, task func()) (string, error) {
	return s.schedule(name, gocron.CronJob(expr, false), task)
}

func (s *Scheduler) schedule(name string, def gocron.JobDefinition, task func(), extra ...gocron.JobOption) (string, error) {
	opts := append([]gocron.JobOption{
		gocron.WithName(name),
		gocron.WithTags(jobTag),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, extra...)

	job, err := s.scheduler.NewJob(def, gocron.NewTask(task), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// Remove removes the job with the given id.
func (s *Scheduler) Remove(id string) error {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", id, err)
	}
	return s.scheduler.RemoveJob(jobID)
}

// JobCount returns the number of scheduled jobs.
func (s *Scheduler) JobCount() int {
	return len(s.scheduler.Jobs())
}
