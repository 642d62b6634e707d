// internal/scheduler/cron_scheduler.go
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"job-listings/internal/domain"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// cronScheduler triggers maintenance tasks at the right time. Specs carry a
// leading seconds field, or use the @every/@hourly descriptors.
type cronScheduler struct {
	cron   *cron.Cron
	mu     sync.Mutex
	tasks  map[string]cron.EntryID
	ctx    context.Context
	logger *slog.Logger
	tracer trace.Tracer
}

func NewCronScheduler(logger *slog.Logger) domain.Schedular {
	return &cronScheduler{
		cron:   cron.New(cron.WithSeconds()),
		tasks:  make(map[string]cron.EntryID),
		ctx:    context.Background(),
		logger: logger.With("component", "cron-scheduler"),
		tracer: otel.Tracer("job-listings-scheduler"),
	}
}

// Start runs the scheduler until ctx is done, then waits for running tasks.
func (s *cronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.logger.Info("cron scheduler started")
	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopping...")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("cron scheduler stopped")
	return ctx.Err()
}

// AddTask schedules task under name, replacing any task with the same name.
func (s *cronScheduler) AddTask(name, spec string, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
	}

	wrapper := &cronTaskWrapper{
		name:      name,
		task:      task,
		scheduler: s,
		logger:    s.logger.With("task", name),
	}

	entryID, err := s.cron.AddJob(spec, wrapper)
	if err != nil {
		s.logger.Error("failed to add task to cron", "task", name, "error", err)
		return err
	}

	s.tasks[name] = entryID
	s.logger.Info("added task to scheduler", "task", name, "schedule", spec)
	return nil
}

// RemoveTask removes a task from the scheduler.
func (s *cronScheduler) RemoveTask(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
		delete(s.tasks, name)
		s.logger.Info("removed task from scheduler", "task", name)
	}
	return nil
}

func (s *cronScheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// cronTaskWrapper adapts a domain.Task to cron.Job.
type cronTaskWrapper struct {
	name      string
	task      domain.Task
	scheduler *cronScheduler
	logger    *slog.Logger
}

// Run is called by the cron library.
func (w *cronTaskWrapper) Run() {
	ctx, span := w.scheduler.tracer.Start(w.scheduler.runContext(), "scheduler.RunTask",
		trace.WithAttributes(attribute.String("task.name", w.name)))
	defer span.End()

	w.logger.Debug("running task")
	if err := w.task(ctx); err != nil {
		w.logger.Error("task failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "task failed")
	}
}
