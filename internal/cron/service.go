package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"

	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/metrics"
)

const defaultSchedule = "@every 1h"

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Schedule accepts five-field expressions and descriptors like "@every 1h".
	Schedule string
	// JobTimeout bounds a single job run; zero means no bound.
	JobTimeout time.Duration
}

// Service runs the registered jobs on a schedule. A cycle only runs on the
// instance that wins the distributed lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	schedule   robfig.Schedule
	expr       string
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	case params.JobTimeout < 0:
		return nil, errors.New("job timeout must not be negative")
	}

	expr := params.Schedule
	if expr == "" {
		expr = defaultSchedule
	}
	schedule, err := robfig.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", expr, err)
	}

	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		schedule:   schedule,
		expr:       expr,
		jobTimeout: params.JobTimeout,
	}, nil
}

// Run fires one cycle at startup and then one per schedule tick until ctx is
// canceled. It waits for an in-flight cycle before returning ctx.Err().
func (s *Service) Run(ctx context.Context) error {
	cl := cronLogger{ctx: ctx, logg: s.logg}
	scheduler := robfig.New(robfig.WithChain(robfig.Recover(cl), robfig.SkipIfStillRunning(cl)))
	tick := robfig.FuncJob(func() { s.tick(ctx) })

	tick()
	scheduler.Schedule(s.schedule, tick)
	scheduler.Start()
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"schedule": s.expr,
		"jobs":     s.registry.Names(),
	}), "cron.started")

	<-ctx.Done()
	<-scheduler.Stop().Done()
	s.logg.Info(ctx, "cron.stopped")
	return ctx.Err()
}

func (s *Service) tick(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

// runCycle holds the lock for the whole cycle. A failing job does not stop
// the jobs registered after it.
func (s *Service) runCycle(ctx context.Context) error {
	won, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !won {
		s.metrics.CycleSkipped()
		s.logg.Info(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	failed := 0
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		if s.runJob(ctx, job) != nil {
			failed++
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "failed_jobs", failed), "cron.cycle_done")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	runCtx, cancel := jobCtx, context.CancelFunc(func() {})
	if s.jobTimeout > 0 {
		runCtx, cancel = context.WithTimeout(jobCtx, s.jobTimeout)
	}
	defer cancel()

	start := time.Now()
	err := job.Run(runCtx)
	elapsed := time.Since(start)
	s.metrics.JobFinished(job.Name(), elapsed, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return err
	}
	s.logg.Info(jobCtx, "cron.job_done")
	return nil
}

// cronLogger adapts robfig's logger interface.
type cronLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logg.Debug(l.logg.WithFields(l.ctx, pairs(keysAndValues)), "cron: "+msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logg.Error(l.logg.WithFields(l.ctx, pairs(keysAndValues)), "cron: "+msg, err)
}

func pairs(kv []any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
