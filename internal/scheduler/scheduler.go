// Package scheduler runs the daily background jobs for the serve command.
package scheduler

import (
	"context"
	"sync"
	"time"

	"newsflow/internal/config"
	"newsflow/internal/logger"
	"newsflow/internal/metrics"
)

// Job runs once a day at At (local wall-clock time), and optionally once
// shortly after start.
type Job struct {
	Name       string
	At         config.ClockTime
	RunAtStart bool
	StartDelay time.Duration
	Run        func(ctx context.Context) error
}

// Supervisor owns the job loops. Jobs added after Start are not run.
type Supervisor struct {
	log  *logger.Logger
	jobs []Job

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(log *logger.Logger) *Supervisor {
	return &Supervisor{
		log:   log.With("component", "scheduler"),
		now:   time.Now,
		after: time.After,
	}
}

func (s *Supervisor) Add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start launches one goroutine per job. It returns immediately.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
	}
	s.log.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop cancels all job loops and waits for running jobs to return.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Supervisor) loop(ctx context.Context, job Job) {
	log := s.log.With("job", job.Name)

	if job.RunAtStart {
		select {
		case <-ctx.Done():
			return
		case <-s.after(job.StartDelay):
			s.run(ctx, log, job)
		}
	}

	for {
		next := NextRun(s.now(), job.At)
		log.Debug("next run scheduled", "at", next)
		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
			s.run(ctx, log, job)
		}
	}
}

func (s *Supervisor) run(ctx context.Context, log *logger.Logger, job Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	log.Info("job starting")
	err := job.Run(ctx)
	elapsed := time.Since(start)
	metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
	if err != nil {
		log.Error("job failed", "error", err, "duration", elapsed)
		return
	}
	log.Info("job completed", "duration", elapsed)
}

// NextRun returns the first occurrence of at strictly after now, in now's
// location.
func NextRun(now time.Time, at config.ClockTime) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, at.Hour, at.Minute, 0, 0, now.Location())
	}
	return next
}
