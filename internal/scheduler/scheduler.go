// Package scheduler runs the pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/wizzomafizzo/divscan/internal/logging"
)

// Job is the work run on every tick
type Job func(ctx context.Context) error

// Scheduler triggers a job on a standard five field cron spec. A tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	schedule cron.Schedule
	loc      *time.Location
	job      Job
	spec     string
	running  atomic.Bool
}

// New parses spec in loc; a nil loc means UTC
func New(spec string, loc *time.Location, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler job is required")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{schedule: schedule, loc: loc, job: job, spec: spec}, nil
}

// Next returns the first activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run blocks until ctx is cancelled, then waits for a running job to return
func (s *Scheduler) Run(ctx context.Context) error {
	log := logging.Get(ctx)
	logger := cronLogger{log: log}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.trigger(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	c.Start()
	log.Info().Str("cron", s.spec).Str("tz", s.loc.String()).
		Time("next", s.Next(time.Now())).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
	return nil
}

// trigger runs the job unless a previous run is still active
func (s *Scheduler) trigger(ctx context.Context) {
	log := logging.Get(ctx)

	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("previous run still active, tick skipped")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	log.Info().Msg("scheduled run started")
	if err := s.job(ctx); err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("scheduled run failed")
		return
	}
	log.Info().Dur("elapsed", time.Since(start)).Time("next", s.Next(time.Now())).
		Msg("scheduled run finished")
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
