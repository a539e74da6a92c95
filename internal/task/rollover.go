package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-stats/pkg/jobcontext"
)

const rolloverJobType = "stats_rollover"

// RollOver is the part of the statistics service the scheduler drives
type RollOver interface {
	RollOverMonth(ctx context.Context) (int64, error)
}

// RolloverScheduler runs the monthly baseline rollover on a cron schedule
type RolloverScheduler struct {
	service  RollOver
	schedule string
	timeout  time.Duration
	logger   *zap.Logger

	cron *cron.Cron
	// one rollover at a time, a slow run skips the next tick
	running sync.Mutex
}

// NewRolloverScheduler parses schedule (standard five-field cron, UTC) and
// returns a stopped scheduler
func NewRolloverScheduler(service RollOver, schedule string, timeout time.Duration, logger *zap.Logger) (*RolloverScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &RolloverScheduler{
		service:  service,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background
func (s *RolloverScheduler) Start() {
	s.cron.Start()
	s.logger.Info("📅 Rollover scheduler started", zap.String("schedule", s.schedule))
}

// Stop halts the schedule and waits for a running rollover to finish or ctx to expire
func (s *RolloverScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Rollover still running at shutdown")
	}
}

// NextRun reports when the rollover will fire next
func (s *RolloverScheduler) NextRun(from time.Time) time.Time {
	sched, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(from.UTC())
}

func (s *RolloverScheduler) tick() {
	if !s.running.TryLock() {
		s.logger.Warn("Skipping rollover, previous run still in progress")
		return
	}
	defer s.running.Unlock()

	if _, err := s.Run(context.Background()); err != nil {
		s.logger.Error("Rollover job failed", zap.Error(err))
	}
}

// Run performs one rollover immediately
func (s *RolloverScheduler) Run(parent context.Context) (int64, error) {
	ctx, cancel := jobcontext.JobBegin(parent, rolloverJobType, s.timeout)
	defer cancel()

	meta := jobcontext.GetJobMetadata(ctx)
	logger := s.logger.With(zap.String("job_id", meta.JobID.String()), zap.String("job_type", meta.JobType))

	var rows int64
	err := jobcontext.JobEnd(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.service.RollOverMonth(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info("✅ Rollover job completed",
		zap.Int64("rows", rows),
		zap.Duration("elapsed", time.Since(meta.StartTime)),
	)
	return rows, nil
}
