// Package scheduler owns the recurring triggers: portfolio-wide price sync
// and the daily and weekly digest sweeps. Each trigger is its own cron entry.
// A run of one trigger never overlaps another run of the same trigger, and a
// failing run never stops the next one from firing.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/notify"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	jobPriceSync    = "price_sync"
	jobDailyDigest  = "daily_digest"
	jobWeeklyDigest = "weekly_digest"
)

type Syncer interface {
	SyncPrices(ctx context.Context, scope domain.Scope) (*pricesync.Result, error)
}

type Digester interface {
	Sweep(ctx context.Context, kind domain.DigestKind) (*notify.Result, error)
	SendTestDigest(ctx context.Context, userID int64) (*notify.Result, error)
}

type Scheduler struct {
	cron     *cron.Cron
	syncer   Syncer
	digester Digester
}

func New(cfg *config.Schedule, syncer Syncer, digester Digester) (*Scheduler, error) {
	logger := cronLogger{}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
		syncer:   syncer,
		digester: digester,
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{jobPriceSync, cfg.PriceSync, s.syncPrices},
		{jobDailyDigest, cfg.DailyDigest, s.sweep(domain.DigestDaily)},
		{jobWeeklyDigest, cfg.WeeklyDigest, s.sweep(domain.DigestWeekly)},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, guard(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", job.name, job.spec, err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts the triggers and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		log.Info("scheduler stopped")
	case <-ctx.Done():
		log.Warn("scheduler stop timed out with jobs still running")
	}
}

// TriggerDailyDigest runs the daily digest for one user right away and
// reports the outcome. It is independent of the recurring cadence. A panic in
// the digest run is returned as an error.
func (s *Scheduler) TriggerDailyDigest(ctx context.Context, userID int64) (res *notify.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("manual digest panicked",
				zap.Int64("userID", userID),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			res, err = nil, fmt.Errorf("manual digest for user %d panicked: %v", userID, r)
		}
	}()

	res, err = s.digester.SendTestDigest(ctx, userID)
	if err != nil {
		log.Warn("manual digest failed", zap.Int64("userID", userID), zap.Error(err))
		return res, err
	}

	log.Info("manual digest done", zap.Int64("userID", userID), zap.Int("sent", res.Sent))

	return res, nil
}

func (s *Scheduler) syncPrices(ctx context.Context) error {
	_, err := s.syncer.SyncPrices(ctx, domain.ScopeAll())
	return err
}

func (s *Scheduler) sweep(kind domain.DigestKind) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.digester.Sweep(ctx, kind)
		return err
	}
}

// guard turns run into a cron job that logs errors and panics instead of
// letting them escape.
func guard(name string, run func(context.Context) error) func() {
	return func() {
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				log.Error("scheduled job panicked",
					zap.String("job", name),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
			}
		}()

		if err := run(context.Background()); err != nil {
			log.Error("scheduled job failed, waiting for next run",
				zap.String("job", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}

		log.Debug("scheduled job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	}
}
