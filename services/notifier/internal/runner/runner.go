// Package runner drives the single-threaded poll loop: fetch the feed,
// reconcile reminders, send the digest, check for subscription commands, sleep.
package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/clock"
	"github.com/stoik/launchwatch/services/notifier/internal/config"
	"github.com/stoik/launchwatch/services/notifier/internal/metrics"
	"github.com/stoik/launchwatch/services/notifier/internal/provider"
	"go.uber.org/zap"
)

type Reconciler interface {
	Reconcile(ctx context.Context, launches []models.Launch)
}

type Digest interface {
	Tick(ctx context.Context, now time.Time, launches []models.Launch)
}

type CommandChecker interface {
	Check(ctx context.Context) (bool, error)
}

// Schedule is the part of the configuration the loop itself needs.
type Schedule struct {
	PollInterval time.Duration
	ShouldExit   bool
	ExitTime     config.TimeOfDay
}

type Runner struct {
	schedule  Schedule
	clock     clock.Clock
	feed      provider.Feed
	reminders Reconciler
	digest    Digest
	commands  CommandChecker
	log       *zap.SugaredLogger
}

func New(schedule Schedule, clk clock.Clock, feed provider.Feed, reminders Reconciler, digest Digest, commands CommandChecker, log *zap.SugaredLogger) *Runner {
	return &Runner{
		schedule:  schedule,
		clock:     clk,
		feed:      feed,
		reminders: reminders,
		digest:    digest,
		commands:  commands,
		log:       log,
	}
}

// Run loops until the configured exit time or until ctx is cancelled. The
// process only stops between iterations. A panic inside an iteration is
// logged and re-raised.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorw("Unexpected failure in poll loop", "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			panic(p)
		}
	}()

	r.log.Infow("Starting poll loop", "interval", r.schedule.PollInterval, "shouldExit", r.schedule.ShouldExit)

	for {
		if r.ShouldExit(r.clock.Now()) {
			r.log.Infow("Exit time reached, stopping poll loop", "exitTime", r.schedule.ExitTime)
			return nil
		}

		r.Iterate(ctx)

		select {
		case <-ctx.Done():
			r.log.Infow("Poll loop cancelled")
			return nil
		case <-time.After(r.schedule.PollInterval):
		}
	}
}

// ShouldExit reports whether now is within config.ExitWindow of today's exit time.
func (r *Runner) ShouldExit(now time.Time) bool {
	if !r.schedule.ShouldExit {
		return false
	}
	diff := now.Sub(r.schedule.ExitTime.On(now))
	if diff < 0 {
		diff = -diff
	}
	return diff < config.ExitWindow
}

// Iterate runs one poll cycle. A feed failure skips the reminder and digest
// steps; the subscription check still runs.
func (r *Runner) Iterate(ctx context.Context) {
	launches, err := r.feed.Launches(ctx)
	if err != nil {
		metrics.PollErrors.WithLabelValues("feed").Inc()
		r.log.Errorw("Failed to fetch launch feed", "error", err)
	} else {
		r.reminders.Reconcile(ctx, launches)
		r.digest.Tick(ctx, r.clock.Now(), launches)
	}

	changed, err := r.commands.Check(ctx)
	if err != nil {
		metrics.PollErrors.WithLabelValues("subscription").Inc()
		r.log.Errorw("Failed to check subscription commands", "error", err)
	}
	if changed {
		r.log.Infow("Subscriptions changed")
	}
}
