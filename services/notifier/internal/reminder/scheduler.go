// Package reminder tracks prelaunch reminders across feed snapshots and
// fires each one at most once per launch time.
package reminder

import (
	"context"
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/clock"
	"github.com/stoik/launchwatch/services/notifier/internal/mail"
	"github.com/stoik/launchwatch/services/notifier/internal/metrics"
	"github.com/stoik/launchwatch/services/notifier/internal/render"
	"go.uber.org/zap"
)

// Renderer produces reminder content for a launch.
type Renderer interface {
	Render(l models.Launch, launchTime time.Time) (render.Message, error)
}

// Recipients lists the addresses reminders go to.
type Recipients interface {
	List(ctx context.Context) ([]string, error)
}

type Options struct {
	// Lead is how long before launch the reminder fires.
	Lead time.Duration
	// CatchUpWindow bounds how late an overdue reminder may still fire.
	CatchUpWindow time.Duration
	// RearmMargin is how far FireAt must move into the future to re-arm a fired entry.
	RearmMargin time.Duration
	// Retention is how long past FireAt an entry is kept.
	Retention time.Duration
}

// Scheduler owns the reminder entries. It is not safe for concurrent use;
// the poll loop is its only caller.
type Scheduler struct {
	opts       Options
	clock      clock.Clock
	renderer   Renderer
	sink       mail.Sender
	recipients Recipients
	log        *zap.SugaredLogger

	entries map[string]*Entry
}

func NewScheduler(opts Options, clk clock.Clock, renderer Renderer, sink mail.Sender, recipients Recipients, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		opts:       opts,
		clock:      clk,
		renderer:   renderer,
		sink:       sink,
		recipients: recipients,
		log:        log,
		entries:    make(map[string]*Entry),
	}
}

// Len returns the number of tracked entries.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Entry returns a copy of the tracked entry for id.
func (s *Scheduler) Entry(id string) (Entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Reconcile applies a feed snapshot: add and update entries, re-arm, evict,
// then dispatch every entry that should fire.
func (s *Scheduler) Reconcile(ctx context.Context, launches []models.Launch) {
	now := s.clock.Now()

	s.upsert(launches)
	s.rearm(now)
	s.evict(now)
	s.fire(ctx, now)

	metrics.TrackedReminders.Set(float64(len(s.entries)))
}

func (s *Scheduler) upsert(launches []models.Launch) {
	loc := s.clock.Location()
	for _, l := range launches {
		launchTime, err := l.Time(loc)
		if err != nil {
			metrics.MalformedLaunches.Inc()
			s.log.Warnw("Skipping launch without usable time", "launchID", l.ID, "mission", l.Name, "error", err)
			continue
		}
		fireAt := launchTime.Add(-s.opts.Lead)
		id := l.Key()

		if e, ok := s.entries[id]; ok {
			if !e.FireAt.Equal(fireAt) {
				s.log.Infow("Reminder time changed", "launchID", id, "from", e.FireAt, "to", fireAt)
				e.FireAt = fireAt
			}
			continue
		}

		msg, err := s.renderer.Render(l, launchTime)
		if err != nil {
			s.log.Errorw("Failed to render reminder", "launchID", id, "error", err)
			continue
		}
		s.entries[id] = newEntry(id, msg.Subject, msg.Body, fireAt)
		s.log.Infow("Tracking reminder", "launchID", id, "mission", l.Name, "fireAt", fireAt)
	}
}

func (s *Scheduler) rearm(now time.Time) {
	for id, e := range s.entries {
		if e.ResetIfRearmed(now, s.opts.RearmMargin) {
			metrics.RemindersRearmed.Inc()
			s.log.Infow("Re-armed reminder", "launchID", id, "fireAt", e.FireAt)
		}
	}
}

func (s *Scheduler) evict(now time.Time) {
	for id, e := range s.entries {
		if now.Sub(e.FireAt) > s.opts.Retention {
			delete(s.entries, id)
			metrics.RemindersEvicted.Inc()
			s.log.Debugw("Evicted reminder", "launchID", id, "fireAt", e.FireAt, "fired", e.fired)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, now time.Time) {
	var due []*Entry
	for _, e := range s.entries {
		if e.ShouldFire(now, s.opts.CatchUpWindow) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return
	}

	recipients, err := s.recipients.List(ctx)
	if err != nil {
		s.log.Errorw("Failed to list recipients, reminders will retry next cycle", "due", len(due), "error", err)
		return
	}

	for _, e := range due {
		if err := e.Dispatch(s.sink, recipients); err != nil {
			metrics.ReminderDispatchErrors.Inc()
			s.log.Errorw("Failed to dispatch reminder", "launchID", e.ID, "fireAt", e.FireAt, "error", err)
			continue
		}
		metrics.RemindersFired.Inc()
		s.log.Infow("Reminder sent", "launchID", e.ID, "recipients", len(recipients))
	}
}
