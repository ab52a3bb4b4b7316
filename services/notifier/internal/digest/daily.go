package digest

import (
	"context"
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/mail"
	"github.com/stoik/launchwatch/services/notifier/internal/metrics"
	"go.uber.org/zap"
)

// Recipients lists the addresses the digest goes to.
type Recipients interface {
	List(ctx context.Context) ([]string, error)
}

// Daily owns the digest gate and the notifications of the current day that
// have not been sent yet. Failed sends stay pending and are retried on the
// next Tick of the same day.
type Daily struct {
	gate       *Gate
	horizon    time.Duration
	renderer   Renderer
	sink       mail.Sender
	recipients Recipients
	log        *zap.SugaredLogger

	pending []Notification
	day     Day
}

func NewDaily(gate *Gate, horizon time.Duration, renderer Renderer, sink mail.Sender, recipients Recipients, log *zap.SugaredLogger) *Daily {
	return &Daily{
		gate:       gate,
		horizon:    horizon,
		renderer:   renderer,
		sink:       sink,
		recipients: recipients,
		log:        log,
	}
}

// Pending returns the number of digest notifications still waiting to be sent.
func (d *Daily) Pending() int {
	return len(d.pending)
}

// Tick generates today's digest when it is due and sends whatever is pending.
func (d *Daily) Tick(ctx context.Context, now time.Time, launches []models.Launch) {
	if day := DayOf(now); day != d.day {
		if len(d.pending) > 0 {
			d.log.Warnw("Dropping unsent digest notifications from previous day", "count", len(d.pending))
		}
		d.pending = nil
		d.day = day
	}

	if d.gate.Due(now) {
		d.pending = Generate(launches, d.horizon, now, d.renderer, d.log)
		d.gate.MarkSent()
		d.log.Infow("Daily digest generated", "notifications", len(d.pending), "horizon", d.horizon)
	}
	if len(d.pending) == 0 {
		return
	}

	recipients, err := d.recipients.List(ctx)
	if err != nil {
		d.log.Errorw("Failed to list recipients for digest", "error", err)
		return
	}

	var unsent []Notification
	for _, n := range d.pending {
		if err := d.sink.Send(recipients, n.Subject, n.Body); err != nil {
			d.log.Errorw("Failed to send digest notification", "launchID", n.LaunchID, "error", err)
			unsent = append(unsent, n)
			continue
		}
		metrics.DigestsSent.Inc()
	}
	d.pending = unsent
}
