package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/config"
	"github.com/stoik/launchwatch/services/notifier/internal/mail"
	"github.com/stoik/launchwatch/services/notifier/internal/metrics"
	"go.uber.org/zap"
)

// Mailbox returns the newest inbound message, or nil when the mailbox is empty.
type Mailbox interface {
	Latest(ctx context.Context) (*models.InboundMessage, error)
}

// Listener applies subscribe/unsubscribe commands found in the newest inbound message.
type Listener struct {
	mailbox     Mailbox
	store       Store
	cursor      Cursor
	sink        mail.Sender
	subscribe   config.Template
	unsubscribe config.Template
	log         *zap.SugaredLogger
}

func NewListener(mailbox Mailbox, store Store, cursor Cursor, sink mail.Sender, subscribe, unsubscribe config.Template, log *zap.SugaredLogger) *Listener {
	return &Listener{
		mailbox:     mailbox,
		store:       store,
		cursor:      cursor,
		sink:        sink,
		subscribe:   subscribe,
		unsubscribe: unsubscribe,
		log:         log,
	}
}

// Check processes the newest inbound message if it has not been seen yet.
// changed is true whenever a subscribe or unsubscribe was applied, even if
// the confirmation then failed; in that case the cursor is not advanced and
// the command is applied and confirmed again on the next Check.
func (l *Listener) Check(ctx context.Context) (changed bool, err error) {
	msg, err := l.mailbox.Latest(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch newest message: %w", err)
	}
	if msg == nil {
		return false, nil
	}

	last, err := l.cursor.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load cursor: %w", err)
	}
	// Persisted cursors keep microsecond precision.
	if !msg.ReceivedAt.Truncate(time.Microsecond).After(last.Truncate(time.Microsecond)) {
		return false, nil
	}

	action := Classify(Candidates(*msg))
	if action == ActionNone {
		l.log.Debugw("Newest message carries no command", "messageID", msg.MessageID, "from", msg.From)
		return false, l.advance(ctx, msg)
	}

	from, err := Normalize(msg.From)
	if err != nil {
		// An unparseable sender can never be confirmed; skip the message.
		l.log.Warnw("Ignoring command from invalid sender", "action", action, "from", msg.From, "error", err)
		return false, l.advance(ctx, msg)
	}

	var tmpl config.Template
	switch action {
	case ActionSubscribe:
		err = l.store.Add(ctx, from)
		tmpl = l.subscribe
	case ActionUnsubscribe:
		err = l.store.Remove(ctx, from)
		tmpl = l.unsubscribe
	}
	if err != nil {
		return false, fmt.Errorf("failed to %s %s: %w", action, from, err)
	}

	metrics.SubscriptionCommands.WithLabelValues(action.String()).Inc()
	l.log.Infow("Applied subscription command", "action", action, "from", from, "messageID", msg.MessageID)

	if err := l.sink.Send([]string{from}, tmpl.Subject, tmpl.Message); err != nil {
		return true, fmt.Errorf("failed to confirm %s to %s: %w", action, from, err)
	}
	return true, l.advance(ctx, msg)
}

func (l *Listener) advance(ctx context.Context, msg *models.InboundMessage) error {
	if err := l.cursor.Save(ctx, msg.ReceivedAt); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}
