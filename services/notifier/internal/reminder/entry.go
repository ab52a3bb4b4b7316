package reminder

import (
	"time"

	"github.com/stoik/launchwatch/services/notifier/internal/mail"
)

// Entry is a single tracked prelaunch reminder.
type Entry struct {
	ID      string
	Subject string
	Body    string
	FireAt  time.Time

	fired bool
}

func newEntry(id, subject, body string, fireAt time.Time) *Entry {
	return &Entry{ID: id, Subject: subject, Body: body, FireAt: fireAt}
}

func (e *Entry) Fired() bool {
	return e.fired
}

// ShouldFire reports whether the entry is unfired, overdue, and still within
// the catch-up window. Entries further overdue than window never fire.
func (e *Entry) ShouldFire(now time.Time, window time.Duration) bool {
	return !e.fired &&
		now.After(e.FireAt) &&
		now.Sub(e.FireAt) < window
}

func (e *Entry) MarkFired() {
	e.fired = true
}

// ResetIfRearmed clears the fired flag when FireAt has moved more than margin
// into the future, so the reminder goes out again for the new time.
func (e *Entry) ResetIfRearmed(now time.Time, margin time.Duration) bool {
	if e.fired && e.FireAt.Sub(now) > margin {
		e.fired = false
		return true
	}
	return false
}

// Dispatch sends the reminder and marks it fired. On error the entry stays unfired.
func (e *Entry) Dispatch(sink mail.Sender, recipients []string) error {
	if err := sink.Send(recipients, e.Subject, e.Body); err != nil {
		return err
	}
	e.MarkFired()
	return nil
}
