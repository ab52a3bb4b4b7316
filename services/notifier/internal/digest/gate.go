package digest

import (
	"time"

	"github.com/stoik/launchwatch/services/notifier/internal/config"
)

// Day is a calendar date in the zone of the time it was taken from.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Gate decides when the daily digest is due: once the configured send time
// has passed, at most once per calendar day. Wall clocks that repeat an hour
// (DST fall-back) do not reopen the gate.
type Gate struct {
	sendAt config.TimeOfDay
	today  Day
	sentOn Day
	sent   bool
}

func NewGate(sendAt config.TimeOfDay) *Gate {
	return &Gate{sendAt: sendAt}
}

// Due reports whether the digest should be sent at now.
func (g *Gate) Due(now time.Time) bool {
	g.today = DayOf(now)
	if g.sent && g.sentOn == g.today {
		return false
	}
	return sinceMidnight(now) >= g.sendAt.Offset()
}

// MarkSent closes the gate for the day of the last Due call.
func (g *Gate) MarkSent() {
	g.sentOn = g.today
	g.sent = true
}

func sinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
