// Package digest builds the once-a-day summary of upcoming launches.
package digest

import (
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/render"
	"go.uber.org/zap"
)

// Renderer produces digest content for a launch.
type Renderer interface {
	Render(l models.Launch, launchTime time.Time) (render.Message, error)
}

// Notification is one digest email.
type Notification struct {
	LaunchID string
	Subject  string
	Body     string
}

// Generate returns a notification for every launch strictly in the future and
// no more than horizon away from now. Launches without a usable time and
// launches that fail to render are skipped.
func Generate(launches []models.Launch, horizon time.Duration, now time.Time, renderer Renderer, log *zap.SugaredLogger) []Notification {
	var out []Notification
	for _, l := range launches {
		launchTime, err := l.Time(now.Location())
		if err != nil {
			log.Warnw("Skipping launch without usable time in digest", "launchID", l.ID, "error", err)
			continue
		}

		until := launchTime.Sub(now)
		if until <= 0 || until > horizon {
			continue
		}

		msg, err := renderer.Render(l, launchTime)
		if err != nil {
			log.Errorw("Failed to render digest notification", "launchID", l.ID, "error", err)
			continue
		}
		out = append(out, Notification{LaunchID: l.Key(), Subject: msg.Subject, Body: msg.Body})
	}
	return out
}
