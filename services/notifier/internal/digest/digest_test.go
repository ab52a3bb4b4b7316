package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/config"
	"github.com/stoik/launchwatch/services/notifier/internal/mail/mailtest"
	"github.com/stoik/launchwatch/services/notifier/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 8, 1, 8, 0, 0, 0, time.UTC)

type staticRecipients []string

func (r staticRecipients) List(context.Context) ([]string, error) { return r, nil }

func launchAt(id int64, at time.Time) models.Launch {
	return models.Launch{
		ID:       id,
		Name:     fmt.Sprintf("Mission %d", id),
		SortDate: json.RawMessage(fmt.Sprint(at.Unix())),
	}
}

func testRenderer(t *testing.T) *render.LaunchTemplate {
	t.Helper()
	lt, err := render.NewLaunchTemplate("daily", config.Template{
		Subject: "Today: {{ .Mission }}",
		Message: "{{ .LaunchTime.Format \"15:04\" }}",
	}, 0)
	require.NoError(t, err)
	return lt
}

func TestGenerate(t *testing.T) {
	launches := []models.Launch{
		launchAt(1, now.Add(-time.Minute)), // already launched
		launchAt(2, now),                   // launching right now
		launchAt(3, now.Add(time.Hour)),    // in horizon
		launchAt(4, now.Add(24*time.Hour)), // horizon edge
		launchAt(5, now.Add(25*time.Hour)), // too far
		{ID: 6, Name: "No time"},           // malformed
	}

	got := Generate(launches, 24*time.Hour, now, testRenderer(t), zap.NewNop().Sugar())

	require.Len(t, got, 2)
	assert.Equal(t, Notification{LaunchID: "3", Subject: "Today: Mission 3", Body: "09:00"}, got[0])
	assert.Equal(t, "4", got[1].LaunchID)
}

func TestGenerate_Empty(t *testing.T) {
	assert.Empty(t, Generate(nil, time.Hour, now, testRenderer(t), zap.NewNop().Sugar()))
}

func TestGate(t *testing.T) {
	g := NewGate(config.TimeOfDay{Hour: 8})
	day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, g.Due(day.Add(7*time.Hour+59*time.Minute)), "before send time")
	assert.True(t, g.Due(day.Add(8*time.Hour)))
	g.MarkSent()
	assert.False(t, g.Due(day.Add(9*time.Hour)), "already sent today")
	assert.False(t, g.Due(day.Add(23*time.Hour+59*time.Minute)))

	nextDay := day.Add(24 * time.Hour)
	assert.False(t, g.Due(nextDay.Add(time.Minute)), "wrapped past midnight but before send time")
	assert.True(t, g.Due(nextDay.Add(8*time.Hour+time.Minute)), "flag reset after midnight")
}

func TestGate_RepeatedHourAtFallBack(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	g := NewGate(config.TimeOfDay{Minute: 30})

	// 2024-11-03 01:50 EDT, then the clock falls back to 01:10 EST.
	beforeFallBack := time.Date(2024, 11, 3, 5, 50, 0, 0, time.UTC).In(ny)
	afterFallBack := time.Date(2024, 11, 3, 6, 10, 0, 0, time.UTC).In(ny)
	require.Equal(t, DayOf(beforeFallBack), DayOf(afterFallBack))
	require.Less(t, afterFallBack.Hour()*60+afterFallBack.Minute(), beforeFallBack.Hour()*60+beforeFallBack.Minute())

	due := 0
	for _, at := range []time.Time{beforeFallBack, afterFallBack, afterFallBack.Add(20 * time.Minute)} {
		if g.Due(at) {
			due++
			g.MarkSent()
		}
	}
	assert.Equal(t, 1, due, "digest due once on 2024-11-03")

	assert.True(t, g.Due(time.Date(2024, 11, 4, 0, 45, 0, 0, ny)), "next calendar day")
}

func TestGate_SameDayOfYearInDifferentYears(t *testing.T) {
	g := NewGate(config.TimeOfDay{Hour: 8})
	first := time.Date(2023, 8, 1, 9, 0, 0, 0, time.UTC)
	require.True(t, g.Due(first))
	g.MarkSent()

	// 2024 is a leap year, so the same YearDay falls on a different date.
	sameYearDay := time.Date(2024, 7, 31, 9, 0, 0, 0, time.UTC)
	require.Equal(t, first.YearDay(), sameYearDay.YearDay())
	assert.True(t, g.Due(sameYearDay))
}

func TestDaily_SendsOncePerDay(t *testing.T) {
	rec := &mailtest.Recorder{}
	d := NewDaily(NewGate(config.TimeOfDay{Hour: 8}), 24*time.Hour, testRenderer(t), rec,
		staticRecipients{"a@example.com"}, zap.NewNop().Sugar())
	launches := []models.Launch{launchAt(1, now.Add(2*time.Hour)), launchAt(2, now.Add(3*time.Hour))}
	ctx := context.Background()

	d.Tick(ctx, now.Add(-time.Hour), launches)
	assert.Zero(t, rec.Count())

	d.Tick(ctx, now, launches)
	assert.Equal(t, 2, rec.Count())

	d.Tick(ctx, now.Add(time.Minute), launches)
	d.Tick(ctx, now.Add(time.Hour), launches)
	assert.Equal(t, 2, rec.Count())

	d.Tick(ctx, now.Add(24*time.Hour), []models.Launch{launchAt(3, now.Add(26*time.Hour))})
	assert.Equal(t, 3, rec.Count())
	assert.Equal(t, "Today: Mission 3", rec.Sent()[2].Subject)
}

func TestDaily_RetriesFailedSends(t *testing.T) {
	rec := &mailtest.Recorder{Err: errors.New("smtp down")}
	d := NewDaily(NewGate(config.TimeOfDay{Hour: 8}), 24*time.Hour, testRenderer(t), rec,
		staticRecipients{"a@example.com"}, zap.NewNop().Sugar())
	launches := []models.Launch{launchAt(1, now.Add(2*time.Hour))}
	ctx := context.Background()

	d.Tick(ctx, now, launches)
	assert.Zero(t, rec.Count())
	assert.Equal(t, 1, d.Pending())

	rec.SetErr(nil)
	d.Tick(ctx, now.Add(time.Minute), launches)
	assert.Equal(t, 1, rec.Count())
	assert.Zero(t, d.Pending())
}

func TestDaily_DropsPendingAtDayChange(t *testing.T) {
	rec := &mailtest.Recorder{Err: errors.New("smtp down")}
	d := NewDaily(NewGate(config.TimeOfDay{Hour: 23}), 24*time.Hour, testRenderer(t), rec,
		staticRecipients{"a@example.com"}, zap.NewNop().Sugar())
	late := time.Date(2024, 8, 1, 23, 30, 0, 0, time.UTC)

	d.Tick(context.Background(), late, []models.Launch{launchAt(1, late.Add(2*time.Hour))})
	require.Equal(t, 1, d.Pending())

	d.Tick(context.Background(), late.Add(time.Hour), nil)
	assert.Zero(t, d.Pending())
}

func TestDaily_DropsPendingOnSameYearDayNextYear(t *testing.T) {
	rec := &mailtest.Recorder{Err: errors.New("smtp down")}
	d := NewDaily(NewGate(config.TimeOfDay{Hour: 23}), 24*time.Hour, testRenderer(t), rec,
		staticRecipients{"a@example.com"}, zap.NewNop().Sugar())
	late := time.Date(2023, 8, 1, 23, 30, 0, 0, time.UTC)

	d.Tick(context.Background(), late, []models.Launch{launchAt(1, late.Add(2*time.Hour))})
	require.Equal(t, 1, d.Pending())

	nextYear := time.Date(2024, 7, 31, 0, 30, 0, 0, time.UTC)
	require.Equal(t, late.YearDay(), nextYear.YearDay())
	d.Tick(context.Background(), nextYear, nil)
	assert.Zero(t, d.Pending())
}
