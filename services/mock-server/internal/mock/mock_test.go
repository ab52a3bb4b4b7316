package mock

import (
	"testing"
	"time"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Upcoming(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(8, now)

	launches := s.Upcoming(5, now)
	require.Len(t, launches, 5)

	var prev time.Time
	for _, l := range launches {
		at, err := l.Time(time.UTC)
		require.NoError(t, err)
		assert.True(t, at.After(now))
		assert.False(t, at.Before(prev), "launches must be ordered by time")
		prev = at
	}
}

func TestStore_Delay(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(1, now)
	l := s.Upcoming(1, now)[0]
	before, err := l.Time(time.UTC)
	require.NoError(t, err)

	after, err := s.Delay(l.ID, 3*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, before.Add(3*time.Hour).Unix(), after.Unix())

	got, err := s.Upcoming(1, now)[0].Time(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, after.Unix(), got.Unix())

	_, err = s.Delay(1, time.Hour)
	assert.Error(t, err)
}

func TestStore_Mailbox(t *testing.T) {
	s := NewStore(0, time.Now())
	assert.Nil(t, s.Latest("bot@example.com"))

	t1 := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	first := s.Deliver("bot@example.com", models.InboundMessage{From: "a@example.com", Subject: "subscribe", ReceivedAt: t1})
	s.Deliver("bot@example.com", models.InboundMessage{From: "b@example.com", Subject: "old", ReceivedAt: t1.Add(-time.Hour)})

	latest := s.Latest("bot@example.com")
	require.NotNil(t, latest)
	assert.Equal(t, first.MessageID, latest.MessageID)
	assert.Nil(t, s.Latest("other@example.com"))
}
