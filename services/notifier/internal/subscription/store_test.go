package subscription

import (
	"context"
	"testing"

	"github.com/stoik/launchwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize(" Jane Doe <Jane.Doe@Example.COM> ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", got)

	_, err = Normalize("nope")
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	s := NewSet("b@example.com", "A@example.com", "a@example.com")

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got)

	require.NoError(t, s.Remove(ctx, "a@example.com"))
	require.NoError(t, s.Remove(ctx, "missing@example.com"))
	assert.Error(t, s.Add(ctx, "bad address"))

	got, _ = s.List(ctx)
	assert.Equal(t, []string{"b@example.com"}, got)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewSet()

	seeded, err := Seed(ctx, s, []string{"a@example.com", "B@example.com"})
	require.NoError(t, err)
	assert.True(t, seeded)
	got, _ := s.List(ctx)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got)

	require.NoError(t, s.Remove(ctx, "a@example.com"))
	require.NoError(t, s.Remove(ctx, "b@example.com"))

	seeded, err = Seed(ctx, s, []string{"a@example.com", "B@example.com"})
	require.NoError(t, err)
	assert.False(t, seeded)
	got, _ = s.List(ctx)
	assert.Empty(t, got, "unsubscribed receivers are not re-added")
}

func TestSeed_InvalidReceiverLeavesStoreUnmarked(t *testing.T) {
	ctx := context.Background()
	s := NewSet()

	_, err := Seed(ctx, s, []string{"not an address"})
	require.Error(t, err)
	seeded, _ := s.Seeded(ctx)
	assert.False(t, seeded)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		candidates []string
		want       Action
	}{
		{[]string{"subscribe"}, ActionSubscribe},
		{[]string{"  UNSUBSCRIBE\n"}, ActionUnsubscribe},
		{[]string{"Re: launch", "Subscribe"}, ActionSubscribe},
		{[]string{"please subscribe me"}, ActionNone},
		{[]string{"", "unsubscribe", "subscribe"}, ActionUnsubscribe},
		{nil, ActionNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.candidates), "%q", tt.candidates)
	}
}

func TestCandidates(t *testing.T) {
	msg := models.InboundMessage{
		Subject: "Hi",
		Parts: []models.BodyPart{
			{ContentType: "text/plain", Content: "one"},
			{ContentType: "text/html", Content: "<b>two</b>"},
			{ContentType: "image/png", Content: "..."},
			{ContentType: "text/plain; charset=utf-8", Content: "three"},
		},
	}
	assert.Equal(t, []string{"Hi", "one", "three"}, Candidates(msg))
}
