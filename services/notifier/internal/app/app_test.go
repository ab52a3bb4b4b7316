package app

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stoik/launchwatch/services/notifier/internal/config"
	"github.com/stoik/launchwatch/services/notifier/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStore_MemorySeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Receivers: []string{"a@example.com"}}

	store, _, closeStore, err := openStore(ctx, cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer closeStore()

	seeded, err := subscription.Seed(ctx, store, cfg.Receivers)
	require.NoError(t, err)
	assert.True(t, seeded)

	require.NoError(t, store.Remove(ctx, "a@example.com"))
	seeded, err = subscription.Seed(ctx, store, cfg.Receivers)
	require.NoError(t, err)
	assert.False(t, seeded)

	got, _ := store.List(ctx)
	assert.Empty(t, got)
}

func TestBuildRunner(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[sender]
username = "launches@example.com"
`)))
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	store, cursor, closeStore, err := openStore(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer closeStore()

	r, err := buildRunner(cfg, store, cursor, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestBuildRunner_BadTemplate(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("reminders.prelaunch.subject", "{{ .Mission")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	_, err = buildRunner(cfg, subscription.NewSet(), &subscription.MemoryCursor{}, zap.NewNop().Sugar())
	assert.Error(t, err)
}
