package provider

import (
	"context"

	"github.com/stoik/launchwatch/internal/models"
)

// Feed retrieves the current snapshot of upcoming launches
type Feed interface {
	Launches(ctx context.Context) ([]models.Launch, error)
}
