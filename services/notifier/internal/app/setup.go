package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stoik/launchwatch/services/notifier/internal/db"
	"github.com/stoik/launchwatch/services/notifier/internal/subscription"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Setup database and seed the configured receivers",
	Long:  "Creates the subscriber and inbox cursor tables and subscribes receiver.emails from the secret file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		// Run migrations
		fmt.Println("Running migrations...")
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}

		receivers := viper.GetStringSlice("receiver.emails")
		seeded, err := subscription.Seed(ctx, db.NewSubscriberStore(pool), receivers)
		if err != nil {
			return err
		}
		if seeded {
			fmt.Printf("Seeded %d receiver(s)\n", len(receivers))
		} else {
			fmt.Println("Receivers already seeded, leaving subscribers unchanged")
		}

		fmt.Println("✓ Database setup complete")
		return nil
	},
}

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "List current subscribers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		subs, err := db.NewSubscriberStore(pool).Subscribers(ctx)
		if err != nil {
			return err
		}
		for _, s := range subs {
			fmt.Fprintf(cmd.OutOrStdout(), "%-50s %s\n", s.Address, s.SubscribedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d subscriber(s)\n", len(subs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(subscribersCmd)
}
