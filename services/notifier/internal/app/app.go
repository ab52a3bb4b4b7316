package app

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stoik/launchwatch/services/notifier/internal/clock"
	"github.com/stoik/launchwatch/services/notifier/internal/config"
	"github.com/stoik/launchwatch/services/notifier/internal/db"
	"github.com/stoik/launchwatch/services/notifier/internal/digest"
	"github.com/stoik/launchwatch/services/notifier/internal/mail"
	"github.com/stoik/launchwatch/services/notifier/internal/provider"
	"github.com/stoik/launchwatch/services/notifier/internal/reminder"
	"github.com/stoik/launchwatch/services/notifier/internal/render"
	"github.com/stoik/launchwatch/services/notifier/internal/runner"
	"github.com/stoik/launchwatch/services/notifier/internal/status"
	"github.com/stoik/launchwatch/services/notifier/internal/subscription"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile    string
	secretFile string
)

var rootCmd = &cobra.Command{
	Use:   "launchwatch",
	Short: "Launch reminder notifier",
	Long:  "Emails subscribers ahead of upcoming rocket launches and manages subscriptions over email",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the notifier",
	Long:  "Polls the launch feed and the mailbox, sending reminders, the daily digest and subscription confirmations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(viper.GetBool("debug"))
		defer logger.Sync()
		log := logger.Sugar()

		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store, cursor, closeStore, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		seeded, err := subscription.Seed(ctx, store, cfg.Receivers)
		if err != nil {
			return fmt.Errorf("failed to seed receivers: %w", err)
		}
		if seeded {
			log.Infow("Seeded configured receivers", "count", len(cfg.Receivers))
		}

		loop, err := buildRunner(cfg, store, cursor, log)
		if err != nil {
			return err
		}

		if cfg.MetricsAddr != "" {
			srv := status.NewServer(cfg.MetricsAddr, log.Named("status"))
			srv.Start()
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		// Handle graceful shutdown
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		// Run the poll loop in background
		errChan := make(chan error, 1)
		go func() {
			errChan <- loop.Run(ctx)
		}()

		// Wait for signal or loop exit
		select {
		case <-sigChan:
			log.Infow("Shutting down, waiting for the current iteration to finish")
			cancel()
			return <-errChan
		case err := <-errChan:
			return err
		}
	},
}

// buildRunner wires every component from the immutable configuration.
func buildRunner(cfg *config.Config, store subscription.Store, cursor subscription.Cursor, log *zap.SugaredLogger) (*runner.Runner, error) {
	prelaunch, err := render.NewLaunchTemplate("prelaunch", cfg.Prelaunch, cfg.LeadTime)
	if err != nil {
		return nil, err
	}
	daily, err := render.NewLaunchTemplate("daily", cfg.Daily, cfg.LeadTime)
	if err != nil {
		return nil, err
	}

	clk := clock.New(cfg.Location)
	sink := mail.NewSender(cfg.Sender, log.Named("mail"))

	scheduler := reminder.NewScheduler(reminder.Options{
		Lead:          cfg.LeadTime,
		CatchUpWindow: cfg.CatchUpWindow,
		RearmMargin:   cfg.RearmMargin,
		Retention:     cfg.Retention(),
	}, clk, prelaunch, sink, store, log.Named("reminder"))

	digests := digest.NewDaily(digest.NewGate(cfg.DigestSendTime), cfg.DigestHorizon, daily, sink, store, log.Named("digest"))

	listener := subscription.NewListener(
		provider.NewMailboxClient(cfg.MailboxAPIURL, cfg.MailboxAddress),
		store, cursor, sink, cfg.Subscribe, cfg.Unsubscribe, log.Named("subscription"),
	)

	return runner.New(runner.Schedule{
		PollInterval: cfg.PollInterval,
		ShouldExit:   cfg.ShouldExit,
		ExitTime:     cfg.ExitTime,
	}, clk, provider.NewFeedClient(cfg.FeedURL), scheduler, digests, listener, log.Named("runner")), nil
}

// openStore uses Postgres when database.url is set and in-memory state otherwise.
func openStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (subscription.Seedable, subscription.Cursor, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warnw("database.url not configured, subscriptions and the inbox cursor will not survive a restart")
		return subscription.NewSet(), &subscription.MemoryCursor{}, func() {}, nil
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db.NewSubscriberStore(pool), db.NewCursorStore(pool, cfg.MailboxAddress), pool.Close, nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Open(ctx, viper.GetString("database.url"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return pool, nil
}

func setupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}

func init() {
	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: config.toml in ., ./config or ./services/notifier)")
	rootCmd.PersistentFlags().StringVar(&secretFile, "secret", "", "Secret file with sender credentials and receivers (default: ./config/secret.toml if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable development logging")
	rootCmd.PersistentFlags().String("database.url", "", "Database connection URL (optional, enables persistent subscriptions)")
	rootCmd.PersistentFlags().String("feed.url", "", "Launch feed URL")
	rootCmd.PersistentFlags().String("mailbox.api_url", "", "Mailbox API base URL")
	rootCmd.PersistentFlags().String("metrics.addr", "", "Address for /health and /metrics, e.g. :9090 (disabled when empty)")

	// Bind flags to viper
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database.url"))
	viper.BindPFlag("feed.url", rootCmd.PersistentFlags().Lookup("feed.url"))
	viper.BindPFlag("mailbox.api_url", rootCmd.PersistentFlags().Lookup("mailbox.api_url"))
	viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics.addr"))

	rootCmd.AddCommand(runCmd)
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("./services/notifier")
	}
	viper.SetEnvPrefix("LAUNCHWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	secret := secretFile
	if secret == "" {
		if _, err := os.Stat("config/secret.toml"); err == nil {
			secret = "config/secret.toml"
		}
	}
	if secret != "" {
		viper.SetConfigFile(secret)
		if err := viper.MergeInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read secret file %s: %v\n", secret, err)
		} else {
			fmt.Fprintf(os.Stderr, "Using secret file: %s\n", secret)
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
