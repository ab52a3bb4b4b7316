// Package config turns viper settings into the immutable Config handed to
// every component at startup.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure returned by FromViper.
var ErrInvalid = errors.New("invalid configuration")

// ExitWindow is how close to exit.exit_time the loop must be to stop.
const ExitWindow = 5 * time.Minute

type Template struct {
	Subject string
	Message string
}

// Sender holds the SMTP credentials of the sending mailbox.
type Sender struct {
	Username string
	Password string
	Host     string
	Port     int
	Name     string
}

type Config struct {
	Location *time.Location

	LeadTime       time.Duration
	CatchUpWindow  time.Duration
	RearmMargin    time.Duration
	RetentionGrace time.Duration
	PollInterval   time.Duration

	FeedURL        string
	MailboxAPIURL  string
	MailboxAddress string

	DigestHorizon  time.Duration
	DigestSendTime TimeOfDay

	ShouldExit bool
	ExitTime   TimeOfDay

	Prelaunch   Template
	Daily       Template
	Subscribe   Template
	Unsubscribe Template

	Sender    Sender
	Receivers []string

	DatabaseURL string
	MetricsAddr string
}

// Retention is how long past FireAt an entry is kept before eviction.
func (c *Config) Retention() time.Duration {
	return c.LeadTime + c.RetentionGrace
}

// SetDefaults registers the defaults used when a key is absent from every source.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "UTC")
	v.SetDefault("general.remind_before_launch_mins", 15)
	v.SetDefault("general.catch_up_multiplier", 2)
	v.SetDefault("general.rearm_margin_hours", 1)
	v.SetDefault("general.retention_grace_hours", 1)
	v.SetDefault("refresh.refresh_seconds", 60)
	v.SetDefault("feed.url", "https://fdo.rocketlaunch.live/json/launches/next/5")
	v.SetDefault("mailbox.api_url", "http://localhost:8080")
	v.SetDefault("daily.hours_before_launch", 24)
	v.SetDefault("daily.send_time", "08:00")
	v.SetDefault("exit.should_exit", false)
	v.SetDefault("exit.exit_time", "23:55")
	v.SetDefault("sender.host", "smtp.gmail.com")
	v.SetDefault("sender.port", 587)
	v.SetDefault("sender.name", "Launch Reminder")

	v.SetDefault("reminders.prelaunch.subject", "Launch in {{ .LeadMinutes }} minutes: {{ .Mission }}")
	v.SetDefault("reminders.prelaunch.message",
		"{{ .Provider }} is launching {{ .Mission }} on a {{ .Vehicle }} from {{ .LaunchPad }}, {{ .LaunchSite }} "+
			"at {{ dateInZone \"15:04 on 01/02/2006\" .LaunchTime .Zone }}.")
	v.SetDefault("reminders.daily.subject", "Launching today: {{ .Mission }}")
	v.SetDefault("reminders.daily.message",
		"{{ .Provider }} {{ .Vehicle }} | {{ .Mission }} lifts off from {{ .LaunchPad }}, {{ .LaunchSite }} "+
			"at {{ dateInZone \"15:04 on 01/02/2006\" .LaunchTime .Zone }}.")
	v.SetDefault("reminders.subscribe.subject", "Subscribed to launch reminders")
	v.SetDefault("reminders.subscribe.message", "You will now receive launch reminders. Reply \"unsubscribe\" to stop.")
	v.SetDefault("reminders.unsubscribe.subject", "Unsubscribed from launch reminders")
	v.SetDefault("reminders.unsubscribe.message", "You will no longer receive launch reminders. Reply \"subscribe\" to start again.")
}

// FromViper builds and validates a Config. It is called once at startup.
func FromViper(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %v", ErrInvalid, err)
	}

	poll := time.Duration(v.GetInt("refresh.refresh_seconds")) * time.Second
	if poll <= 0 {
		return nil, fmt.Errorf("%w: refresh.refresh_seconds must be positive", ErrInvalid)
	}
	multiplier := v.GetFloat64("general.catch_up_multiplier")
	if multiplier <= 0 {
		return nil, fmt.Errorf("%w: general.catch_up_multiplier must be positive", ErrInvalid)
	}
	lead := time.Duration(v.GetInt("general.remind_before_launch_mins")) * time.Minute
	if lead < 0 {
		return nil, fmt.Errorf("%w: general.remind_before_launch_mins must not be negative", ErrInvalid)
	}

	for _, key := range []string{"general.rearm_margin_hours", "general.retention_grace_hours", "daily.hours_before_launch"} {
		if v.GetFloat64(key) < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalid, key)
		}
	}

	sendTime, err := ParseTimeOfDay(v.GetString("daily.send_time"))
	if err != nil {
		return nil, fmt.Errorf("%w: daily.send_time: %v", ErrInvalid, err)
	}

	cfg := &Config{
		Location:       loc,
		LeadTime:       lead,
		CatchUpWindow:  time.Duration(multiplier * float64(poll)),
		RearmMargin:    hours(v.GetFloat64("general.rearm_margin_hours")),
		RetentionGrace: hours(v.GetFloat64("general.retention_grace_hours")),
		PollInterval:   poll,
		FeedURL:        v.GetString("feed.url"),
		MailboxAPIURL:  strings.TrimRight(v.GetString("mailbox.api_url"), "/"),
		MailboxAddress: v.GetString("mailbox.address"),
		DigestHorizon:  hours(v.GetFloat64("daily.hours_before_launch")),
		DigestSendTime: sendTime,
		ShouldExit:     v.GetBool("exit.should_exit"),
		Prelaunch:      templateAt(v, "prelaunch"),
		Daily:          templateAt(v, "daily"),
		Subscribe:      templateAt(v, "subscribe"),
		Unsubscribe:    templateAt(v, "unsubscribe"),
		Sender: Sender{
			Username: v.GetString("sender.username"),
			Password: v.GetString("sender.password"),
			Host:     v.GetString("sender.host"),
			Port:     v.GetInt("sender.port"),
			Name:     v.GetString("sender.name"),
		},
		Receivers:   v.GetStringSlice("receiver.emails"),
		DatabaseURL: v.GetString("database.url"),
		MetricsAddr: v.GetString("metrics.addr"),
	}

	if cfg.ShouldExit {
		cfg.ExitTime, err = ParseTimeOfDay(v.GetString("exit.exit_time"))
		if err != nil {
			return nil, fmt.Errorf("%w: exit.exit_time: %v", ErrInvalid, err)
		}
	}
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("%w: feed.url not configured", ErrInvalid)
	}
	if cfg.MailboxAddress == "" {
		cfg.MailboxAddress = cfg.Sender.Username
	}
	for _, r := range cfg.Receivers {
		if _, err := mail.ParseAddress(r); err != nil {
			return nil, fmt.Errorf("%w: receiver.emails: %q: %v", ErrInvalid, r, err)
		}
	}

	return cfg, nil
}

func templateAt(v *viper.Viper, name string) Template {
	return Template{
		Subject: v.GetString("reminders." + name + ".subject"),
		Message: v.GetString("reminders." + name + ".message"),
	}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
