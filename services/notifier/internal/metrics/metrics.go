package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "launchwatch_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "launchwatch_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})

	// Reminder metrics
	RemindersFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "launchwatch_reminders_fired_total",
		Help: "Total number of prelaunch reminders dispatched",
	})
	ReminderDispatchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "launchwatch_reminder_dispatch_errors_total",
		Help: "Total number of prelaunch reminders that failed to dispatch",
	})
	RemindersRearmed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "launchwatch_reminders_rearmed_total",
		Help: "Total number of fired reminders re-armed after their launch moved later",
	})
	RemindersEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "launchwatch_reminders_evicted_total",
		Help: "Total number of reminders evicted after their retention window",
	})
	TrackedReminders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "launchwatch_tracked_reminders",
		Help: "Number of reminders currently tracked",
	})
	MalformedLaunches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "launchwatch_malformed_launches_total",
		Help: "Total number of feed launches skipped for lacking a usable time",
	})

	// Digest metrics
	DigestsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "launchwatch_digest_notifications_sent_total",
		Help: "Total number of daily digest notifications dispatched",
	})

	// Subscription metrics
	SubscriptionCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "launchwatch_subscription_commands_total",
		Help: "Total number of inbound subscription commands applied",
	}, []string{"action"})

	// Poll loop metrics
	PollErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "launchwatch_poll_errors_total",
		Help: "Total number of poll loop steps that failed",
	}, []string{"step"})
)

func init() {
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(RemindersFired)
	prometheus.MustRegister(ReminderDispatchErrors)
	prometheus.MustRegister(RemindersRearmed)
	prometheus.MustRegister(RemindersEvicted)
	prometheus.MustRegister(TrackedReminders)
	prometheus.MustRegister(MalformedLaunches)
	prometheus.MustRegister(DigestsSent)
	prometheus.MustRegister(SubscriptionCommands)
	prometheus.MustRegister(PollErrors)
}
