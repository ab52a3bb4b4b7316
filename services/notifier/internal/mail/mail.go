// Package mail is the outbound notification sink, backed by gomail.
package mail

import (
	"errors"
	"fmt"

	"github.com/stoik/launchwatch/services/notifier/internal/config"
	"github.com/stoik/launchwatch/services/notifier/internal/metrics"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// ErrNoRecipients is returned by Send when there is nobody to send to.
var ErrNoRecipients = errors.New("no recipients")

// Sender transmits a notification. Failures are returned, never retried.
type Sender interface {
	Send(receivers []string, subject, body string) error
}

type sender struct {
	dialer        *gomail.Dialer
	senderAddress string
	senderName    string
	log           *zap.SugaredLogger
}

// NewSender builds an SMTP sender from the sending mailbox credentials.
func NewSender(cfg config.Sender, log *zap.SugaredLogger) Sender {
	log.Infow("Initializing mail sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.Username)
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	return &sender{
		dialer:        d,
		senderAddress: cfg.Username,
		senderName:    cfg.Name,
		log:           log,
	}
}

func (s *sender) Send(receivers []string, subject, body string) error {
	if len(receivers) == 0 {
		return ErrNoRecipients
	}

	msg := gomail.NewMessage()
	if s.senderName != "" {
		msg.SetAddressHeader("From", s.senderAddress, s.senderName)
	} else {
		msg.SetHeader("From", s.senderAddress)
	}
	if len(receivers) == 1 {
		msg.SetHeader("To", receivers[0])
	} else {
		msg.SetHeader("Bcc", receivers...)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		metrics.MailSendFailure.WithLabelValues(s.dialer.Host).Inc()
		return fmt.Errorf("failed to send mail to %d receivers: %w", len(receivers), err)
	}

	s.log.Infow("Mail sent", "receivers", len(receivers), "subject", subject)
	metrics.MailSendSuccess.WithLabelValues(s.dialer.Host).Inc()
	return nil
}
