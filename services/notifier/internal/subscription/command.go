package subscription

import (
	"strings"

	"github.com/stoik/launchwatch/internal/models"
)

type Action int

const (
	ActionNone Action = iota
	ActionSubscribe
	ActionUnsubscribe
)

func (a Action) String() string {
	switch a {
	case ActionSubscribe:
		return "subscribe"
	case ActionUnsubscribe:
		return "unsubscribe"
	default:
		return "none"
	}
}

// Candidates returns the strings a command is looked for in: the subject,
// then every text/plain part in order.
func Candidates(msg models.InboundMessage) []string {
	out := []string{msg.Subject}
	for _, p := range msg.Parts {
		if p.IsPlainText() {
			out = append(out, p.Content)
		}
	}
	return out
}

// Classify returns the action named by the first candidate that is exactly
// "subscribe" or "unsubscribe" after trimming and lower-casing.
func Classify(candidates []string) Action {
	for _, c := range candidates {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "subscribe":
			return ActionSubscribe
		case "unsubscribe":
			return ActionUnsubscribe
		}
	}
	return ActionNone
}
