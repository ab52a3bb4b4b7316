package models

import (
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BodyPart is a single decoded MIME part of an inbound message
type BodyPart struct {
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// IsPlainText reports whether the part is text/plain, ignoring parameters such as charset.
func (p BodyPart) IsPlainText() bool {
	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(p.ContentType))
	}
	return mediaType == "text/plain"
}

// InboundMessage represents the newest message in the sending mailbox
type InboundMessage struct {
	MessageID  uuid.UUID  `json:"message_id"`
	From       string     `json:"from"`
	Subject    string     `json:"subject"`
	Parts      []BodyPart `json:"parts"`
	ReceivedAt time.Time  `json:"received_at"`
}
