package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stoik/launchwatch/internal/models"
)

const requestTimeout = 30 * time.Second

// StatusError is returned when the remote API answers with an unexpected status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// FeedClient implements Feed over the rocketlaunch.live style JSON API
type FeedClient struct {
	url    string
	client *http.Client
}

// NewFeedClient creates a new feed client for feedURL
func NewFeedClient(feedURL string) *FeedClient {
	return &FeedClient{
		url: feedURL,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Launches implements Feed.Launches
func (f *FeedClient) Launches(ctx context.Context) ([]models.Launch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get launches: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var feed models.Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return feed.Result, nil
}

// MailboxClient reads the newest inbound message from the mailbox API
type MailboxClient struct {
	baseURL string
	address string
	client  *http.Client
}

// NewMailboxClient creates a new mailbox client for address
func NewMailboxClient(baseURL, address string) *MailboxClient {
	return &MailboxClient{
		baseURL: baseURL,
		address: address,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Latest returns the newest message, or nil when the mailbox is empty
func (m *MailboxClient) Latest(ctx context.Context) (*models.InboundMessage, error) {
	u := fmt.Sprintf("%s/mailbox/%s/latest", m.baseURL, url.PathEscape(m.address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var msg models.InboundMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &msg, nil
}
