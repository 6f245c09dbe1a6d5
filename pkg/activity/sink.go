package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sink delivers a rendered message to a webhook endpoint.
type Sink interface {
	Send(ctx context.Context, endpoint string, msg *Message) error
}

// DeliveryError is returned by WebhookSink for non-2xx responses.
type DeliveryError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

// WebhookSink posts JSON messages over HTTP.
type WebhookSink struct {
	client *http.Client
}

// NewWebhookSink creates a sink with the given request timeout.
func NewWebhookSink(timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts msg to endpoint. Returned errors never contain the endpoint,
// whose path embeds the webhook token.
func (s *WebhookSink) Send(ctx context.Context, endpoint string, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.New("failed to build webhook request: invalid endpoint")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
