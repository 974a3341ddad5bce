/*
webhook.go - Fire-and-forget webhook delivery

PURPOSE:
  Posts a week's payroll payload to the user's configured webhook endpoint.
  The downstream (typically a spreadsheet ingestion script) exposes no
  readable response in this design, so delivery can never be CONFIRMED,
  only attempted: success is assumed whenever the POST does not raise a
  transport error, and the receipt carries DeliveryConfirmed=false so the
  caller surfaces "please verify your data downstream" instead of claiming
  confirmed delivery.
*/
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Receipt reports the outcome of a webhook submission attempt.
type Receipt struct {
	SubmittedAt time.Time

	// DeliveryConfirmed is always false for this transport. It exists so a
	// future acknowledging transport can report true, and so callers are
	// forced to distinguish "sent" from "delivered".
	DeliveryConfirmed bool
}

// WebhookClient posts payloads to webhook endpoints.
type WebhookClient struct {
	HTTPClient *http.Client
}

// NewWebhookClient returns a client with a sane request timeout.
func NewWebhookClient() *WebhookClient {
	return &WebhookClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit posts the payload to url. Only transport errors fail the
// submission; the response status and body are deliberately ignored
// because the downstream cannot return a readable response.
func (c *WebhookClient) Submit(ctx context.Context, url string, payload WebhookPayload) (Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build webhook request: %w", err)
	}
	// text/plain keeps simple-request semantics for script-style receivers.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("webhook submission: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return Receipt{SubmittedAt: time.Now(), DeliveryConfirmed: false}, nil
}
