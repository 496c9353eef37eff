package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/use-agent/datewatch/config"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Datewatch-Signature"

// Event is the payload posted to webhook endpoints.
type Event struct {
	Type      string       `json:"type"` // "availability.found"
	Timestamp int64        `json:"timestamp"`
	Data      Notification `json:"data"`
}

// Webhook posts a JSON event to an HTTP endpoint.
type Webhook struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhook creates a webhook gateway.
func NewWebhook(cfg config.WebhookConfig) *Webhook {
	return &Webhook{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

// Send delivers the event synchronously. The body is signed when a secret
// is set: X-Datewatch-Signature: sha256=<hex>.
func (w *Webhook) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(&Event{
		Type:      "availability.found",
		Timestamp: n.At.Unix(),
		Data:      n,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Datewatch-Webhook/1.0")

	if w.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
