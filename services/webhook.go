package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookClient posts JSON payloads to a configured endpoint (CRM intake,
// tracking sink). With no URL configured it logs the payload and succeeds,
// matching the behavior of an unconfigured funnel install.
type WebhookClient struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWebhookClient(url string, logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Post delivers one payload. Non-2xx responses are errors so callers can
// decide whether delivery is load-bearing (lead capture) or best-effort
// (tracking).
func (w *WebhookClient) Post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	if w.url == "" {
		w.logger.Debug("webhook not configured, payload dropped", zap.ByteString("payload", body))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
