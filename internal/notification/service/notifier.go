// Package service provides delivery channels for lifecycle notifications.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/allisson/grants/internal/notification/domain"
	apperrors "github.com/allisson/grants/internal/errors"
)

// Notifier delivers one lifecycle event to an external channel. Delivery is
// fire-and-forget from the engine's perspective: an error here only affects
// the outbox retry bookkeeping, never the committed state transition.
type Notifier interface {
	Notify(ctx context.Context, event *domain.OutboxEvent) error
}

// LogNotifier writes notifications to the structured log. It is the default
// channel when no webhook is configured and is useful in development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event. Never fails.
func (n *LogNotifier) Notify(_ context.Context, event *domain.OutboxEvent) error {
	n.logger.Info("access lifecycle notification",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("payload", event.Payload),
	)
	return nil
}

// WebhookNotifier POSTs notifications as JSON to a configured endpoint using
// a retrying HTTP client. Transport-level retries happen inside the client;
// a non-2xx final response surfaces as an error so the outbox can retry the
// whole delivery later.
type WebhookNotifier struct {
	url    string
	client *retryablehttp.Client
}

// NewWebhookNotifier creates a WebhookNotifier for the given endpoint.
func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)

	return &WebhookNotifier{
		url:    url,
		client: client,
	}
}

// Notify delivers the event payload to the webhook endpoint.
func (n *WebhookNotifier) Notify(ctx context.Context, event *domain.OutboxEvent) error {
	req, err := retryablehttp.NewRequestWithContext(
		ctx,
		http.MethodPost,
		n.url,
		bytes.NewBufferString(event.Payload),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build webhook request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.EventType)
	req.Header.Set("X-Event-Id", event.ID.String())

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "failed to deliver webhook notification")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
