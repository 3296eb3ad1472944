package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/grants/internal/notification/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent() *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: domain.EventAccessGranted,
		Payload:   `{"request_id":"00000000-0000-0000-0000-000000000001","status":"granted"}`,
		Status:    domain.OutboxEventStatusPending,
	}
}

func TestLogNotifier_Notify(t *testing.T) {
	notifier := NewLogNotifier(discardLogger())
	assert.NoError(t, notifier.Notify(context.Background(), testEvent()))
}

func TestWebhookNotifier_Notify_Success(t *testing.T) {
	event := testEvent()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, event.EventType, r.Header.Get("X-Event-Type"))
		assert.Equal(t, event.ID.String(), r.Header.Get("X-Event-Id"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, event.Payload, string(body))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, discardLogger())
	assert.NoError(t, notifier.Notify(context.Background(), event))
}

func TestWebhookNotifier_Notify_NonSuccessStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// 4xx responses are not retried by the client and surface as errors
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, discardLogger())
	err := notifier.Notify(context.Background(), testEvent())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestWebhookNotifier_Notify_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, discardLogger())
	assert.NoError(t, notifier.Notify(context.Background(), testEvent()))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}
