package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("grants")
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, provider.Handler())
	assert.NotNil(t, provider.MeterProvider())

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestBusinessMetrics_Record(t *testing.T) {
	provider, err := NewProvider("grants")
	require.NoError(t, err)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "grants")
	require.NoError(t, err)

	ctx := context.Background()

	// Recording must not panic with any label combination
	bm.RecordOperation(ctx, "access", "decide", "success")
	bm.RecordOperation(ctx, "access", "validate", "denied")
	bm.RecordDuration(ctx, "access", "request", 25*time.Millisecond, "success")
	bm.RecordAuditWriteFailure(ctx, "request_granted")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	ctx := context.Background()

	bm.RecordOperation(ctx, "access", "request", "success")
	bm.RecordDuration(ctx, "audit", "list", time.Second, "error")
	bm.RecordAuditWriteFailure(ctx, "access_used")
}
