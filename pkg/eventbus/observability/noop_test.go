package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordSend(ctx, "k", nil)
		m.RecordAsk(ctx, "k", time.Second, 1, errors.New("x"))
		m.RecordBroadcast(ctx, nil)
		m.RecordObservers(ctx, "k", -1)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	gotCtx, span := sm.StartAskSpan(ctx, "NATIVE", "k")
	assert.Equal(t, ctx, gotCtx)
	assert.False(t, span.IsRecording())

	gotCtx, span = sm.StartDispatchSpan(ctx, "send", "k")
	assert.Equal(t, ctx, gotCtx)
	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("x"))
		sm.AddSpanEvent(ctx, "e")
	})
}
