package logger

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestSpanFields(t *testing.T) {
	assert.Nil(t, SpanFields(context.Background()))

	fields := SpanFields(spanContext(t))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[TraceIDKey])
	assert.Equal(t, "00f067aa0ba902b7", fields[SpanIDKey])
}

func TestEntryWithTrace(t *testing.T) {
	l, hook := logtest.NewNullLogger()

	EntryWithTrace(spanContext(t), l.WithField("component", "test")).Info("traced")
	EntryWithTrace(context.Background(), l.WithField("component", "test")).Info("untraced")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entries[0].Data[TraceIDKey])
	assert.Equal(t, "test", entries[0].Data["component"])
	assert.NotContains(t, entries[1].Data, TraceIDKey)
}
