package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/logger"
)

func jsonTracing(level string) config.TracingConfig {
	cfg := config.Defaults().Tracing
	cfg.Format = config.FormatJSON
	cfg.LogLevel = level
	return cfg
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(config.CoreConfig{}, jsonTracing("info"), LoggerOptions{ServiceName: "orders", Output: &buf})
	require.NoError(t, err)

	l.WithContext(spanContext(t)).WithField("order_id", 42).Info("order accepted")
	l.Debug("dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "order accepted", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.NotEmpty(t, line["timestamp"])

	fields := line["fields"].(map[string]any)
	assert.Equal(t, "orders", fields["service"])
	assert.Equal(t, float64(42), fields["order_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(config.CoreConfig{}, jsonTracing("loud"), LoggerOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	tracing := jsonTracing("info")
	tracing.LogFileDir = dir

	var buf bytes.Buffer
	l, err := NewLogger(config.CoreConfig{}, tracing, LoggerOptions{ServiceName: "orders", Output: &buf})
	require.NoError(t, err)
	l.Info("to both")

	assert.Contains(t, buf.String(), "to both")
	matches, err := filepath.Glob(filepath.Join(dir, "orders.*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
}

func TestInitLoggerDoesNotStackHooks(t *testing.T) {
	var buf bytes.Buffer
	opts := LoggerOptions{ServiceName: "orders", Output: &buf, AddContainerHook: true}
	_, err := InitLogger(config.CoreConfig{}, jsonTracing("info"), opts)
	require.NoError(t, err)
	l, err := InitLogger(config.CoreConfig{}, jsonTracing("info"), opts)
	require.NoError(t, err)

	assert.Same(t, log.StandardLogger(), l)
	assert.Len(t, l.Hooks[log.InfoLevel], 3)
}

func TestFormatter(t *testing.T) {
	pretty, ok := Formatter(config.FormatTextPretty, false).(*log.TextFormatter)
	require.True(t, ok)
	assert.True(t, pretty.ForceColors)
	assert.True(t, pretty.PadLevelText)

	plain, ok := Formatter(config.FormatTextPretty, true).(*log.TextFormatter)
	require.True(t, ok)
	assert.False(t, plain.ForceColors)
	assert.True(t, plain.DisableColors)

	text, ok := Formatter(config.FormatText, true).(*log.TextFormatter)
	require.True(t, ok)
	assert.True(t, text.DisableColors)

	js, ok := Formatter(config.FormatJSONPretty, false).(*log.JSONFormatter)
	require.True(t, ok)
	assert.True(t, js.PrettyPrint)
	assert.Equal(t, "fields", js.DataKey)
}

func TestInitLoggerReportsFacadeCaller(t *testing.T) {
	std := log.StandardLogger()
	t.Cleanup(func() {
		std.SetReportCaller(false)
		std.ReplaceHooks(make(log.LevelHooks))
		std.SetOutput(os.Stderr)
	})

	tracing := config.Defaults().Tracing
	tracing.Format = config.FormatTextPretty
	tracing.LogLevel = "info"
	var buf bytes.Buffer
	_, err := InitLogger(config.CoreConfig{NoColor: true}, tracing, LoggerOptions{Output: &buf})
	require.NoError(t, err)

	logger.Info("order accepted")
	log.WithField("order_id", 42).Info("direct")

	out := buf.String()
	assert.Contains(t, out, "order accepted")
	assert.Contains(t, out, "bootstrap/logger_test.go")
	assert.NotContains(t, out, "pkg/logger/logger.go")
	assert.NotContains(t, out, "sirupsen/logrus")
}
