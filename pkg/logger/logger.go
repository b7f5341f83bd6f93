// Package logger is a thin facade over logrus' standard logger.
//
// It is meant to be imported as `log`, so every package of a service shares
// the single backend configured by bootstrap.InitLogger.
package logger

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TraceIDKey and SpanIDKey are the field names used for span correlation.
	TraceIDKey = "trace_id"
	SpanIDKey  = "span_id"
)

type Fields = log.Fields
type Entry = log.Entry
type Logger = log.Logger
type Level = log.Level

const (
	ErrorLevel = log.ErrorLevel
	WarnLevel  = log.WarnLevel
	InfoLevel  = log.InfoLevel
	DebugLevel = log.DebugLevel
	TraceLevel = log.TraceLevel
)

func StandardLogger() *Logger { return log.StandardLogger() }

func WithField(key string, value any) *Entry { return log.WithField(key, value) }
func WithFields(fields Fields) *Entry        { return log.WithFields(fields) }
func WithError(err error) *Entry             { return log.WithError(err) }

// WithTrace binds ctx and adds trace_id/span_id when ctx carries a valid
// OpenTelemetry span context.
func WithTrace(ctx context.Context) *Entry {
	return EntryWithTrace(ctx, log.NewEntry(log.StandardLogger()))
}

// EntryWithTrace is WithTrace for an arbitrary entry.
func EntryWithTrace(ctx context.Context, e *Entry) *Entry {
	if ctx == nil {
		return e
	}
	e = e.WithContext(ctx)
	if fields := SpanFields(ctx); fields != nil {
		e = e.WithFields(fields)
	}
	return e
}

// SpanFields returns the correlation fields for ctx, or nil without a span.
func SpanFields(ctx context.Context) Fields {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return Fields{
		TraceIDKey: sc.TraceID().String(),
		SpanIDKey:  sc.SpanID().String(),
	}
}

func Debug(args ...any) { log.Debug(args...) }
func Info(args ...any)  { log.Info(args...) }
func Warn(args ...any)  { log.Warn(args...) }
func Error(args ...any) { log.Error(args...) }
func Fatal(args ...any) { log.Fatal(args...) }

func Debugf(format string, args ...any) { log.Debugf(format, args...) }
func Infof(format string, args ...any)  { log.Infof(format, args...) }
func Warnf(format string, args ...any)  { log.Warnf(format, args...) }
func Errorf(format string, args ...any) { log.Errorf(format, args...) }
func Fatalf(format string, args ...any) { log.Fatalf(format, args...) }
