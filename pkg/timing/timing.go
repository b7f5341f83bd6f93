// Package timing records how long named tasks take in a per-service
// histogram.
package timing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// TaskKey is the attribute naming the timed task.
const TaskKey = attribute.Key("task")

// Timer records task durations in milliseconds.
type Timer struct {
	name      string
	histogram metric.Float64Histogram
}

// MetricName returns the histogram name for serviceName. Characters that are
// not valid in an instrument name are replaced with '_'.
func MetricName(serviceName string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-', r == '/':
			return r
		default:
			return '_'
		}
	}, serviceName)
	if clean == "" || !isLetter(clean[0]) {
		clean = "svc_" + clean
	}
	return clean + "_task_duration_ms"
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// New creates the "<service>_task_duration_ms" histogram on meter. A nil
// meter gives a Timer that records nothing.
func New(serviceName string, meter metric.Meter) (*Timer, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	name := MetricName(serviceName)
	histogram, err := meter.Float64Histogram(name,
		metric.WithDescription("Task execution duration in milliseconds."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s histogram: %w", name, err)
	}
	return &Timer{name: name, histogram: histogram}, nil
}

// Name returns the histogram name.
func (t *Timer) Name() string { return t.name }

// Record adds one observation for task. It is a no-op on a nil Timer.
func (t *Timer) Record(ctx context.Context, task string, d time.Duration) {
	if t == nil {
		return
	}
	t.histogram.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(TaskKey.String(task)))
}

// ObservePublish records broker publishes as task "publish:<topic>".
func (t *Timer) ObservePublish(topic string, duration time.Duration, _ error) {
	t.Record(context.Background(), "publish:"+topic, duration)
}

// Time runs fn, records its duration under task and returns its result
// unchanged.
func Time[T any](ctx context.Context, t *Timer, task string, fn func(context.Context) T) T {
	start := time.Now()
	result := fn(ctx)
	t.Record(ctx, task, time.Since(start))
	return result
}

// TimeErr is Time for functions that also return an error. Failed runs are
// recorded too.
func TimeErr[T any](ctx context.Context, t *Timer, task string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	t.Record(ctx, task, time.Since(start))
	return result, err
}
