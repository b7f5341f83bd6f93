// Package health times dependency checks and folds them into a status
// report: healthy, degraded when a check succeeds slowly, or offline when it
// fails or times out.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDeadlineElapsed is reported when a check does not finish in time.
var ErrDeadlineElapsed = errors.New("deadline has elapsed")

// Status is the outcome of a check. Higher values are worse.
type Status int

const (
	Healthy Status = iota
	Degraded
	Offline
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Offline:
		return "offline"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Report is the result of a single timed check. Error is set only when
// Status is Offline.
type Report struct {
	Status   Status        `json:"status"`
	Duration time.Duration `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// MarshalJSON renders the duration in milliseconds.
func (r Report) MarshalJSON() ([]byte, error) {
	type report Report
	return json.Marshal(struct {
		report
		DurationMS float64 `json:"duration_ms"`
	}{report(r), float64(r.Duration) / float64(time.Millisecond)})
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// Check runs fn with a timeout. A successful run slower than degradeAfter
// is Degraded. A non-positive timeout reports Offline without calling fn.
func Check(ctx context.Context, fn CheckFunc, timeout, degradeAfter time.Duration) Report {
	start := time.Now()
	if timeout <= 0 {
		return offline(start, ErrDeadlineElapsed)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				err = ErrDeadlineElapsed
			}
			return offline(start, err)
		}
		elapsed := time.Since(start)
		if elapsed > degradeAfter {
			return Report{Status: Degraded, Duration: elapsed}
		}
		return Report{Status: Healthy, Duration: elapsed}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return offline(start, ErrDeadlineElapsed)
		}
		return offline(start, ctx.Err())
	}
}

func offline(start time.Time, err error) Report {
	return Report{Status: Offline, Duration: time.Since(start), Error: err.Error()}
}
