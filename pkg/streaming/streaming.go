// Package streaming provides the message broker capability. With the kafka
// feature enabled it is backed by a Kafka sync producer; otherwise Disabled
// rejects every publish.
package streaming

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by Disabled.Publish.
var ErrDisabled = errors.New("streaming: kafka feature disabled")

// Message is a single record to publish.
type Message struct {
	Topic   string
	Key     []byte
	Payload []byte
	Headers map[string]string
}

// Client is the broker capability.
type Client interface {
	Publish(ctx context.Context, msg Message) error
	HealthCheck(ctx context.Context) error
	Close() error
	Enabled() bool
}

// PublishObserver is an optional hook to observe publish latency and errors.
type PublishObserver interface {
	ObservePublish(topic string, duration time.Duration, err error)
}

// Disabled stands in for the client when the kafka feature is off.
type Disabled struct{}

func (Disabled) Publish(context.Context, Message) error { return ErrDisabled }
func (Disabled) HealthCheck(context.Context) error      { return nil }
func (Disabled) Close() error                           { return nil }
func (Disabled) Enabled() bool                          { return false }
