package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
	"go.opentelemetry.io/otel"

	"github.com/Goden-Gun/balthazar/pkg/config"
)

const healthCheckTimeout = 500 * time.Millisecond

// metadataRefresher is the part of sarama.Client used for health checks.
type metadataRefresher interface {
	RefreshMetadata(topics ...string) error
}

// Kafka publishes through a shared sarama sync producer.
type Kafka struct {
	producer         sarama.SyncProducer
	metadata         metadataRefresher
	healthCheckTopic string

	observerMu      sync.RWMutex
	publishObserver PublishObserver

	closeOnce sync.Once
}

// headersCarrier implements propagation.TextMapCarrier for Kafka headers.
type headersCarrier []sarama.RecordHeader

func (c *headersCarrier) Get(key string) string {
	for _, h := range *c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headersCarrier) Set(key, value string) {
	for i, h := range *c {
		if string(h.Key) == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c *headersCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, string(h.Key))
	}
	return keys
}

// SaramaConfig translates cfg into a producer configuration. Sends are never
// retried by the client.
func SaramaConfig(cfg config.KafkaConfig) (*sarama.Config, error) {
	base := sarama.NewConfig()
	base.Version = sarama.V2_1_0_0
	if cfg.ClientID != "" {
		base.ClientID = cfg.ClientID
	}

	base.Producer.Return.Successes = true
	base.Producer.Retry.Max = 0
	base.Producer.RequiredAcks = parseRequiredAcks(cfg.RequiredAcks)
	base.Metadata.Retry.Max = 0
	base.Metadata.Timeout = healthCheckTimeout

	if cfg.TLSEnabled() {
		tlsConfig, err := newTLSConfig(cfg.Key, cfg.Cert, cfg.CA)
		if err != nil {
			return nil, err
		}
		base.Net.TLS.Enable = true
		base.Net.TLS.Config = tlsConfig
	}

	if cfg.Username != "" {
		base.Net.SASL.Enable = true
		base.Net.SASL.User = cfg.Username
		base.Net.SASL.Password = cfg.Password.Reveal()
		switch cfg.SASLMechanism {
		case "SCRAM-SHA-512":
			base.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
			base.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return newSCRAMClient(scram.SHA512)
			}
		case "SCRAM-SHA-256":
			base.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
			base.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return newSCRAMClient(scram.SHA256)
			}
		default:
			base.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}

	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka client config: %w", err)
	}
	return base, nil
}

// Open connects to the brokers and runs one health check before returning.
func Open(ctx context.Context, cfg config.KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers empty")
	}
	conf, err := SaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := sarama.NewClient(cfg.Brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection with kafka: %w", err)
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	k := New(producer, client, cfg.HealthCheckTopic)
	if err := k.HealthCheck(ctx); err != nil {
		_ = k.Close()
		return nil, err
	}
	return k, nil
}

// New wraps an existing producer. metadata is refreshed for healthCheckTopic
// on every health check; when it also implements io.Closer it is closed
// after the producer.
func New(producer sarama.SyncProducer, metadata metadataRefresher, healthCheckTopic string) *Kafka {
	return &Kafka{producer: producer, metadata: metadata, healthCheckTopic: healthCheckTopic}
}

// SetPublishObserver installs or replaces the publish observer.
func (k *Kafka) SetPublishObserver(observer PublishObserver) {
	k.observerMu.Lock()
	k.publishObserver = observer
	k.observerMu.Unlock()
}

func (k *Kafka) publishObserverSnapshot() PublishObserver {
	k.observerMu.RLock()
	defer k.observerMu.RUnlock()
	return k.publishObserver
}

func (k *Kafka) Enabled() bool { return true }

// Publish sends msg and waits for the broker acknowledgement. The trace
// context of ctx is injected into the record headers.
func (k *Kafka) Publish(ctx context.Context, msg Message) (err error) {
	start := time.Now()
	defer func() {
		if observer := k.publishObserverSnapshot(); observer != nil {
			observer.ObservePublish(msg.Topic, time.Since(start), err)
		}
	}()
	if msg.Topic == "" {
		return errors.New("kafka topic empty")
	}

	record := &sarama.ProducerMessage{Topic: msg.Topic, Headers: recordHeaders(ctx, msg.Headers)}
	if len(msg.Key) > 0 {
		record.Key = sarama.ByteEncoder(msg.Key)
	}
	if len(msg.Payload) > 0 {
		record.Value = sarama.ByteEncoder(msg.Payload)
	}

	if err = ctx.Err(); err != nil {
		return err
	}
	if _, _, err = k.producer.SendMessage(record); err != nil {
		return fmt.Errorf("failed to send message to kafka: %w", err)
	}
	return nil
}

func recordHeaders(ctx context.Context, headers map[string]string) []sarama.RecordHeader {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	carrier := make(headersCarrier, 0, len(headers)+2)
	for _, key := range keys {
		carrier.Set(key, headers[key])
	}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	if len(carrier) == 0 {
		return nil
	}
	return carrier
}

// HealthCheck refreshes metadata for the health-check topic.
func (k *Kafka) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- k.metadata.RefreshMetadata(k.healthCheckTopic) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to check kafka health: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to check kafka health: %w", ctx.Err())
	}
}

// Close shuts down the producer and then the underlying client.
func (k *Kafka) Close() error {
	var err error
	k.closeOnce.Do(func() {
		if k.producer != nil {
			err = k.producer.Close()
		}
		if closer, ok := k.metadata.(io.Closer); ok {
			err = errors.Join(err, closer.Close())
		}
	})
	return err
}

func parseRequiredAcks(v string) sarama.RequiredAcks {
	switch v {
	case "none":
		return sarama.NoResponse
	case "one":
		return sarama.WaitForLocal
	default:
		return sarama.WaitForAll
	}
}
