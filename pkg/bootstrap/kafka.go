package bootstrap

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/streaming"
)

// KafkaOpener connects the broker client.
type KafkaOpener func(ctx context.Context, cfg config.KafkaConfig) (streaming.Client, error)

// InitKafka connects the shared Kafka producer and checks broker health.
func InitKafka(ctx context.Context, cfg config.KafkaConfig) (streaming.Client, error) {
	client, err := streaming.Open(ctx, cfg)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("kafka initialization failed")
		return nil, err
	}

	log.WithContext(ctx).WithFields(log.Fields{
		"brokers": cfg.Brokers,
		"tls":     cfg.TLSEnabled(),
	}).Info("kafka initialized successfully")
	return client, nil
}
