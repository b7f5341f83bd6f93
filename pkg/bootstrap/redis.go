package bootstrap

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/kvstore"
)

// RedisOpener connects the key-value store.
type RedisOpener func(ctx context.Context, cfg config.RedisConfig) (kvstore.Store, error)

// InitRedis opens the client and verifies it with a ping.
func InitRedis(ctx context.Context, cfg config.RedisConfig) (kvstore.Store, error) {
	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("redis initialization failed")
		return nil, err
	}

	log.WithContext(ctx).Info("redis initialized successfully")
	return store, nil
}
