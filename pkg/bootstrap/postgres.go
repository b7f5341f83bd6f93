package bootstrap

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/database"
)

// PostgresOpener connects the SQL pool.
type PostgresOpener func(ctx context.Context, cfg config.PostgresConfig) (database.Database, error)

// InitPostgres opens the pool and verifies it with a ping.
func InitPostgres(ctx context.Context, cfg config.PostgresConfig) (database.Database, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("postgres initialization failed")
		return nil, err
	}

	log.WithContext(ctx).WithField("max_connections", cfg.MaxConnections).Info("postgres initialized successfully")
	return db, nil
}
