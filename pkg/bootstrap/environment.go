package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/database"
	"github.com/Goden-Gun/balthazar/pkg/health"
	"github.com/Goden-Gun/balthazar/pkg/kvstore"
	"github.com/Goden-Gun/balthazar/pkg/streaming"
	"github.com/Goden-Gun/balthazar/pkg/timing"
)

// Environment is everything a service needs at runtime. Capabilities whose
// feature is disabled hold no-op values, never nil.
type Environment struct {
	ServiceName string
	Config      *config.Config
	Logger      *log.Logger
	Database    database.Database
	KV          kvstore.Store
	Streaming   streaming.Client
	Timer       *timing.Timer
	Checker     *health.Checker

	mu      sync.Mutex
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

type options struct {
	logger         LoggerOptions
	tracingInit    func(ctx context.Context, serviceName string, cfg config.TracingConfig) (ShutdownFunc, error)
	openPostgres   PostgresOpener
	openRedis      RedisOpener
	openKafka      KafkaOpener
	meterProvider  metric.MeterProvider
	checkerOptions []health.Option
}

// Option customizes Init.
type Option func(*options)

// WithLoggerOptions sets output, log file and hooks of the logger.
func WithLoggerOptions(opts LoggerOptions) Option {
	return func(o *options) { o.logger = opts }
}

// WithPostgresOpener replaces InitPostgres.
func WithPostgresOpener(fn PostgresOpener) Option {
	return func(o *options) { o.openPostgres = fn }
}

// WithRedisOpener replaces InitRedis.
func WithRedisOpener(fn RedisOpener) Option {
	return func(o *options) { o.openRedis = fn }
}

// WithKafkaOpener replaces InitKafka.
func WithKafkaOpener(fn KafkaOpener) Option {
	return func(o *options) { o.openKafka = fn }
}

// WithMeterProvider sets where task durations are recorded. The global
// provider is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithHealthOptions configures the health checker.
func WithHealthOptions(opts ...health.Option) Option {
	return func(o *options) { o.checkerOptions = append(o.checkerOptions, opts...) }
}

// Init brings up logging, tracing and every capability enabled in
// cfg.Features, in that order. If a step fails the steps already completed
// are torn down before the error is returned.
func Init(ctx context.Context, serviceName string, cfg *config.Config, opts ...Option) (*Environment, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	o := options{
		tracingInit:  InitTracing,
		openPostgres: InitPostgres,
		openRedis:    InitRedis,
		openKafka:    InitKafka,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger.ServiceName == "" {
		o.logger.ServiceName = serviceName
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	env := &Environment{
		ServiceName: serviceName,
		Config:      cfg,
		Database:    database.Disabled{},
		KV:          kvstore.Disabled{},
		Streaming:   streaming.Disabled{},
		Checker:     health.NewChecker(o.checkerOptions...),
	}
	if err := env.init(ctx, cfg, o); err != nil {
		if closeErr := env.Close(ctx); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	componentEntry(ctx, env.Logger, "bootstrap").WithField("features", cfg.Features.String()).Info("environment initialized")
	return env, nil
}

func (e *Environment) init(ctx context.Context, cfg *config.Config, o options) error {
	l, err := InitLogger(cfg.Core, cfg.Tracing, o.logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	e.Logger = l

	shutdown, err := o.tracingInit(ctx, e.ServiceName, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	e.addCloser("tracing", shutdown)

	timer, err := timing.New(e.ServiceName, o.meterProvider.Meter("github.com/Goden-Gun/balthazar"))
	if err != nil {
		return fmt.Errorf("init timing: %w", err)
	}
	e.Timer = timer

	if cfg.Features.Has(config.FeaturePostgres) {
		if cfg.Postgres == nil {
			return fmt.Errorf("init postgres: %w", config.ErrConfiguration)
		}
		db, err := o.openPostgres(ctx, *cfg.Postgres)
		if err != nil {
			return fmt.Errorf("init postgres: %w", err)
		}
		e.Database = db
		e.addCloser("postgres", func(context.Context) error { return db.Close() })
		e.Checker.Register("postgres", db.HealthCheck)
	}

	if cfg.Features.Has(config.FeatureRedis) {
		if cfg.Redis == nil {
			return fmt.Errorf("init redis: %w", config.ErrConfiguration)
		}
		kv, err := o.openRedis(ctx, *cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		e.KV = kv
		e.addCloser("redis", func(context.Context) error { return kv.Close() })
		e.Checker.Register("redis", kv.HealthCheck)
	}

	if cfg.Features.Has(config.FeatureKafka) {
		if cfg.Kafka == nil {
			return fmt.Errorf("init kafka: %w", config.ErrConfiguration)
		}
		kafkaCfg := *cfg.Kafka
		kafkaCfg.Brokers = slices.Clone(kafkaCfg.Brokers)
		client, err := o.openKafka(ctx, kafkaCfg)
		if err != nil {
			return fmt.Errorf("init kafka: %w", err)
		}
		if observed, ok := client.(interface {
			SetPublishObserver(streaming.PublishObserver)
		}); ok {
			observed.SetPublishObserver(e.Timer)
		}
		e.Streaming = client
		e.addCloser("kafka", func(context.Context) error { return client.Close() })
		e.Checker.Register("kafka", client.HealthCheck)
	}
	return nil
}

func (e *Environment) addCloser(name string, fn func(context.Context) error) {
	e.mu.Lock()
	e.closers = append(e.closers, namedCloser{name: name, close: fn})
	e.mu.Unlock()
}

// Close tears subsystems down in reverse start order. Every subsystem is
// closed even if an earlier one fails. Subsequent calls are no-ops.
func (e *Environment) Close(ctx context.Context) error {
	e.mu.Lock()
	closers := e.closers
	e.closers = nil
	e.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// Health runs the health check of every enabled capability.
func (e *Environment) Health(ctx context.Context) health.Summary {
	return e.Checker.Run(ctx)
}
