package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/balthazar/pkg/bootstrap"
	"github.com/Goden-Gun/balthazar/pkg/buildinfo"
	"github.com/Goden-Gun/balthazar/pkg/config"
	"github.com/Goden-Gun/balthazar/pkg/health"
	"github.com/Goden-Gun/balthazar/pkg/timing"
	"github.com/Goden-Gun/balthazar/pkg/tracing"
)

const shutdownGracePeriod = 10 * time.Second

var signalNotify = signal.Notify

type flags struct {
	serviceName string
	features    []string
	configFile  string
	envFile     string
	addr        string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	app := kingpin.New("balthazar", "Service bootstrap kit example: loads configuration, connects enabled features and serves health endpoints.")
	app.Flag("service-name", "Service name used for logs, traces and metrics").Default("balthazar").Envar("SERVICE_NAME").StringVar(&f.serviceName)
	app.Flag("feature", "Optional feature to enable (postgres, redis, kafka); repeatable").Short('f').StringsVar(&f.features)
	app.Flag("config-file", "Path to YAML configuration file").StringVar(&f.configFile)
	app.Flag("env-file", "Dotenv file overlaid under the process environment").Envar("ENV_FILE").StringVar(&f.envFile)
	app.Flag("addr", "HTTP listen address").Default(":8080").StringVar(&f.addr)

	_, err := app.Parse(args)
	return f, err
}

func main() {
	f, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "parse flags")

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()
	env, err := bootstrap.Init(ctx, f.serviceName, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			env.Logger.WithError(err).Error("shutdown incomplete")
		}
	}()

	server := &http.Server{
		Addr:              f.addr,
		Handler:           newRouter(env),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		env.Logger.WithField("addr", f.addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.Logger.WithError(err).Fatal("http server failed")
		}
	}()

	shutdown(server, shutdownGracePeriod, env.Logger)
}

func loadConfig(f flags) (*config.Config, error) {
	features, err := config.ParseFeatures(f.features...)
	if err != nil {
		return nil, err
	}
	var files []string
	if f.envFile != "" {
		files = append(files, f.envFile)
	}
	env, err := config.FromOS().WithDotEnv(files...)
	if err != nil {
		return nil, err
	}
	return config.Load(env, features, config.LoadOptions{ConfigFile: f.configFile})
}

func newRouter(env *bootstrap.Environment) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(tracing.Middleware(nil))

	checks := health.Handler(env.Checker)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		timing.Time(r.Context(), env.Timer, "healthz", func(context.Context) struct{} {
			checks(w, r)
			return struct{}{}
		})
	})
	r.Get("/buildinfo", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(buildinfo.Read())
	})
	return r
}

func shutdown(server *http.Server, timeout time.Duration, logger *log.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("forced close failed")
		}
	}
}
