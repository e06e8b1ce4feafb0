package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	courseauth "github.com/progplatform/courseauth"
	otelexport "github.com/progplatform/courseauth/metrics/export/otel"
	"github.com/progplatform/courseauth/password"
	"github.com/progplatform/courseauth/userstore"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "courseauthd").Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis")
	}

	store, err := userstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	if err := store.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("hasher")
	}

	service, err := courseauth.New().
		WithConfig(cfg.authConfig()).
		WithRedis(redisClient).
		WithUserStore(store).
		WithPasswordHasher(hasher).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("build service")
	}
	defer service.Close()

	exporter, err := otelexport.NewExporter(otel.Meter("courseauthd"), service)
	if err != nil {
		logger.Fatal().Err(err).Msg("metrics exporter")
	}
	defer exporter.Close()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newRouter(service, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
