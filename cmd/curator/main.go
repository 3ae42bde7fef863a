package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/finbrief/trend-curator/internal/core/fetch"
	"github.com/finbrief/trend-curator/internal/core/gen"
	"github.com/finbrief/trend-curator/internal/curate"
	"github.com/finbrief/trend-curator/internal/platform/config"
	"github.com/finbrief/trend-curator/internal/platform/observability"
	db "github.com/finbrief/trend-curator/internal/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setLogLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	database, err := db.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	metricsServer := observability.NewServer(database, cfg.MetricsPort, &logger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()

	fetcher := fetch.New(cfg.WebFetchRPS, cfg.FetchTimeout, cfg.ImageProbeTimeout, cfg.MaxImageBytes)
	generator := gen.New(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMRPS, &logger)

	normalizer := curate.NewNormalizer(
		curate.NewClassifier(cfg.BlockedDomainSet()),
		curate.NewCanonicalizer(fetcher),
		curate.NewImageResolver(fetcher),
		&logger,
	)

	runner := curate.NewRunner(
		generator,
		database,
		curate.NewPoolBuilder(normalizer, generator, &logger),
		cfg,
		&logger,
	)

	logger.Info().Strs("scopes", cfg.Scopes).Msg("Starting curation run")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("Curation run failed")
	}

	logger.Info().Msg("Curation run completed")
}

// setLogLevel sets the global log level based on the configuration.
func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
