package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/ryanbastic/pixel-mosaic/internal/canvas"
	"github.com/ryanbastic/pixel-mosaic/internal/circuitbreaker"
	"github.com/ryanbastic/pixel-mosaic/internal/config"
	"github.com/ryanbastic/pixel-mosaic/internal/metrics"
	"github.com/ryanbastic/pixel-mosaic/internal/payment"
	"github.com/ryanbastic/pixel-mosaic/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pixelmosaic:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pixelmosaic",
		Short:         "Collaborative pixel canvas with paid pixel ownership",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newStampCmd())

	return root
}

// app holds what every subcommand needs: validated config, a logger, a
// migrated database, and the canvas service on top of it.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	pixels  *storage.PostgresStore
	breaker *circuitbreaker.Breaker
	canvas  *canvas.Service
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// loadConfig reads and validates the environment. Only the server needs the
// signing and payment secrets.
func loadConfig(serving bool) (config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if serving {
		if err := cfg.ValidateSecrets(); err != nil {
			return cfg, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}

func bootstrap(ctx context.Context, serving bool) (*app, error) {
	cfg, err := loadConfig(serving)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	if err := storage.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete")

	breaker := circuitbreaker.New(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout)
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		metrics.BreakerState.Set(float64(to))
		logger.Warn("payment breaker state changed", "from", from.String(), "to", to.String())
	})
	processor := payment.NewGuarded(payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil), breaker)

	pixels := storage.NewPostgresStore(pool, cfg.GridSize, cfg.QueryTimeout)
	svc := canvas.NewService(pixels, processor, canvas.Config{
		GridSize:             cfg.GridSize,
		DefaultColor:         cfg.DefaultColor,
		PriceCents:           cfg.PixelPriceCents,
		Currency:             cfg.Currency,
		ClientURL:            cfg.ClientURL,
		PlacementConcurrency: cfg.PlacementConcurrency,
	}, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		pixels:  pixels,
		breaker: breaker,
		canvas:  svc,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}
