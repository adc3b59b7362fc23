package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ryanbastic/pixel-mosaic/internal/api"
	"github.com/ryanbastic/pixel-mosaic/internal/auth"
	"github.com/ryanbastic/pixel-mosaic/internal/metrics"
	"github.com/ryanbastic/pixel-mosaic/internal/notify"
	"github.com/ryanbastic/pixel-mosaic/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed the grid and run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if _, err := a.canvas.SeedGrid(ctx); err != nil {
		return err
	}
	prometheus.MustRegister(metrics.NewPoolCollector("primary", a.pool))

	var mailer auth.Mailer
	if a.cfg.MailRPCEndpoint != "" {
		rpc := notify.NewRPCClient(a.cfg.MailRPCEndpoint, a.cfg.MailRPCRetryMax, a.cfg.MailRPCRetryBackoff, a.cfg.MailRPCTimeout)
		mailer = notify.NewRPCMailer(rpc, a.cfg.ClientURL)
		logger.Info("mail delivery via RPC", "endpoint", a.cfg.MailRPCEndpoint)
	} else {
		mailer = notify.NewLogMailer(a.cfg.ClientURL, logger)
		logger.Warn("MAIL_RPC_ENDPOINT not set, mail links are only logged")
	}

	users := storage.NewPostgresUserStore(a.pool, a.cfg.QueryTimeout)
	accounts := auth.NewAccounts(users, a.pixels, auth.NewSessions(a.cfg.JWTSecret, a.cfg.SessionTTL), mailer, auth.Config{
		VerifyTokenTTL:  a.cfg.VerifyTokenTTL,
		ResetTokenTTL:   a.cfg.ResetTokenTTL,
		RequireVerified: a.cfg.RequireVerifiedEmail,
	}, logger)
	a.canvas.SetOwners(accounts)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go notify.NewSweeper(users, a.cfg.TokenSweepInterval, logger).Run(sweepCtx)

	handler := api.NewServer(logger, a.canvas, accounts, map[string]api.Pinger{"postgres": a.pool}, []string{a.cfg.ClientURL})
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "port", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
