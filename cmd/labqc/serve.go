package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apibulk "labqc/pkg/api/bulk"
	apiconfig "labqc/pkg/api/config"
	apidashboard "labqc/pkg/api/dashboard"
	"labqc/pkg/api/prompts"
	"labqc/pkg/api/reports"
	"labqc/pkg/api/server"
	"labqc/pkg/core/bulk"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the QC API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	pacer := bulk.NewPacer(a.cfg.PaceDelay, a.cfg.PaceRPS, a.cfg.PaceBurst)
	orch := bulk.NewOrchestrator(a.source, a.gateway, a.manager, pacer, a.logger, a.metrics)
	// Shutdown stops the runner through its flag; the item in flight finishes.
	runner := bulk.NewRunner(context.WithoutCancel(ctx), orch, a.logger, a.metrics)

	handler := server.Routes(server.Handlers{
		Reports:   reports.NewHandler(a.source, a.gateway, a.manager, a.settings, a.logger),
		Bulk:      apibulk.NewHandler(runner, a.settings, a.logger),
		Config:    apiconfig.NewHandler(a.settings, a.manager),
		Prompts:   prompts.NewHandler(a.settings),
		Dashboard: apidashboard.NewHandler(a.gateway, time.Local),
		Metrics:   a.metrics.Handler(),
	}, a.logger)
	srv := server.New(":"+a.cfg.Port, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down server")
		runner.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		runner.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
