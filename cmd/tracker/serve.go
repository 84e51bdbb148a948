package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/delivery/http/handler"
	"github.com/user/revenue-tracker/internal/delivery/http/router"
	"github.com/user/revenue-tracker/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(c *cli) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		Long: `Start the HTTP API and run the pipeline on SCRAPE_SCHEDULE. Each scheduled
run is followed by alert dispatch when a store is configured, and the weekly
summary goes out on SUMMARY_SCHEDULE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "start a run immediately instead of waiting for the schedule")
	return cmd
}

func (c *cli) serve(parent context.Context, runNow bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := c.logger

	a, err := newApp(ctx, c.cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		alerts     handler.AlertLister
		dispatcher scheduler.Dispatcher
	)
	if a.alerts != nil {
		alerts = a.alerts
		dispatcher = a.alerts
	}

	sched := scheduler.New(a.tracker.RunOnce, dispatcher, logger)
	if err := sched.Schedule(ctx, c.cfg.ScrapeSchedule, c.cfg.SummarySchedule); err != nil {
		return err
	}
	sched.Start()

	h := handler.NewHandler(ctx, a.tracker, alerts, a.checks, logger)
	server := &http.Server{
		Addr:         ":" + c.cfg.ServerPort,
		Handler:      router.New(h, a.metrics, a.registry, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", c.cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if runNow {
		go sched.Scrape(ctx)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Could not listen on port", zap.String("port", c.cfg.ServerPort), zap.Error(err))
		}
		stop()
		<-sched.Stop().Done()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled jobs still running at shutdown")
	}
	return nil
}
