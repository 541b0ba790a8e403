package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/spindle/internal/api"
	"github.com/zulandar/spindle/internal/db"
	"github.com/zulandar/spindle/internal/export"
	"github.com/zulandar/spindle/internal/job"
	"github.com/zulandar/spindle/internal/logger"
	"github.com/zulandar/spindle/internal/metrics"
	"github.com/zulandar/spindle/internal/notify"
	"github.com/zulandar/spindle/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serves the job board JSON API, live dashboard events, spreadsheet exports and Prometheus metrics. Also runs scheduled archive snapshots when configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Spindle config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	log := logger.New(cfg.Log, cmd.ErrOrStderr())
	reg := metrics.New()

	opts := job.Options{
		Machines:       cfg.Machines,
		ConflictPolicy: cfg.Engine.CurrentConflict,
		ReferenceYear:  cfg.Engine.ReferenceYear,
		Logger:         log,
		Metrics:        reg,
	}
	notifier, err := notify.FromConfig(cfg.Notify, log)
	if err != nil {
		return err
	}
	if notifier != nil {
		opts.Notifier = notifier
		log.Info("completion notifications enabled", "senders", notifier.Senders())
	}
	manager := job.New(store.NewGorm(gormDB), opts)

	if cfg.Archive.SnapshotSchedule != "" {
		sched, err := export.NewScheduler(cfg.Archive.SnapshotSchedule, cfg.Archive.SnapshotDir, manager, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if port <= 0 {
		port = cfg.Server.Port
	}
	return api.Start(ctx, api.StartOpts{
		Manager:   manager,
		Metrics:   reg,
		Logger:    log,
		Port:      port,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Out:       cmd.OutOrStdout(),
	})
}
