// Package api serves the job lifecycle over HTTP with gin.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/spindle/internal/job"
	"github.com/zulandar/spindle/internal/logger"
	"github.com/zulandar/spindle/internal/metrics"
)

// shutdownTimeout bounds graceful shutdown once ctx is cancelled.
const shutdownTimeout = 10 * time.Second

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Manager *job.Manager
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Port    int
	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64
	RateBurst int
	// PollInterval is how often the event stream checks the dashboard.
	PollInterval time.Duration
	Out          io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 5000
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Spindle API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("api: job manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(opts.Logger, opts.Metrics))
	if opts.RateLimit > 0 {
		router.Use(rateLimit(opts.RateLimit, opts.RateBurst))
	}

	registerRoutes(router, &handlers{
		jobs:    opts.Manager,
		log:     opts.Logger,
		poll:    opts.PollInterval,
		metrics: opts.Metrics,
	})
	return router, nil
}
