package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	lshttp "github.com/mbialas/leadscout/http"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// Run starts the HTTP API and blocks until the context is cancelled or
// the listener fails.
func (c *ServeCmd) Run(deps *Dependencies) error {
	logger := newLogger(deps.Stderr, c.Verbose)

	pipeline, closeAll, err := buildPipeline(c.PipelineFlags, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	api := lshttp.NewServer(pipeline, logger)
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", c.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-deps.Ctx.Done():
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
