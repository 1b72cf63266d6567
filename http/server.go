package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/telemetry"
	"github.com/awantoch/promptgate/utils"
)

const shutdownTimeout = 10 * time.Second

// StartServer serves the router on cfg.HTTP until ctx is done, then shuts
// down gracefully. Configuration problems are returned before anything
// listens.
func StartServer(ctx context.Context, cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Init(cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			utils.Warn("tracer shutdown: %v", err)
		}
	}()

	deps, cleanup, err := InitializeDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	router, err := NewRouter(cfg, deps.Cache, deps.KV)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	utils.Info("promptgate listening on %s", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		utils.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}
