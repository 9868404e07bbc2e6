// Package app wires configuration, the contact store and the HTTP server
// into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/JonMunkholm/contacts/internal/database"
	"github.com/JonMunkholm/contacts/internal/metrics"
	"github.com/JonMunkholm/contacts/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// App owns the long-lived dependencies of the server process.
type App struct {
	config  *config.Config
	store   core.Store
	closeFn func()
	service *core.Service
	server  *web.Server
}

// New opens the configured store and builds the service and HTTP server.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeFn, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	service := core.NewService(store, ServiceConfig(cfg), recorderOf(m))

	return &App{
		config:  cfg,
		store:   store,
		closeFn: closeFn,
		service: service,
		server:  web.NewServer(cfg, service, m),
	}, nil
}

// Close releases the store.
func (a *App) Close() {
	a.closeFn()
}

// Run serves HTTP until ctx is cancelled, then drains in-flight imports
// and shuts the server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if status := a.service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := a.service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// OpenStore returns the contact store selected by STORE_DRIVER and a func
// that releases it. Postgres stores are migrated first when enabled.
func OpenStore(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory contact store, data is lost on exit")
		return core.NewMemoryStore(), func() {}, nil
	case config.DriverPostgres:
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return core.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Database.Driver)
	}
}

// ServiceConfig extracts the import settings for core.NewService.
func ServiceConfig(cfg *config.Config) core.ServiceConfig {
	return core.ServiceConfig{
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWaitTime:   cfg.Import.MaxWaitTime,
		Timeout:       cfg.Import.Timeout,
	}
}

// recorderOf avoids handing the service a typed nil interface.
func recorderOf(m *metrics.Metrics) core.Recorder {
	if m == nil {
		return nil
	}
	return m
}
