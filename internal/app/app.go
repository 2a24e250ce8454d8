package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httpapi "github.com/devops-thiago/otel-example-go/internal/api/http"
	"github.com/devops-thiago/otel-example-go/internal/config"
	"github.com/devops-thiago/otel-example-go/internal/repository/postgres"
	"github.com/devops-thiago/otel-example-go/internal/service"
	"github.com/devops-thiago/otel-example-go/platform/logging"
	"github.com/devops-thiago/otel-example-go/platform/observability"
	"github.com/devops-thiago/otel-example-go/platform/shutdown"
)

// App assembles the service: telemetry, database pool, HTTP server and the
// shutdown manager, built in dependency order.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	server *http.Server

	shutdownMgr *shutdown.Manager
}

// Build constructs the application from configuration. On error everything
// constructed so far is torn down, so Build either returns a runnable App or
// leaves no resources behind.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Config{
		ServiceName: cfg.OTelServiceName,
		Env:         cfg.AppEnv,
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	bundle, err := observability.Init(ctx, observability.Config{
		OTLPEndpoint:          cfg.OTelExporterOTLPEndpoint,
		ServiceName:           cfg.OTelServiceName,
		ServiceVersion:        cfg.OTelServiceVersion,
		DeploymentEnvironment: cfg.OTelEnvironment,
		EnableTracing:         cfg.OTelEnableTracing,
		EnableMetrics:         cfg.OTelEnableMetrics,
		EnableLogging:         cfg.OTelEnableLogging,
		MetricInterval:        cfg.OTelMetricExportInterval,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	shutdownMgr := shutdown.New(cfg.ShutdownTimeout, logger)
	shutdownMgr.Add("telemetry", shutdown.ShutdownTelemetry(bundle))

	// Rebuild the logger with the OTLP bridge teed in, so records flow to the
	// collector as well as stderr. Console output never depends on the bridge.
	if core, ok := bundle.ZapCore(); ok {
		logger, err = logging.New(logging.Config{
			ServiceName: cfg.OTelServiceName,
			Env:         cfg.AppEnv,
			Level:       cfg.LogLevel,
		}, core)
		if err != nil {
			shutdownMgr.Run()
			return nil, fmt.Errorf("build logger with otlp bridge: %w", err)
		}
	}

	pool, err := newPool(ctx, cfg, bundle)
	if err != nil {
		shutdownMgr.Run()
		return nil, err
	}
	shutdownMgr.Add("database_pool", shutdown.ClosePool(pool))

	repo := postgres.NewRepository(pool)
	userService := service.NewUserService(repo, logger)

	handler := httpapi.NewHandler(userService, logger)
	health := httpapi.NewHealthHandler(pool.Ping, logger)
	router := httpapi.NewRouter(handler, health, bundle.HTTPMiddleware(logger))

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", shutdown.ShutdownHTTPServer(server))

	return &App{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		server:      server,
		shutdownMgr: shutdownMgr,
	}, nil
}

// newPool opens the pgx pool with the query tracer attached and verifies
// connectivity with a ping.
func newPool(ctx context.Context, cfg config.Config, bundle *observability.Bundle) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.ConnConfig.Tracer = bundle.PgxTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Run starts the HTTP server and blocks until a shutdown signal arrives (or
// the server fails to serve), then tears everything down in reverse order.
func (a *App) Run() error {
	defer logging.Sync(a.logger)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	done := make(chan struct{})
	go func() {
		a.shutdownMgr.Wait()
		close(done)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			a.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
			a.shutdownMgr.Run()
			return err
		}
		<-done
	case <-done:
	}
	return nil
}
