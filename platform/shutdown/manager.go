package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager coordinates graceful shutdown. It traps SIGINT/SIGTERM and runs
// the registered hooks in reverse registration order, each under its own
// timeout. A failing hook is logged, never escalated, so one stuck
// dependency cannot block the rest of the teardown or the process exit.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger
	funcs   []shutdownFunc
	mu      sync.Mutex
}

type shutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// New creates a Manager. Every hook runs with at most the given timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		logger:  logger,
		funcs:   make([]shutdownFunc, 0),
	}
}

// Add registers a named shutdown hook. Hooks run in reverse registration
// order, so register dependencies bottom-up (store before server).
func (m *Manager) Add(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, shutdownFunc{name: name, fn: fn})
}

// Wait blocks until SIGINT or SIGTERM arrives, then runs all registered
// hooks and returns.
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	m.logger.Info("Received shutdown signal, starting graceful shutdown")

	m.Run()
}

// Run executes the registered hooks without waiting for a signal.
// Exposed separately so startup failures can reuse the same teardown path.
func (m *Manager) Run() {
	m.mu.Lock()
	funcs := make([]shutdownFunc, len(m.funcs))
	copy(funcs, m.funcs)
	m.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		fn := funcs[i]
		m.logger.Info("Executing shutdown function", zap.String("name", fn.name))

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		start := time.Now()

		err := fn.fn(ctx)
		cancel()

		duration := time.Since(start)
		if err != nil {
			m.logger.Error("Shutdown function failed",
				zap.String("name", fn.name),
				zap.Error(err),
				zap.Duration("duration", duration))
		} else {
			m.logger.Info("Shutdown function completed",
				zap.String("name", fn.name),
				zap.Duration("duration", duration))
		}
	}

	m.logger.Info("Graceful shutdown completed")
}

// ShutdownHTTPServer returns a hook that drains an http.Server.
func ShutdownHTTPServer(srv interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}
}

// ClosePool returns a hook that closes a connection pool. pgxpool's Close
// waits for checked-out connections to be returned, so the hook runs it in
// a goroutine and gives up when the context expires.
func ClosePool(pool interface {
	Close()
}) func(context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			pool.Close()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("pool close timeout exceeded")
		}
	}
}

// ShutdownTelemetry returns a hook that flushes and closes a telemetry
// provider bundle.
func ShutdownTelemetry(bundle interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return bundle.Shutdown(ctx)
	}
}
