package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/adapter"
	"github.com/marmos91/dittozip/pkg/metrics"
	"github.com/marmos91/dittozip/pkg/registry"
)

// ErrAlreadyServed is returned when Serve() is called a second time.
var ErrAlreadyServed = errors.New("Serve() has already been called on this server instance")

// DittoServer manages the lifecycle of the protocol adapters that expose the
// download service, plus the optional metrics server.
//
// Architecture:
// Every adapter receives the same Registry, so all of them serve the same
// catalog, content store and download service.
//
// Lifecycle:
//  1. Creation: New() with the registry
//  2. Registration: AddAdapter() for each protocol
//  3. Startup: Serve() starts all adapters (and the metrics server) concurrently
//  4. Shutdown: Context cancellation triggers graceful shutdown of all adapters
//
// Thread safety:
// DittoServer is safe for concurrent use. AddAdapter() may be called concurrently
// with other methods. Serve() should only be called once per server instance.
//
// Example usage:
//
//	server := New(reg, WithMetricsServer(metricsServer))
//	server.AddAdapter(httpadapter.New(httpConfig, httpMetrics))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := server.Serve(ctx); err != nil && err != context.Canceled {
//	    log.Fatal(err)
//	}
type DittoServer struct {
	// registry holds the stores and the download service shared by all adapters
	registry *registry.Registry

	// metricsServer exposes /metrics (nil when metrics are disabled)
	metricsServer *metrics.Server

	// stopTimeout bounds the Stop() calls issued during shutdown
	stopTimeout time.Duration

	// adapters contains all registered protocol adapters
	adapters []adapter.Adapter

	// mu protects the adapters slice and the served flag
	mu     sync.RWMutex
	served bool
}

// Option configures a DittoServer.
type Option func(*DittoServer)

// WithMetricsServer runs the metrics server alongside the adapters.
func WithMetricsServer(s *metrics.Server) Option {
	return func(ds *DittoServer) {
		ds.metricsServer = s
	}
}

// WithStopTimeout sets how long adapters get to stop (default 30s).
func WithStopTimeout(d time.Duration) Option {
	return func(ds *DittoServer) {
		if d > 0 {
			ds.stopTimeout = d
		}
	}
}

// New creates a new DittoServer serving the given registry.
//
// Panics if reg is nil (indicates programmer error).
func New(reg *registry.Registry, opts ...Option) *DittoServer {
	if reg == nil {
		panic("registry cannot be nil")
	}

	s := &DittoServer{
		registry:    reg,
		stopTimeout: 30 * time.Second,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAdapter registers a new protocol adapter with the server.
//
// This method injects the shared registry into the adapter and adds it to the
// list of adapters that will be started when Serve() is called.
//
// Returns an error if another adapter already serves the same protocol or
// port, or if Serve() has already been called.
//
// Panics if adapter is nil (programmer error).
func (s *DittoServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return fmt.Errorf("cannot add %s adapter after Serve() has been called", a.Protocol())
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		// Port 0 binds an ephemeral port and never conflicts
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}
	if s.metricsServer != nil && port != 0 && s.metricsServer.Port() == port {
		return fmt.Errorf("port %d already in use by the metrics server", port)
	}

	a.SetRegistry(s.registry)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)

	return nil
}

// Serve starts all registered adapters and blocks until the context is cancelled
// or an adapter fails.
//
// Shutdown behavior:
// When the context is cancelled or an adapter fails:
//   - All adapters receive Stop() calls in reverse registration order
//   - Each Stop() is bounded by the stop timeout
//   - The metrics server is stopped after the adapters
//   - Serve() waits for all adapters to complete before returning
//
// Returns:
//   - context.Canceled if shutdown was triggered by context cancellation
//   - the adapter's error if an adapter failed
//   - ErrAlreadyServed on a second call
func (s *DittoServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return ErrAlreadyServed
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	logger.Info("Starting dittozip server with %d adapter(s)", len(adapters))

	// Adapters are served with a derived context so that a failing adapter
	// also cancels the others.
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to prevent goroutine leaks if several adapters fail at once
	errChan := make(chan adapterError, len(adapters)+1)

	var wg sync.WaitGroup
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			err := a.Serve(serveCtx)
			switch {
			case err == nil:
				logger.Info("%s adapter stopped", protocol)
			case errors.Is(err, context.Canceled) || serveCtx.Err() != nil:
				logger.Debug("%s adapter stopped gracefully", protocol)
			default:
				logger.Error("%s adapter failed: %v", protocol, err)
				errChan <- adapterError{protocol: protocol, err: err}
			}
		}(adp)
	}

	if s.metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.metricsServer.Start(serveCtx); err != nil && serveCtx.Err() == nil {
				errChan <- adapterError{protocol: "metrics", err: err}
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	s.stopAllAdapters(adapters)
	cancel()

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("dittozip server stopped")

	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error for better error reporting.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters initiates graceful shutdown of all adapters in reverse
// registration order. Errors are logged and do not stop the remaining
// adapters from being stopped.
func (s *DittoServer) stopAllAdapters(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())

		if err := adp.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		} else {
			logger.Debug("%s adapter stop signal sent", protocol)
		}
	}
}

// Adapters returns a snapshot of currently registered adapters.
func (s *DittoServer) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
