package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/internal/ratelimiter"
	"github.com/marmos91/dittozip/pkg/metrics"
	"github.com/marmos91/dittozip/pkg/registry"
)

// HTTPAdapter implements the adapter.Adapter interface for HTTP downloads.
//
// Routes:
//   - GET  /healthz                              catalog healthcheck
//   - GET  /datasets/{dataset}/files/{file}      stream one permitted file
//   - POST /datasets/{dataset}/zip               build, stream and delete an archive
//
// The acting identity comes from the X-Dittozip-* headers; authentication
// happens in front of the adapter.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. In-flight downloads get up to ShutdownTimeout to finish
//  4. Remaining connections are closed
type HTTPAdapter struct {
	config   HTTPConfig
	registry *registry.Registry
	metrics  metrics.HTTPMetrics

	// zipLimiter throttles archive builds per client
	zipLimiter *ratelimiter.Keyed

	mu       sync.Mutex
	server   *nethttp.Server
	listener net.Listener

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// New creates a new HTTPAdapter with the specified configuration.
//
// Parameters:
//   - config: Server configuration (port, timeouts, limits)
//   - httpMetrics: Optional metrics collector (nil for no metrics)
//
// Panics if config validation fails.
func New(config HTTPConfig, httpMetrics metrics.HTTPMetrics) *HTTPAdapter {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid HTTP config: %v", err))
	}

	if httpMetrics == nil {
		httpMetrics = metrics.NewNoopHTTPMetrics()
	}

	return &HTTPAdapter{
		config:     config,
		metrics:    httpMetrics,
		zipLimiter: ratelimiter.NewKeyed(config.ZipRateLimit, config.ZipRateBurst, 0),
		shutdown:   make(chan struct{}),
	}
}

// SetRegistry injects the shared registry.
//
// Thread safety:
// Called exactly once before Serve(), no synchronization needed.
func (a *HTTPAdapter) SetRegistry(reg *registry.Registry) {
	a.registry = reg
	logger.Debug("HTTP adapter registry configured")
}

// Handler returns the adapter's routes. It requires SetRegistry to have
// been called.
func (a *HTTPAdapter) Handler() nethttp.Handler {
	mux := nethttp.NewServeMux()
	a.registerRoutes(mux)
	return mux
}

// Serve starts the HTTP server and blocks until the context is cancelled
// or the server fails.
func (a *HTTPAdapter) Serve(ctx context.Context) error {
	if a.registry == nil {
		return fmt.Errorf("HTTP adapter has no registry; call SetRegistry() before Serve()")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create HTTP listener on port %d: %w", a.config.Port, err)
	}

	server := &nethttp.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
		IdleTimeout:  a.config.IdleTimeout,
	}

	a.mu.Lock()
	a.listener = listener
	a.server = server
	a.mu.Unlock()

	select {
	case <-a.shutdown:
		_ = listener.Close()
		return nil
	default:
	}

	logger.Info("HTTP server listening on %s", listener.Addr())
	logger.Debug("HTTP config: read_timeout=%v write_timeout=%v idle_timeout=%v",
		a.config.ReadTimeout, a.config.WriteTimeout, a.config.IdleTimeout)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("HTTP shutdown signal received: %v", ctx.Err())
			a.gracefulShutdown()
		case <-done:
		}
	}()

	err = server.Serve(listener)
	if errors.Is(err, nethttp.ErrServerClosed) {
		<-a.shutdown
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	return err
}

// gracefulShutdown stops the server, waiting up to ShutdownTimeout for
// in-flight requests. Safe to call multiple times.
func (a *HTTPAdapter) gracefulShutdown() {
	a.shutdownOnce.Do(func() {
		defer close(a.shutdown)

		a.mu.Lock()
		server := a.server
		a.mu.Unlock()
		if server == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("HTTP graceful shutdown timed out, closing connections: %v", err)
			_ = server.Close()
		}
		logger.Debug("HTTP server shut down")
	})
}

// Stop initiates graceful shutdown of the HTTP server.
func (a *HTTPAdapter) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		a.gracefulShutdown()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound listener address, or "" before Serve().
func (a *HTTPAdapter) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Protocol returns "HTTP".
func (a *HTTPAdapter) Protocol() string {
	return "HTTP"
}

// Port returns the configured TCP port.
func (a *HTTPAdapter) Port() int {
	return a.config.Port
}

// instrument records metrics for a route.
func (a *HTTPAdapter) instrument(route string, next nethttp.HandlerFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		a.metrics.RecordRequestStart(route)
		defer a.metrics.RecordRequestEnd(route)

		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next(rec, r)

		a.metrics.RecordRequest(route, rec.status, time.Since(start), rec.bytes)
		logger.Debug("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start))
	}
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	nethttp.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

// ReadFrom keeps io.Copy on the sendfile path of the underlying writer.
func (r *statusRecorder) ReadFrom(src io.Reader) (int64, error) {
	r.wroteHeader = true
	n, err := io.Copy(r.ResponseWriter, src)
	r.bytes += n
	return n, err
}
