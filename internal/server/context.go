package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/calchat/calchat/internal/calendar"
	"github.com/calchat/calchat/internal/google"
	"github.com/calchat/calchat/internal/instrumentation"
)

// ServerContext carries the shared dependencies for tool handlers: the
// calendar client, the credential provider, and instrumentation. It is
// passed by reference so every consumer observes the same state.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	provider       *google.Provider
	calendarClient *calendar.Client

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. The calendar client is
// created lazily on first use so commands that never touch the backend
// (status, logout) do not trigger the consent flow.
func NewServerContext(ctx context.Context, provider *google.Provider, logger *slog.Logger) (*ServerContext, error) {
	if provider == nil {
		return nil, fmt.Errorf("credential provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		logger:   logger,
		provider: provider,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the shared logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Provider returns the Google credential provider.
func (sc *ServerContext) Provider() *google.Provider {
	return sc.provider
}

// CalendarClient returns the calendar client, creating and caching it on
// first use. Creation runs the credential lifecycle, which may start the
// interactive consent flow when no stored token exists.
func (sc *ServerContext) CalendarClient(ctx context.Context) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}

	httpClient, err := sc.provider.HTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain credentials: %w", err)
	}

	client, err := calendar.NewClient(ctx, httpClient, sc.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	sc.calendarClient = client
	return client, nil
}

// SetCalendarClient sets the calendar client. Used by tests to inject a
// pre-built client.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClient = client
}

// SetInstrumentation attaches a metrics recorder and audit logger.
func (sc *ServerContext) SetInstrumentation(metrics *instrumentation.Metrics, auditLogger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
	sc.auditLogger = auditLogger
}

// Metrics returns the metrics recorder, or nil if not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil if not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
