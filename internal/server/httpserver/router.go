package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/qipc-go/internal/core/service"
	"github.com/yndnr/qipc-go/internal/session"
)

// SessionLister reports live IPC sessions.
type SessionLister interface {
	Sessions() []session.Info
}

// ReadyFunc reports whether the server accepts IPC connections.
type ReadyFunc func() bool

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics serves GET /metrics; nil leaves the route unregistered.
	Metrics http.Handler
	// Sessions backs GET /sessions; nil leaves the route unregistered.
	Sessions SessionLister
	// Ready backs GET /ready; nil always reports ready.
	Ready  ReadyFunc
	Logger *slog.Logger

	// AllowList restricts /sessions; empty means no restriction.
	AllowList service.Allowlist
	// RateLimit is the per-IP request rate for every route; zero disables it.
	RateLimit int
	// EnableAudit logs every request.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:   100,
		EnableAudit: true,
	}
}

// NewRouter builds the mux with its middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultRouterConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{sessions: cfg.Sessions, ready: cfg.Ready}

	// Order: Recover -> RequestID -> RateLimit -> Audit -> handler
	base := []Middleware{Recover(logger), RequestID()}
	if cfg.RateLimit > 0 {
		base = append(base, RateLimit(cfg.RateLimit))
	}
	if cfg.EnableAudit {
		base = append(base, Audit(logger))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", Chain(http.HandlerFunc(h.handleHealth), base...))
	mux.Handle("GET /ready", Chain(http.HandlerFunc(h.handleReady), base...))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, base...))
	}

	if cfg.Sessions != nil {
		restricted := append([]Middleware{}, base...)
		if len(cfg.AllowList) > 0 {
			restricted = append(restricted, NetworkACL(cfg.AllowList, logger))
		}
		mux.Handle("GET /sessions", Chain(http.HandlerFunc(h.handleSessions), restricted...))
	}

	return mux
}
