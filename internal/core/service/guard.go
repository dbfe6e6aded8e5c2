package service

import (
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// GuardConfig holds configuration for HandshakeGuard.
type GuardConfig struct {
	// RatePerSecond is the handshakes allowed per second per peer IP, with an
	// equal burst. Zero disables rate limiting.
	RatePerSecond int
	// Allowlist holds IPs or CIDRs; empty admits every peer. Unix socket
	// peers are always admitted.
	Allowlist []string
}

// DefaultGuardConfig returns default configuration.
func DefaultGuardConfig() *GuardConfig {
	return &GuardConfig{
		RatePerSecond: 20,
		Allowlist:     []string{},
	}
}

// HandshakeGuard decides whether a peer may start a handshake.
type HandshakeGuard struct {
	rate     int
	allow    Allowlist
	limiters *RateLimiterRegistry
}

// NewHandshakeGuard creates a guard. Invalid allowlist entries are errors.
func NewHandshakeGuard(cfg *GuardConfig) (*HandshakeGuard, error) {
	if cfg == nil {
		cfg = DefaultGuardConfig()
	}
	allow, err := ParseAllowlist(cfg.Allowlist)
	if err != nil {
		return nil, err
	}
	return &HandshakeGuard{
		rate:     cfg.RatePerSecond,
		allow:    allow,
		limiters: NewRateLimiterRegistry(),
	}, nil
}

// Admit returns nil when addr may proceed, or an auth error.
func (g *HandshakeGuard) Admit(addr net.Addr) error {
	ta, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil
	}
	if !g.allow.Permits(ta.IP) {
		return domain.ErrPeerNotAllowed.WithDetails(ta.IP.String())
	}
	if g.rate <= 0 {
		return nil
	}
	limiter := g.limiters.GetOrCreate(ta.IP.String(), g.rate)
	if !limiter.Allow() {
		r := limiter.Reserve()
		delay := r.Delay()
		r.Cancel()
		return domain.ErrRateLimited.Detailf("%s, retry after %s", ta.IP, delay)
	}
	return nil
}

// Forget drops the limiter state for ip.
func (g *HandshakeGuard) Forget(ip string) {
	g.limiters.Delete(ip)
}

// RateLimiterRegistry holds one limiter per peer key.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiterRegistry creates a new RateLimiterRegistry.
func NewRateLimiterRegistry() *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetOrCreate returns the limiter for key, creating it with perSecond events
// per second and an equal burst.
func (r *RateLimiterRegistry) GetOrCreate(key string, perSecond int) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[key]
	r.mu.RUnlock()
	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, exists := r.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	r.limiters[key] = limiter
	return limiter
}

// Delete removes the limiter for key.
func (r *RateLimiterRegistry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, key)
}

// Len returns the number of tracked keys.
func (r *RateLimiterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.limiters)
}
