package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/qipc-go/internal/cli/config"
	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/transport"
)

// ErrNotConnected is returned when no target has been set.
var ErrNotConnected = errors.New("not connected")

// Target identifies a peer and the credentials to present.
type Target struct {
	Kind        transport.Kind
	Host        string
	Port        int
	Credentials string

	// TLS dial settings; empty fields keep the manager's transport config.
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// String returns kind://host:port.
func (t Target) String() string {
	return fmt.Sprintf("%s://%s:%d", t.Kind, t.Host, t.Port)
}

// TargetFromProfile converts a CLI profile.
func TargetFromProfile(p config.Profile) (Target, error) {
	kind, err := transport.ParseKind(p.Transport)
	if err != nil {
		return Target{}, err
	}
	if p.Port <= 0 || p.Port > 65535 {
		return Target{}, fmt.Errorf("invalid port %d", p.Port)
	}
	return Target{
		Kind:               kind,
		Host:               p.Host,
		Port:               p.Port,
		Credentials:        p.Credentials(),
		CAFile:             p.CAFile,
		ServerName:         p.ServerName,
		InsecureSkipVerify: p.InsecureSkipVerify,
	}, nil
}

// sessionConfig returns base with the target's TLS settings applied.
func (t Target) sessionConfig(base *session.Config) *session.Config {
	if t.CAFile == "" && t.ServerName == "" && !t.InsecureSkipVerify {
		return base
	}
	cfg := *base
	tc := transport.DefaultConfig()
	if base.Transport != nil {
		c := *base.Transport
		tc = &c
	}
	if t.CAFile != "" {
		tc.RootCAFile = t.CAFile
	}
	if t.ServerName != "" {
		tc.ServerName = t.ServerName
	}
	if t.InsecureSkipVerify {
		tc.InsecureSkipVerify = true
	}
	cfg.Transport = tc
	return &cfg
}

// Manager owns at most one session.
type Manager struct {
	mu      sync.Mutex
	cfg     *session.Config
	target  *Target
	current *session.Session
}

// NewManager creates a new connection manager. A nil cfg uses
// session.DefaultConfig.
func NewManager(cfg *session.Config) *Manager {
	if cfg == nil {
		cfg = session.DefaultConfig()
	}
	return &Manager{cfg: cfg}
}

// Connect dials t, replacing any current session.
func (m *Manager) Connect(ctx context.Context, t Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
	m.target = &t
	_, err := m.dialLocked(ctx)
	return err
}

func (m *Manager) dialLocked(ctx context.Context) (*session.Session, error) {
	if m.target == nil {
		return nil, ErrNotConnected
	}
	t := m.target
	s, err := session.Connect(ctx, t.Kind, t.Host, t.Port, t.Credentials, t.sessionConfig(m.cfg))
	if err != nil {
		return nil, err
	}
	m.current = s
	return s, nil
}

func (m *Manager) closeLocked() {
	if m.current != nil {
		m.current.Shutdown()
		m.current = nil
	}
}

// Disconnect closes the current session and forgets the target.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
	m.target = nil
}

// Current returns the current session, or nil.
func (m *Manager) Current() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Target returns the remembered target.
func (m *Manager) Target() (Target, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target == nil {
		return Target{}, false
	}
	return *m.target, true
}

// IsConnected reports whether the current session is open.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.State() == session.StateOpen
}

// Session returns an open session, redialing the target when the previous
// one has closed.
func (m *Manager) Session(ctx context.Context) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.State() == session.StateOpen {
		return m.current, nil
	}
	m.closeLocked()
	return m.dialLocked(ctx)
}

// Query sends a sync request and returns the reply. A reply holding an error
// value is returned as a value, not as an error.
func (m *Manager) Query(ctx context.Context, req *domain.Value) (*domain.Value, error) {
	s, err := m.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.SendSync(ctx, req)
}

// Async sends a fire-and-forget message.
func (m *Manager) Async(ctx context.Context, msg *domain.Value) error {
	s, err := m.Session(ctx)
	if err != nil {
		return err
	}
	return s.SendAsync(ctx, msg)
}
