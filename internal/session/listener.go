package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/transport"
)

// Guard vets a peer before its handshake is read.
type Guard interface {
	Admit(addr net.Addr) error
}

// Listener accepts transport connections and yields authenticated sessions.
// Handshakes run concurrently; a failed handshake is logged and never
// affects the listener.
type Listener struct {
	tl     *transport.Listener
	auth   Authenticator
	guard  Guard
	cfg    *Config
	logger *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	ready   chan *Session
	done    chan struct{}
	closed  atomic.Bool
	loopErr error
	wg      sync.WaitGroup
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithGuard installs a pre-handshake admission check.
func WithGuard(g Guard) ListenerOption {
	return func(l *Listener) {
		l.guard = g
	}
}

// Listen binds a transport listener and starts accepting.
func Listen(ctx context.Context, kind transport.Kind, host string, port int, auth Authenticator, cfg *Config, opts ...ListenerOption) (*Listener, error) {
	cfg = cfg.withDefaults()
	tl, err := transport.Listen(ctx, kind, host, port, cfg.Transport)
	if err != nil {
		return nil, err
	}
	return NewListener(tl, auth, cfg, opts...), nil
}

// NewListener starts accepting on an existing transport listener. The
// Listener owns tl from now on.
func NewListener(tl *transport.Listener, auth Authenticator, cfg *Config, opts ...ListenerOption) *Listener {
	cfg = cfg.withDefaults()
	l := &Listener{
		tl:     tl,
		auth:   auth,
		cfg:    cfg,
		logger: cfg.Logger.With("listener", tl.Kind().String(), "address", tl.Addr().String()),
		ready:  make(chan *Session),
		done:   make(chan struct{}),
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.acceptLoop()
	}()
	l.logger.Info("listening")
	return l
}

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.tl.Accept()
		if err != nil {
			if l.closed.Load() || errors.Is(err, domain.ErrConnectionClosed) {
				return
			}
			l.logger.Error("accept failed", "error", err)
			l.loopErr = err
			l.shutdown()
			return
		}

		if l.guard != nil {
			if err := l.guard.Admit(conn.RemoteAddr()); err != nil {
				l.logger.Warn("peer refused", "remote", conn.RemoteAddr().String(), "error", err)
				l.cfg.Observer.Handshake(conn.Kind(), HandshakeLimited)
				conn.Close()
				continue
			}
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handshake(conn)
		}()
	}
}

func (l *Listener) handshake(conn *transport.Conn) {
	s, err := Accept(l.ctx, conn, l.auth, l.cfg)
	if err != nil {
		l.logger.Warn("handshake failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	select {
	case l.ready <- s:
	case <-l.done:
		s.Shutdown()
	}
}

// Accept returns the next authenticated session. After Close it returns
// domain.ErrConnectionClosed.
func (l *Listener) Accept(ctx context.Context) (*Session, error) {
	select {
	case s := <-l.ready:
		return s, nil
	case <-l.done:
		if l.loopErr != nil {
			return nil, l.loopErr
		}
		return nil, domain.ErrConnectionClosed.WithDetails("listener closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting, abandons pending handshakes and waits for them.
// Sessions already returned by Accept are unaffected.
func (l *Listener) Close() error {
	err := l.shutdown()
	l.wg.Wait()
	return err
}

func (l *Listener) shutdown() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(l.done)
	l.cancel()
	l.logger.Info("listener closed")
	return l.tl.Close()
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.tl.Addr() }

// Port returns the bound TCP port, or 0 for unix sockets.
func (l *Listener) Port() int { return l.tl.Port() }

// Kind returns the transport kind.
func (l *Listener) Kind() transport.Kind { return l.tl.Kind() }
