package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/transport"
)

// Config holds session settings shared by Connect and Listen.
type Config struct {
	// Transport configures dialing and listening.
	Transport *transport.Config
	// MaxMessageSize bounds inbound and outbound frames.
	MaxMessageSize int
	// ByteOrder is the order of outbound frames; nil uses the host order.
	ByteOrder wire.ByteOrder
	// HandshakeTimeout bounds the credential exchange.
	HandshakeTimeout time.Duration
	// MaxCredentialLength bounds the credential a client may send.
	MaxCredentialLength int
	Logger              *slog.Logger
	Observer            Observer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Transport:           transport.DefaultConfig(),
		MaxMessageSize:      wire.DefaultMaxMessageSize,
		HandshakeTimeout:    10 * time.Second,
		MaxCredentialLength: 1024,
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		d.Logger = slog.Default()
		d.Observer = nopObserver{}
		return d
	}
	out := *c
	if out.Transport == nil {
		out.Transport = d.Transport
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = d.HandshakeTimeout
	}
	if out.MaxCredentialLength <= 0 {
		out.MaxCredentialLength = d.MaxCredentialLength
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Observer == nil {
		out.Observer = nopObserver{}
	}
	return &out
}

func (c *Config) codec() *wire.Codec {
	return wire.NewCodec(wire.WithByteOrder(c.ByteOrder), wire.WithMaxMessageSize(c.MaxMessageSize))
}

// Info describes an open session.
type Info struct {
	ID         ulid.ULID
	User       string
	Kind       transport.Kind
	RemoteAddr string
	Local      bool
	// Capability is the protocol capability agreed during the handshake.
	Capability byte
	// Server is true for sessions produced by a Listener.
	Server   bool
	OpenedAt time.Time
}

// Session is one authenticated IPC connection.
type Session struct {
	conn     *transport.Conn
	codec    *wire.Codec
	info     Info
	logger   *slog.Logger
	observer Observer

	state    atomic.Int32
	compress atomic.Bool

	wmu          sync.Mutex
	rmu          sync.Mutex
	syncInFlight atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn *transport.Conn, cfg *Config, server bool) *Session {
	s := &Session{
		conn:     conn,
		codec:    cfg.codec(),
		observer: cfg.Observer,
		info: Info{
			ID:         ulid.Make(),
			Kind:       conn.Kind(),
			RemoteAddr: conn.RemoteAddr().String(),
			Local:      conn.IsLocal(),
			Server:     server,
		},
	}
	s.logger = cfg.Logger.With(
		"session", s.info.ID.String(),
		"transport", s.info.Kind.String(),
		"remote", s.info.RemoteAddr,
	)
	s.state.Store(int32(StateHandshaking))
	return s
}

func (s *Session) open(user string, capability byte) {
	s.info.User = user
	s.info.Capability = capability
	s.info.OpenedAt = time.Now()
	s.state.Store(int32(StateOpen))
	s.observer.SessionOpened(s.info.Kind)
	s.logger.Info("session open", "user", user, "capability", capability, "local", s.info.Local)
}

// Info returns the session metadata.
func (s *Session) Info() Info { return s.info }

// ID returns the session identifier.
func (s *Session) ID() ulid.ULID { return s.info.ID }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// IsLocal reports whether the peer is on this host.
func (s *Session) IsLocal() bool { return s.info.Local }

// EnforceCompression compresses large outbound messages even on local
// connections.
func (s *Session) EnforceCompression() { s.compress.Store(true) }

func (s *Session) allowCompression() bool {
	return !s.info.Local || s.compress.Load()
}

func (s *Session) checkOpen() error {
	if st := s.State(); st != StateOpen {
		return domain.ErrSessionClosed.Detailf("session is %s", st)
	}
	return nil
}

// SendAsync writes an async message; no reply is expected.
func (s *Session) SendAsync(ctx context.Context, v *domain.Value) error {
	return s.Send(ctx, wire.Async, v)
}

// Respond answers a sync request read with Receive.
func (s *Session) Respond(ctx context.Context, v *domain.Value) error {
	return s.Send(ctx, wire.Response, v)
}

// Send writes one message of any type without waiting for a reply.
// Encoding failures leave the session open; write failures close it.
func (s *Session) Send(ctx context.Context, typ wire.MessageType, v *domain.Value) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	frame, err := s.codec.Encode(typ, v, s.allowCompression())
	if err != nil {
		return err
	}

	s.wmu.Lock()
	err = s.conn.WriteAll(ctx, frame)
	s.wmu.Unlock()
	if err != nil {
		return s.fail(err)
	}
	s.observer.Message(Outbound, typ, len(frame), frame[2] == 1)
	return nil
}

// SendSync writes a sync message and waits for its response. A response
// carrying an error value is returned as that value; use Value.Err to test
// it. A second SendSync while one is pending fails with
// domain.ErrOrderingViolation without writing.
func (s *Session) SendSync(ctx context.Context, v *domain.Value) (*domain.Value, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !s.syncInFlight.CompareAndSwap(false, true) {
		return nil, domain.ErrOrderingViolation.WithDetails("a sync request is already awaiting its response")
	}
	defer s.syncInFlight.Store(false)

	start := time.Now()
	if err := s.Send(ctx, wire.Sync, v); err != nil {
		return nil, err
	}
	msg, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Type != wire.Response {
		return nil, s.fail(domain.ErrUnexpectedMessage.Detailf("got %s while awaiting response", msg.Type))
	}
	s.observer.SyncCompleted(time.Since(start))
	return msg.Value, nil
}

// Query sends a sync request built from a function name and arguments. With
// no arguments fn is sent as q text; otherwise the request is the list
// (`fn; args...).
func (s *Session) Query(ctx context.Context, fn string, args ...*domain.Value) (*domain.Value, error) {
	return s.SendSync(ctx, Request(fn, args...))
}

// Request builds the value Query sends.
func Request(fn string, args ...*domain.Value) *domain.Value {
	if len(args) == 0 {
		return domain.NewString(fn, domain.AttrNone)
	}
	xs := make([]*domain.Value, 0, len(args)+1)
	xs = append(xs, domain.NewSymbol(fn))
	xs = append(xs, args...)
	return domain.NewCompoundList(xs...)
}

// Receive reads the next inbound message of any type.
func (s *Session) Receive(ctx context.Context) (*wire.Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.read(ctx)
}

func (s *Session) read(ctx context.Context) (*wire.Message, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	release := s.conn.BindRead(ctx)
	msg, err := s.codec.ReadMessage(s.conn)
	release()
	if err != nil {
		return nil, s.fail(s.conn.Err(ctx, err))
	}
	s.observer.Message(Inbound, msg.Type, msg.Size, msg.Compressed)
	return msg, nil
}

// fail closes the session after a fatal error and returns err.
func (s *Session) fail(err error) error {
	if domain.IsKind(err, domain.KindConnection) || domain.IsKind(err, domain.KindProtocol) {
		s.logger.Debug("session failed", "error", err)
		s.close()
	}
	return err
}

// Shutdown closes the session. It is safe to call more than once and from
// any goroutine; blocked operations return connection errors.
func (s *Session) Shutdown() error {
	s.close()
	return s.closeErr
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		prev := State(s.state.Swap(int32(StateClosing)))
		s.closeErr = s.conn.Close()
		s.state.Store(int32(StateClosed))
		if prev == StateOpen {
			s.observer.SessionClosed(s.info.Kind)
			s.logger.Info("session closed")
		}
	})
}
