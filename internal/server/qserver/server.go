package qserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/core/service"
	"github.com/yndnr/qipc-go/internal/infra/confloader"
	"github.com/yndnr/qipc-go/internal/infra/tlsroots"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/server/config"
	"github.com/yndnr/qipc-go/internal/server/httpserver"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/storage/journal"
	"github.com/yndnr/qipc-go/internal/telemetry/logger"
	"github.com/yndnr/qipc-go/internal/telemetry/metric"
	"github.com/yndnr/qipc-go/internal/transport"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("qserver: already started")

// Server accepts IPC sessions and serves them from a FunctionTable.
type Server struct {
	cfg      *config.ServerConfig
	logger   *slog.Logger
	funcs    *FunctionTable
	sessions *Registry
	metrics  *metric.Registry
	auth     session.Authenticator
	codec    *wire.Codec

	creds       *service.CredentialStore
	fileWatcher *confloader.Watcher
	tlsWatcher  *tlsroots.Watcher
	journal     *journal.Writer
	listeners   []*session.Listener
	httpServer  *httpserver.Server

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	running atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics uses reg instead of a private registry.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.metrics = reg
		}
	}
}

// WithAuthenticator replaces the account file check.
func WithAuthenticator(a session.Authenticator) Option {
	return func(s *Server) {
		s.auth = a
	}
}

// New creates a server. cfg is used as given; call config.Verify first.
func New(cfg *config.ServerConfig, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   slog.Default(),
		sessions: NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metric.NewRegistry()
	}
	s.funcs = NewFunctionTable(s.logger)
	s.codec = wire.NewCodec(wire.WithMaxMessageSize(cfg.Limits.MaxMessage))
	registerBuiltins(s.funcs, s.sessions)
	return s
}

// Functions returns the table sync requests are dispatched to.
func (s *Server) Functions() *FunctionTable { return s.funcs }

// Register binds name in the function table.
func (s *Server) Register(name string, fn Func) { s.funcs.Register(name, fn) }

// Sessions returns the live session registry.
func (s *Server) Sessions() *Registry { return s.sessions }

// Metrics returns the metric registry fed by the server's sessions.
func (s *Server) Metrics() *metric.Registry { return s.metrics }

// Ready reports whether the listeners are accepting.
func (s *Server) Ready() bool { return s.running.Load() }

// Start binds every enabled listener and returns once they accept. Sessions
// are served until Shutdown. On error everything already started is torn
// down.
func (s *Server) Start(ctx context.Context) (err error) {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	defer func() {
		if err != nil {
			s.teardown()
		}
	}()

	if err := s.startAuth(); err != nil {
		return err
	}
	guard, err := service.NewHandshakeGuard(&service.GuardConfig{
		RatePerSecond: s.cfg.Security.RateLimit,
		Allowlist:     s.cfg.Security.Allowlist,
	})
	if err != nil {
		return err
	}
	if err := s.startJournal(); err != nil {
		return err
	}
	tcfg, err := s.transportConfig()
	if err != nil {
		return err
	}
	scfg := &session.Config{
		Transport:           tcfg,
		MaxMessageSize:      s.cfg.Limits.MaxMessage,
		HandshakeTimeout:    s.cfg.Limits.HandshakeTimeout,
		MaxCredentialLength: s.cfg.Limits.MaxCredential,
		Logger:              s.logger,
		Observer:            s.metrics,
	}
	if err := s.startListeners(ctx, scfg, guard); err != nil {
		return err
	}
	if err := s.startMetrics(); err != nil {
		return err
	}

	s.running.Store(true)
	for _, l := range s.listeners {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.acceptLoop(l)
		}()
	}
	return nil
}

func (s *Server) startAuth() error {
	if s.auth != nil {
		return nil
	}
	path := s.cfg.Security.Accounts
	if path == "" {
		if !s.cfg.Security.AllowAnonymous {
			return fmt.Errorf("no account file configured and security.allowanonymous is off")
		}
		s.logger.Warn("anonymous access enabled, accepting any credentials")
		s.auth = session.AuthenticatorFunc(func(string, string) bool { return true })
		return nil
	}

	creds, err := service.LoadCredentialStore(path, s.logger)
	if err != nil {
		return err
	}
	s.creds = creds
	s.auth = creds
	s.logger.Info("accounts loaded", "path", path, "users", creds.Len())

	if s.cfg.Security.Watch {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(s.logger))
		if err != nil {
			return fmt.Errorf("watch accounts: %w", err)
		}
		if err := creds.Watch(w); err != nil {
			w.Stop()
			return fmt.Errorf("watch accounts: %w", err)
		}
		w.StartAsync()
		s.fileWatcher = w
	}
	return nil
}

func (s *Server) startJournal() error {
	jc := s.cfg.Journal
	if !jc.Enabled {
		return nil
	}
	if jc.Replay {
		stats, err := journal.Replay(jc.Path, s.replayEntry)
		switch {
		case err == nil:
			s.logger.Info("journal replayed", "entries", stats.Entries, "truncated", stats.Truncated)
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Info("no journal to replay", "path", jc.Path)
		default:
			return fmt.Errorf("replay journal: %w", err)
		}
	}

	wc := journal.DefaultConfig(jc.Path)
	wc.SyncInterval = jc.SyncInterval
	w, err := journal.NewWriter(wc)
	if err != nil {
		return err
	}
	if n := w.Recovered(); n > 0 {
		s.logger.Warn("journal tail truncated", "path", jc.Path, "bytes", n)
	}
	s.journal = w
	return nil
}

func (s *Server) replayEntry(e *journal.Entry) error {
	msg, err := e.Message(s.codec)
	if err != nil {
		return err
	}
	s.funcs.Dispatch(s.ctx, msg.Value)
	return nil
}

func (s *Server) transportConfig() (*transport.Config, error) {
	tcfg := transport.DefaultConfig()
	if s.cfg.Server.UDS.Dir != "" {
		tcfg.UDSDir = s.cfg.Server.UDS.Dir
	}

	tc := s.cfg.Server.TLS
	if !tc.Enabled {
		return tcfg, nil
	}
	var src tlsroots.Source
	if tc.Bundle != "" {
		src = tlsroots.PKCS12File{Path: tc.Bundle, Password: tc.Secret}
	} else {
		src = tlsroots.KeyPairFiles{CertFile: tc.Cert, KeyFile: tc.Key}
	}
	if !tc.Watch {
		tcfg.Identity = src
		return tcfg, nil
	}

	w, err := tlsroots.NewWatcher(src, tlsroots.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	w.StartAsync()
	s.tlsWatcher = w
	tcfg.TLS = w.ServerConfig()
	return tcfg, nil
}

func (s *Server) startListeners(ctx context.Context, scfg *session.Config, guard session.Guard) error {
	sc := s.cfg.Server
	tcpPort := 0

	if sc.TCP.Enabled {
		l, err := s.listen(ctx, transport.KindTCP, sc.TCP.Addr, scfg, guard)
		if err != nil {
			return err
		}
		tcpPort = l.Port()
	}
	if sc.TLS.Enabled {
		if _, err := s.listen(ctx, transport.KindTLS, sc.TLS.Addr, scfg, guard); err != nil {
			return err
		}
	}
	if sc.UDS.Enabled {
		port := sc.UDS.Port
		if port == 0 {
			port = tcpPort
		}
		l, err := session.Listen(ctx, transport.KindUDS, "", port, s.auth, scfg, session.WithGuard(guard))
		if err != nil {
			return err
		}
		s.listeners = append(s.listeners, l)
	}
	return nil
}

func (s *Server) listen(ctx context.Context, kind transport.Kind, addr string, scfg *session.Config, guard session.Guard) (*session.Listener, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%s address %q: %w", kind, addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%s address %q: %w", kind, addr, err)
	}
	l, err := session.Listen(ctx, kind, host, port, s.auth, scfg, session.WithGuard(guard))
	if err != nil {
		return nil, err
	}
	s.listeners = append(s.listeners, l)
	return l, nil
}

func (s *Server) startMetrics() error {
	mc := s.cfg.Metrics
	if !mc.Enabled {
		return nil
	}

	var js metric.JournalStat
	if s.journal != nil {
		js = s.journal
	}
	if err := s.metrics.Register(metric.NewCollector(s.sessions, js)); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	rc := httpserver.DefaultRouterConfig()
	rc.Metrics = s.metrics.Handler()
	rc.Sessions = s.sessions
	rc.Ready = s.Ready
	rc.Logger = s.logger
	allow, err := service.ParseAllowlist(s.cfg.Security.Allowlist)
	if err != nil {
		return err
	}
	rc.AllowList = allow
	rc.EnableAudit = false

	hs := httpserver.New(mc.Addr, httpserver.NewRouter(rc))
	if err := hs.Listen(); err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	s.httpServer = hs
	s.logger.Info("metrics listening", "addr", hs.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := hs.Serve(); err != nil {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
	return nil
}

// Listeners returns the bound IPC listeners in start order: TCP, TLS, UDS.
func (s *Server) Listeners() []*session.Listener { return s.listeners }

// Listener returns the bound listener of kind.
func (s *Server) Listener(kind transport.Kind) (*session.Listener, bool) {
	for _, l := range s.listeners {
		if l.Kind() == kind {
			return l, true
		}
	}
	return nil, false
}

// MetricsAddr returns the metrics listener address, or nil when disabled.
func (s *Server) MetricsAddr() net.Addr {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Addr()
}

func (s *Server) acceptLoop(l *session.Listener) {
	for {
		sess, err := l.Accept(s.ctx)
		if err != nil {
			if s.running.Load() && !errors.Is(err, domain.ErrConnectionClosed) && s.ctx.Err() == nil {
				s.logger.Error("accept loop stopped", "transport", l.Kind().String(), "error", err)
			}
			return
		}
		s.sessions.Add(sess)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveSession(sess)
		}()
	}
}

func (s *Server) serveSession(sess *session.Session) {
	info := sess.Info()
	defer func() {
		s.sessions.Remove(info.ID)
		sess.Shutdown()
	}()

	ctx := logger.WithSessionID(s.ctx, info.ID.String())
	ctx = logger.WithPeer(ctx, info.RemoteAddr)
	log := s.logger.With("session", info.ID.String(), "user", info.User)

	for {
		msg, err := sess.Receive(s.ctx)
		if err != nil {
			if domain.IsKind(err, domain.KindProtocol) {
				log.Warn("session dropped", "error", err)
			} else {
				log.Debug("session ended", "error", err)
			}
			return
		}

		switch msg.Type {
		case wire.Sync:
			reply := s.funcs.Dispatch(ctx, msg.Value)
			if err := sess.Respond(s.ctx, reply); err != nil {
				// Encoding failures leave the session open; the caller
				// still awaits a response.
				if sess.State() == session.StateOpen {
					log.Warn("reply not encodable", "error", err)
					if err := sess.Respond(s.ctx, domain.NewErrorValue(encodeErrorText(err))); err == nil {
						continue
					}
				}
				log.Debug("respond failed", "error", err)
				return
			}
		case wire.Async:
			s.appendJournal(log, msg)
			s.funcs.Dispatch(ctx, msg.Value)
		default:
			log.Debug("ignoring unsolicited message", "type", msg.Type.String())
		}
	}
}

func encodeErrorText(err error) string {
	if errors.Is(err, domain.ErrMessageTooLarge) {
		return "limit"
	}
	return "type"
}

func (s *Server) appendJournal(log *slog.Logger, msg *wire.Message) {
	if s.journal == nil {
		return
	}
	frame, err := s.codec.Encode(wire.Async, msg.Value, false)
	if err == nil {
		err = s.journal.Append(journal.NewEntry(frame))
	}
	s.metrics.JournalAppended(err)
	if err != nil {
		log.Error("journal append failed", "error", err)
	}
}

// Shutdown stops accepting, closes every session and waits for their
// goroutines, then closes the journal. It returns ctx.Err() if the wait is
// cut short.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	s.running.Store(false)

	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	for _, l := range s.listeners {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if n := s.sessions.CloseAll(); n > 0 {
		s.logger.Info("closed sessions", "count", n)
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.teardown(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// teardown releases what Start acquired besides listeners and sessions.
func (s *Server) teardown() error {
	var firstErr error
	if s.cancel != nil {
		s.cancel()
	}
	for _, l := range s.listeners {
		l.Close()
	}
	if s.httpServer != nil {
		s.httpServer.Shutdown(context.Background())
	}
	if s.fileWatcher != nil {
		s.fileWatcher.Stop()
	}
	if s.tlsWatcher != nil {
		s.tlsWatcher.Stop()
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			firstErr = err
		}
	}
	return firstErr
}
