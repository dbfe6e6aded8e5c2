package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/infra/tlsroots"
)

// Kind selects the transport.
type Kind int

const (
	KindTCP Kind = iota
	KindTLS
	KindUDS
)

// String returns the kind name as used in configuration.
func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindTLS:
		return "tls"
	case KindUDS:
		return "uds"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind accepts tcp, tls, uds and unix.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp", "":
		return KindTCP, nil
	case "tls":
		return KindTLS, nil
	case "uds", "unix":
		return KindUDS, nil
	}
	return 0, fmt.Errorf("transport: unknown kind %q", s)
}

// DefaultUDSDir is used when QUDSPATH is unset.
const DefaultUDSDir = "/tmp"

// Config carries everything the transports need. It is resolved once, at
// startup, and shared read-only.
type Config struct {
	// TLS, when set, is used unchanged for both dialing and listening.
	TLS *tls.Config
	// Identity supplies the listener certificate when TLS is nil.
	Identity tlsroots.Source
	// RootCAFile restricts dialing trust to one CA file; empty uses system roots.
	RootCAFile string
	// ServerName overrides the name verified on dial; empty uses the host.
	ServerName         string
	InsecureSkipVerify bool
	// UDSDir is the abstract socket directory.
	UDSDir      string
	DialTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UDSDir:      DefaultUDSDir,
		DialTimeout: 10 * time.Second,
	}
}

// ConfigFromEnv applies QUDSPATH, KDBPLUS_TLS_KEY_FILE and
// KDBPLUS_TLS_KEY_FILE_SECRET over DefaultConfig.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if dir, ok := os.LookupEnv("QUDSPATH"); ok && dir != "" {
		cfg.UDSDir = dir
	}
	if path := os.Getenv("KDBPLUS_TLS_KEY_FILE"); path != "" {
		cfg.Identity = tlsroots.PKCS12File{Path: path, Password: os.Getenv("KDBPLUS_TLS_KEY_FILE_SECRET")}
	}
	return cfg
}

// UDSAddress returns the abstract socket name for port.
func UDSAddress(dir string, port int) string {
	if dir == "" {
		dir = DefaultUDSDir
	}
	return "@" + strings.TrimRight(dir, "/") + "/kx." + strconv.Itoa(port)
}

func (c *Config) clientTLS(host string) (*tls.Config, error) {
	if c.TLS != nil {
		return c.TLS, nil
	}
	pool, err := tlsroots.LoadPool(c.RootCAFile)
	if err != nil {
		return nil, err
	}
	name := c.ServerName
	if name == "" {
		name = host
	}
	return pool.ClientConfig(name, c.InsecureSkipVerify), nil
}

func (c *Config) serverTLS() (*tls.Config, error) {
	if c.TLS != nil {
		return c.TLS, nil
	}
	return tlsroots.ServerConfig(c.Identity)
}

// Dial connects to a peer. For KindUDS host is ignored.
func Dial(ctx context.Context, kind Kind, host string, port int, cfg *Config) (*Conn, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := &net.Dialer{Timeout: cfg.DialTimeout}

	switch kind {
	case KindTCP:
		nc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, domain.ErrConnectionFailed.Detailf("tcp %s:%d", host, port).WithCause(err)
		}
		return newConn(nc, kind, isLoopback(nc.RemoteAddr())), nil

	case KindTLS:
		tcfg, err := cfg.clientTLS(host)
		if err != nil {
			return nil, domain.ErrConnectionFailed.WithDetails("tls config").WithCause(err)
		}
		td := &tls.Dialer{NetDialer: d, Config: tcfg}
		nc, err := td.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, domain.ErrConnectionFailed.Detailf("tls %s:%d", host, port).WithCause(err)
		}
		// Encrypted links always count as remote.
		return newConn(nc, kind, false), nil

	case KindUDS:
		addr := UDSAddress(cfg.UDSDir, port)
		nc, err := d.DialContext(ctx, "unix", addr)
		if err != nil {
			return nil, domain.ErrConnectionFailed.Detailf("uds %s", addr).WithCause(err)
		}
		return newConn(nc, kind, true), nil
	}
	return nil, domain.ErrConnectionFailed.Detailf("unknown transport %s", kind)
}

// Listener yields one Conn per inbound peer.
type Listener struct {
	ln     net.Listener
	kind   Kind
	closed atomic.Bool
}

// Listen binds a listener. Port 0 picks a free TCP port; KindUDS needs an
// explicit port since it names the socket.
func Listen(ctx context.Context, kind Kind, host string, port int, cfg *Config) (*Listener, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var lc net.ListenConfig

	switch kind {
	case KindTCP, KindTLS:
		var tcfg *tls.Config
		if kind == KindTLS {
			var err error
			if tcfg, err = cfg.serverTLS(); err != nil {
				return nil, domain.ErrConnectionFailed.WithDetails("tls identity").WithCause(err)
			}
		}
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, domain.ErrConnectionFailed.Detailf("listen %s:%d", host, port).WithCause(err)
		}
		if tcfg != nil {
			ln = tls.NewListener(ln, tcfg)
		}
		return &Listener{ln: ln, kind: kind}, nil

	case KindUDS:
		addr := UDSAddress(cfg.UDSDir, port)
		ln, err := lc.Listen(ctx, "unix", addr)
		if err != nil {
			return nil, domain.ErrConnectionFailed.Detailf("listen %s", addr).WithCause(err)
		}
		return &Listener{ln: ln, kind: kind}, nil
	}
	return nil, domain.ErrConnectionFailed.Detailf("unknown transport %s", kind)
}

// Accept waits for the next peer. After Close it returns
// domain.ErrConnectionClosed.
func (l *Listener) Accept() (*Conn, error) {
	nc, err := l.ln.Accept()
	if err != nil {
		if l.closed.Load() || errors.Is(err, net.ErrClosed) {
			return nil, domain.ErrConnectionClosed.WithDetails("listener closed").WithCause(err)
		}
		return nil, domain.ErrConnectionIO.WithDetails("accept").WithCause(err)
	}
	switch l.kind {
	case KindUDS:
		return newConn(nc, l.kind, true), nil
	case KindTLS:
		return newConn(nc, l.kind, false), nil
	}
	return newConn(nc, l.kind, isLoopback(nc.RemoteAddr())), nil
}

// Close stops accepting. It is safe to call more than once.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.ln.Close()
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Kind returns the transport kind.
func (l *Listener) Kind() Kind { return l.kind }

// Port returns the bound TCP port, or 0 for unix sockets.
func (l *Listener) Port() int {
	if a, ok := l.ln.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

func isLoopback(a net.Addr) bool {
	if ta, ok := a.(*net.TCPAddr); ok {
		return ta.IP.IsLoopback()
	}
	return false
}

// Conn is a connected byte stream. Reads and writes may run concurrently
// with each other, but not with themselves.
type Conn struct {
	nc     net.Conn
	kind   Kind
	local  bool
	closed atomic.Bool
}

func newConn(nc net.Conn, kind Kind, local bool) *Conn {
	return &Conn{nc: nc, kind: kind, local: local}
}

// NewConn wraps an existing net.Conn, for pipes and tests.
func NewConn(nc net.Conn, kind Kind, local bool) *Conn {
	return newConn(nc, kind, local)
}

// Kind returns the transport kind.
func (c *Conn) Kind() Kind { return c.kind }

// IsLocal reports whether the peer is on this host.
func (c *Conn) IsLocal() bool { return c.local }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// LocalAddr returns the local address.
func (c *Conn) LocalAddr() net.Addr { return c.nc.LocalAddr() }

// Read implements io.Reader without error translation.
func (c *Conn) Read(p []byte) (int, error) { return c.nc.Read(p) }

// ReadFull fills p or fails.
func (c *Conn) ReadFull(ctx context.Context, p []byte) error {
	release := c.BindRead(ctx)
	_, err := io.ReadFull(c.nc, p)
	release()
	if err != nil {
		return c.Err(ctx, err)
	}
	return nil
}

// WriteAll writes p in full or fails.
func (c *Conn) WriteAll(ctx context.Context, p []byte) error {
	release := c.BindWrite(ctx)
	_, err := c.nc.Write(p)
	release()
	if err != nil {
		return c.Err(ctx, err)
	}
	return nil
}

// aLongTimeAgo is a deadline that has already passed.
var aLongTimeAgo = time.Unix(1, 0)

// BindRead applies ctx to reads until the returned func is called: the
// context deadline becomes the read deadline, and cancellation unblocks a
// pending read.
func (c *Conn) BindRead(ctx context.Context) (release func()) {
	return bind(ctx, c.nc.SetReadDeadline)
}

// BindWrite is BindRead for writes.
func (c *Conn) BindWrite(ctx context.Context) (release func()) {
	return bind(ctx, c.nc.SetWriteDeadline)
}

func bind(ctx context.Context, set func(time.Time) error) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	dl, hasDeadline := ctx.Deadline()
	if hasDeadline {
		_ = set(dl)
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = set(aLongTimeAgo)
		close(fired)
	})
	return func() {
		if !stop() {
			<-fired
			hasDeadline = true
		}
		if hasDeadline {
			_ = set(time.Time{})
		}
	}
}

// Err translates an I/O error into a domain connection error. A done ctx
// takes precedence over the raw error. Connection errors are reclassified
// from their cause; other domain errors pass through.
func (c *Conn) Err(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.ErrConnectionTimeout.WithCause(ctx.Err())
	case ctx.Err() != nil:
		return domain.ErrConnectionIO.WithCause(ctx.Err())
	}
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Kind != domain.KindConnection || de.Cause == nil {
			return err
		}
		// Reclassify from the underlying I/O error.
		err = de.Cause
	}
	if c.closed.Load() || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return domain.ErrConnectionClosed.WithCause(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ErrConnectionTimeout.WithCause(err)
	}
	return domain.ErrConnectionIO.WithCause(err)
}

// Close releases the connection once; later calls return nil.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.nc.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool { return c.closed.Load() }
