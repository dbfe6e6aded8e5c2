package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"syscall"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/transport"
)

// Capabilities announced during the handshake.
const (
	// CapabilityTCP is sent over TCP and TLS.
	CapabilityTCP byte = 3
	// CapabilityUDS is sent over unix sockets.
	CapabilityUDS byte = 6
)

// CapabilityFor returns the capability byte for a transport kind.
func CapabilityFor(kind transport.Kind) byte {
	if kind == transport.KindUDS {
		return CapabilityUDS
	}
	return CapabilityTCP
}

// Authenticator checks a username and plaintext password.
type Authenticator interface {
	Verify(user, password string) bool
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(user, password string) bool

// Verify calls f.
func (f AuthenticatorFunc) Verify(user, password string) bool { return f(user, password) }

// Connect dials a peer and performs the client handshake. credentials is
// "user:password"; either part may be empty.
func Connect(ctx context.Context, kind transport.Kind, host string, port int, credentials string, cfg *Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if strings.IndexByte(credentials, 0) >= 0 {
		return nil, domain.ErrCredentialFormat.WithDetails("credentials contain NUL")
	}

	conn, err := transport.Dial(ctx, kind, host, port, cfg.Transport)
	if err != nil {
		return nil, err
	}
	s := newSession(conn, cfg, false)

	hctx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()

	requested := CapabilityFor(kind)
	msg := make([]byte, 0, len(credentials)+2)
	msg = append(msg, credentials...)
	msg = append(msg, requested, 0)
	if err := conn.WriteAll(hctx, msg); err != nil {
		s.close()
		return nil, err
	}

	var reply [1]byte
	if err := conn.ReadFull(hctx, reply[:]); err != nil {
		s.close()
		cfg.Observer.Handshake(kind, HandshakeRejected)
		if errors.Is(err, domain.ErrConnectionClosed) || errors.Is(err, syscall.ECONNRESET) {
			// The peer closes without a reply when it rejects the credentials.
			return nil, domain.ErrAuthFailed.Detailf("rejected by %s:%d", host, port).WithCause(err)
		}
		return nil, err
	}
	cfg.Observer.Handshake(kind, HandshakeOK)

	user, _, _ := strings.Cut(credentials, ":")
	s.open(user, reply[0])
	return s, nil
}

// serverHandshake reads the client credential, verifies it and replies with
// the agreed capability. On rejection the connection is closed without a
// reply.
func serverHandshake(ctx context.Context, s *Session, auth Authenticator, maxLen int) error {
	buf := make([]byte, 0, 64)
	var b [1]byte
	for {
		if err := s.conn.ReadFull(ctx, b[:]); err != nil {
			if errors.Is(err, domain.ErrConnectionClosed) || errors.Is(err, syscall.ECONNRESET) {
				return domain.ErrHandshakeAbandoned.WithCause(err)
			}
			return err
		}
		if b[0] == 0 {
			break
		}
		if len(buf) >= maxLen {
			return domain.ErrCredentialFormat.Detailf("credential longer than %d bytes", maxLen)
		}
		buf = append(buf, b[0])
	}

	requested := byte(0)
	if n := len(buf); n > 0 && buf[n-1] < ' ' {
		requested = buf[n-1]
		buf = buf[:n-1]
	}
	user, password, _ := bytes.Cut(buf, []byte{':'})
	if auth == nil || !auth.Verify(string(user), string(password)) {
		return domain.ErrAuthFailed.Detailf("user %q", user)
	}

	agreed := min(CapabilityFor(s.info.Kind), requested)
	if err := s.conn.WriteAll(ctx, []byte{agreed}); err != nil {
		return err
	}
	s.open(string(user), agreed)
	return nil
}

// Accept performs the server handshake on an accepted connection. It is
// the building block of Listener and is exported for callers that manage
// their own transport listener.
func Accept(ctx context.Context, conn *transport.Conn, auth Authenticator, cfg *Config) (*Session, error) {
	cfg = cfg.withDefaults()
	s := newSession(conn, cfg, true)

	hctx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()

	if err := serverHandshake(hctx, s, auth, cfg.MaxCredentialLength); err != nil {
		s.close()
		result := HandshakeFailed
		if domain.IsKind(err, domain.KindAuth) {
			result = HandshakeRejected
		}
		cfg.Observer.Handshake(conn.Kind(), result)
		return nil, err
	}
	cfg.Observer.Handshake(conn.Kind(), HandshakeOK)
	return s, nil
}
