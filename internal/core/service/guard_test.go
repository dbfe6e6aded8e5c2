package service

import (
	"errors"
	"net"
	"testing"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

func tcpAddr(ip string) net.Addr {
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000}
}

func TestHandshakeGuard_RateLimit(t *testing.T) {
	g, err := NewHandshakeGuard(&GuardConfig{RatePerSecond: 2})
	if err != nil {
		t.Fatal(err)
	}
	addr := tcpAddr("10.0.0.1")
	for i := 0; i < 2; i++ {
		if err := g.Admit(addr); err != nil {
			t.Fatalf("Admit() #%d error = %v", i, err)
		}
	}
	err = g.Admit(addr)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("Admit() error = %v, want ErrRateLimited", err)
	}
	if !domain.IsKind(err, domain.KindAuth) {
		t.Errorf("kind = %v, want auth", domain.KindOf(err))
	}

	if err := g.Admit(tcpAddr("10.0.0.2")); err != nil {
		t.Errorf("other peer Admit() error = %v", err)
	}

	g.Forget("10.0.0.1")
	if err := g.Admit(addr); err != nil {
		t.Errorf("Admit() after Forget error = %v", err)
	}
}

func TestHandshakeGuard_Disabled(t *testing.T) {
	g, err := NewHandshakeGuard(&GuardConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if err := g.Admit(tcpAddr("10.0.0.1")); err != nil {
			t.Fatalf("Admit() error = %v", err)
		}
	}
	if g.limiters.Len() != 0 {
		t.Errorf("limiters tracked with rate limiting disabled: %d", g.limiters.Len())
	}
}

func TestHandshakeGuard_Allowlist(t *testing.T) {
	g, err := NewHandshakeGuard(&GuardConfig{Allowlist: []string{"127.0.0.1", "192.168.0.0/16", "::1"}})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		addr net.Addr
		want error
	}{
		{tcpAddr("127.0.0.1"), nil},
		{tcpAddr("192.168.4.20"), nil},
		{tcpAddr("::1"), nil},
		{tcpAddr("10.1.1.1"), domain.ErrPeerNotAllowed},
		{&net.UnixAddr{Name: "@/tmp/kx.5000", Net: "unix"}, nil},
	}
	for _, tt := range tests {
		err := g.Admit(tt.addr)
		if tt.want == nil && err != nil {
			t.Errorf("Admit(%v) error = %v", tt.addr, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("Admit(%v) error = %v, want %v", tt.addr, err, tt.want)
		}
	}
}

func TestNewHandshakeGuard_BadEntry(t *testing.T) {
	for _, entry := range []string{"not-an-ip", "10.0.0.0/99"} {
		if _, err := NewHandshakeGuard(&GuardConfig{Allowlist: []string{entry}}); err == nil {
			t.Errorf("NewHandshakeGuard(%q) expected error", entry)
		}
	}
	if _, err := NewHandshakeGuard(nil); err != nil {
		t.Errorf("NewHandshakeGuard(nil) error = %v", err)
	}
}
