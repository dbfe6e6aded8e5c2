package tlsroots

import (
	"bytes"
	"crypto/tls"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newPairSource(t *testing.T) KeyPairFiles {
	t.Helper()
	dir := t.TempDir()
	src := KeyPairFiles{CertFile: filepath.Join(dir, "server.crt"), KeyFile: filepath.Join(dir, "server.key")}
	writeKeyPair(t, src.CertFile, src.KeyFile)
	return src
}

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher(newPairSource(t))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	cert, err := w.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	if w.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", w.Reloads())
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	if _, err := NewWatcher(nil); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("NewWatcher(nil) error = %v", err)
	}

	dir := t.TempDir()
	bad := KeyPairFiles{CertFile: filepath.Join(dir, "c"), KeyFile: filepath.Join(dir, "k")}
	os.WriteFile(bad.CertFile, []byte("invalid"), 0o644)
	os.WriteFile(bad.KeyFile, []byte("invalid"), 0o600)
	if _, err := NewWatcher(bad); err == nil {
		t.Error("NewWatcher() expected error for invalid pair")
	}

	if _, err := NewWatcher(PKCS12File{Path: "/nonexistent/id.p12"}); err == nil {
		t.Error("NewWatcher() expected error for missing bundle")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher(newPairSource(t), WithLogger(slog.Default()), WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	src := newPairSource(t)
	w, err := NewWatcher(src, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	before, _ := w.GetCertificate(nil)

	w.StartAsync()
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	writeKeyPair(t, src.CertFile, src.KeyFile)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		after, _ := w.GetCertificate(nil)
		if w.Reloads() > 1 && !bytes.Equal(after.Certificate[0], before.Certificate[0]) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("identity not reloaded, Reloads() = %d", w.Reloads())
}

func TestWatcher_ServerConfig(t *testing.T) {
	w, err := NewWatcher(newPairSource(t))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	cfg := w.ServerConfig()
	cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{})
	if err != nil || cert == nil {
		t.Errorf("GetCertificate() = %v, %v", cert, err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %#x", cfg.MinVersion)
	}
}
