package qserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/core/service"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/server/config"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/storage/journal"
	"github.com/yndnr/qipc-go/internal/transport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()
	dir := t.TempDir()

	accounts := filepath.Join(dir, "passwd")
	data := "alice:" + service.HashPassword("secret") + "\n"
	if err := os.WriteFile(accounts, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.TCP.Addr = "127.0.0.1:0"
	cfg.Security.Accounts = accounts
	cfg.Security.Watch = false
	cfg.Security.RateLimit = 0
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(dir, "async.journal")
	cfg.Journal.SyncInterval = 10 * time.Millisecond
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"
	return cfg
}

func startServer(t *testing.T, cfg *config.ServerConfig, register func(*Server)) *Server {
	t.Helper()
	s := New(cfg, WithLogger(quietLogger()))
	if register != nil {
		register(s)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func dial(t *testing.T, s *Server, credentials string) (*session.Session, error) {
	t.Helper()
	l, ok := s.Listener(transport.KindTCP)
	if !ok {
		t.Fatal("no tcp listener")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg := session.DefaultConfig()
	cfg.Logger = quietLogger()
	return session.Connect(ctx, transport.KindTCP, "127.0.0.1", l.Port(), credentials, cfg)
}

func double(_ context.Context, args []*domain.Value) (*domain.Value, error) {
	n, err := args[0].Long()
	if err != nil {
		return nil, errors.New("type")
	}
	return domain.NewLong(2 * n), nil
}

func TestServer_SyncQueries(t *testing.T) {
	s := startServer(t, testConfig(t), func(s *Server) {
		s.Register("f", double)
	})

	client, err := dial(t, s, "alice:secret")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Shutdown()
	ctx := context.Background()

	got, err := client.Query(ctx, "f", domain.NewLong(20))
	if err != nil {
		t.Fatalf("Query(f) error = %v", err)
	}
	if !domain.Equal(got, domain.NewLong(40)) {
		t.Errorf("f 20 = %v, want 40", got)
	}

	got, err = client.Query(ctx, "missing", domain.NewLong(1))
	if err != nil {
		t.Fatalf("Query(missing) error = %v", err)
	}
	if got.Type() != domain.TypeError {
		t.Fatalf("missing reply type = %v, want error", got.Type())
	}
	if msg, _ := got.ErrorText(); msg != "missing" {
		t.Errorf("error text = %q, want missing", msg)
	}
	if got.Err() == nil {
		t.Error("Err() on error value should be non-nil")
	}

	table, err := client.Query(ctx, ".qipc.sessions")
	if err != nil {
		t.Fatalf("Query(.qipc.sessions) error = %v", err)
	}
	columns, data, err := table.Table()
	if err != nil {
		t.Fatalf("reply is not a table: %v", err)
	}
	if len(columns) != 7 || columns[1] != "user" {
		t.Fatalf("columns = %v", columns)
	}
	users, err := data[1].SymbolList()
	if err != nil || len(users) != 1 || users[0] != "alice" {
		t.Errorf("users = %v (%v), want [alice]", users, err)
	}
	if s.Sessions().Len() != 1 {
		t.Errorf("registry Len() = %d, want 1", s.Sessions().Len())
	}
}

func TestServer_RejectsBadCredentials(t *testing.T) {
	s := startServer(t, testConfig(t), nil)

	tests := []struct {
		name        string
		credentials string
	}{
		{"wrong password", "alice:nope"},
		{"unknown user", "bob:secret"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := dial(t, s, tt.credentials)
			if err == nil {
				c.Shutdown()
				t.Fatal("Connect() succeeded")
			}
			if !domain.IsKind(err, domain.KindAuth) {
				t.Errorf("error kind = %v, want auth: %v", domain.KindOf(err), err)
			}
		})
	}
}

func TestServer_AsyncIsJournaled(t *testing.T) {
	cfg := testConfig(t)

	var mu sync.Mutex
	var stored []int64
	store := func(_ context.Context, args []*domain.Value) (*domain.Value, error) {
		n, err := args[0].Long()
		if err != nil {
			return nil, err
		}
		mu.Lock()
		stored = append(stored, n)
		mu.Unlock()
		return nil, nil
	}

	s := New(cfg, WithLogger(quietLogger()))
	s.Register("store", store)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client, err := dial(t, s, "alice:secret")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	ctx := context.Background()
	for _, n := range []int64{7, 8} {
		if err := client.SendAsync(ctx, session.Request("store", domain.NewLong(n))); err != nil {
			t.Fatalf("SendAsync() error = %v", err)
		}
	}
	// A sync round trip orders after the async messages on the same session.
	if _, err := client.Query(ctx, ".qipc.ping"); err != nil {
		t.Fatalf("Query(ping) error = %v", err)
	}
	client.Shutdown()

	mu.Lock()
	if len(stored) != 2 || stored[0] != 7 || stored[1] != 8 {
		t.Errorf("stored = %v, want [7 8]", stored)
	}
	mu.Unlock()

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(sctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	codec := wire.NewCodec()
	var replayed []*domain.Value
	stats, err := journal.Replay(cfg.Journal.Path, func(e *journal.Entry) error {
		msg, err := e.Message(codec)
		if err != nil {
			return err
		}
		if msg.Type != wire.Async {
			t.Errorf("journaled type = %v, want async", msg.Type)
		}
		replayed = append(replayed, msg.Value)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if stats.Entries != 2 || stats.Truncated {
		t.Fatalf("stats = %+v, want 2 clean entries", stats)
	}
	want := session.Request("store", domain.NewLong(7))
	if !domain.Equal(replayed[0], want) {
		t.Errorf("first entry = %v, want %v", replayed[0], want)
	}

	// A second server replays the journal into its table at start.
	stored = nil
	cfg.Journal.Replay = true
	s2 := New(cfg, WithLogger(quietLogger()))
	s2.Register("store", store)
	if err := s2.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer s2.Shutdown(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(stored) != 2 || stored[0] != 7 || stored[1] != 8 {
		t.Errorf("replayed into table = %v, want [7 8]", stored)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := startServer(t, testConfig(t), nil)

	client, err := dial(t, s, "alice:secret")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Shutdown()
	if _, err := client.Query(context.Background(), ".qipc.ping"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	addr := s.MetricsAddr()
	if addr == nil {
		t.Fatal("metrics listener not started")
	}

	get := func(path string) (int, string) {
		resp, err := http.Get("http://" + addr.String() + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	code, body := get("/metrics")
	if code != http.StatusOK {
		t.Fatalf("/metrics status = %d", code)
	}
	for _, want := range []string{
		`qipc_session_active{transport="tcp"} 1`,
		`qipc_session_handshakes_total{result="ok",transport="tcp"} 1`,
		`qipc_wire_messages_total{direction="in",type="sync"} 1`,
		`qipc_wire_messages_total{direction="out",type="response"} 1`,
		"qipc_journal_size_bytes",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	code, body = get("/sessions")
	if code != http.StatusOK || !strings.Contains(body, `"user":"alice"`) {
		t.Errorf("/sessions = %d %s", code, body)
	}
	if code, _ := get("/ready"); code != http.StatusOK {
		t.Errorf("/ready status = %d", code)
	}
}

func TestServer_ShutdownClosesSessions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	cfg.Journal.Enabled = false

	s := New(cfg, WithLogger(quietLogger()))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}

	client, err := dial(t, s, "alice:secret")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Shutdown()
	if _, err := client.Query(context.Background(), ".qipc.ping"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if s.Ready() {
		t.Error("Ready() after Shutdown = true")
	}
	if s.Sessions().Len() != 0 {
		t.Errorf("sessions after Shutdown = %d", s.Sessions().Len())
	}

	qctx, qcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer qcancel()
	if _, err := client.Query(qctx, ".qipc.ping"); !domain.IsKind(err, domain.KindConnection) {
		t.Errorf("Query after Shutdown error = %v, want connection error", err)
	}
}

func TestServer_RequiresAccountsUnlessAnonymous(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.Accounts = ""
	cfg.Metrics.Enabled = false
	cfg.Journal.Enabled = false

	closed := New(cfg, WithLogger(quietLogger()))
	if err := closed.Start(context.Background()); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		closed.Shutdown(ctx)
		t.Fatal("Start() without accounts should fail")
	}

	cfg.Security.AllowAnonymous = true
	s := startServer(t, cfg, nil)

	client, err := dial(t, s, "anyone:anything")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Shutdown()
	if client.Info().Capability != session.CapabilityTCP {
		t.Errorf("capability = %d, want %d", client.Info().Capability, session.CapabilityTCP)
	}
}
