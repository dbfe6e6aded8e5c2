package benchmark

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/core/service"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/transport"
)

func itoa(n int) string { return strconv.Itoa(n) }

func quietConfig() *session.Config {
	cfg := session.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

// echoPair returns a client session whose peer echoes every sync request.
func echoPair(b *testing.B) *session.Session {
	b.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b.Cleanup(cancel)

	auth := service.NewCredentialStore(service.Accounts{"bench": service.HashPassword("bench")})
	ln, err := session.Listen(ctx, transport.KindTCP, "127.0.0.1", 0, auth, quietConfig())
	if err != nil {
		b.Fatalf("Listen failed: %v", err)
	}
	b.Cleanup(func() { ln.Close() })

	go func() {
		s, err := ln.Accept(ctx)
		if err != nil {
			return
		}
		defer s.Shutdown()
		for {
			msg, err := s.Receive(ctx)
			if err != nil {
				return
			}
			if msg.Type == wire.Sync {
				if err := s.Respond(ctx, msg.Value); err != nil {
					return
				}
			}
		}
	}()

	client, err := session.Connect(ctx, transport.KindTCP, "127.0.0.1", ln.Port(), "bench:bench", quietConfig())
	if err != nil {
		b.Fatalf("Connect failed: %v", err)
	}
	b.Cleanup(func() { client.Shutdown() })
	return client
}

// BenchmarkSessionSyncRoundTrip benchmarks loopback sync queries.
func BenchmarkSessionSyncRoundTrip(b *testing.B) {
	runWithRowCounts(b, SmallRowCounts, func(b *testing.B, rows int) {
		client := echoPair(b)
		req := tradeTable(rows)
		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := client.SendSync(ctx, req); err != nil {
				b.Fatalf("SendSync failed: %v", err)
			}
		}
	})
}

// BenchmarkSessionAsync benchmarks async sends of a small message.
func BenchmarkSessionAsync(b *testing.B) {
	client := echoPair(b)
	msg := session.Request("upd", domain.NewSymbol("quote"), domain.NewFloat(101.25))
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := client.SendAsync(ctx, msg); err != nil {
			b.Fatalf("SendAsync failed: %v", err)
		}
	}
}

// BenchmarkCredentialVerify benchmarks the handshake password check for
// known and unknown users.
func BenchmarkCredentialVerify(b *testing.B) {
	accounts := make(service.Accounts, 1000)
	for i := 0; i < 1000; i++ {
		accounts["user"+itoa(i)] = service.HashPassword("pw" + itoa(i))
	}
	store := service.NewCredentialStore(accounts)

	b.Run("known", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			store.Verify("user500", "pw500")
		}
	})
	b.Run("unknown", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			store.Verify("nobody", "pw500")
		}
	})
}
