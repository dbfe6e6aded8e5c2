package benchmark

import (
	"path/filepath"
	"testing"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/storage/journal"
)

func asyncFrame(b *testing.B) []byte {
	b.Helper()
	msg := session.Request("upd", domain.NewSymbol("trade"), tradeTable(10))
	frame, err := wire.NewCodec().Encode(wire.Async, msg, false)
	if err != nil {
		b.Fatalf("Encode failed: %v", err)
	}
	return frame
}

// BenchmarkJournalAppend benchmarks journal appends per sync mode.
func BenchmarkJournalAppend(b *testing.B) {
	for _, mode := range []journal.SyncMode{journal.SyncModeBatch, journal.SyncModeSync} {
		b.Run(string(mode), func(b *testing.B) {
			cfg := journal.DefaultConfig(filepath.Join(b.TempDir(), "bench.journal"))
			cfg.SyncMode = mode
			w, err := journal.NewWriter(cfg)
			if err != nil {
				b.Fatalf("Failed to create journal writer: %v", err)
			}
			defer w.Close()

			frame := asyncFrame(b)
			b.SetBytes(int64(len(frame)))
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := w.Append(journal.NewEntry(frame)); err != nil {
					b.Fatalf("Append failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkJournalReplay benchmarks replaying journals of various lengths.
func BenchmarkJournalReplay(b *testing.B) {
	for _, count := range []int{1000, 10000} {
		b.Run(itoa(count), func(b *testing.B) {
			path := filepath.Join(b.TempDir(), "bench.journal")
			w, err := journal.NewWriter(journal.DefaultConfig(path))
			if err != nil {
				b.Fatalf("Failed to create journal writer: %v", err)
			}
			frame := asyncFrame(b)
			for i := 0; i < count; i++ {
				if err := w.Append(journal.NewEntry(frame)); err != nil {
					b.Fatalf("Append failed: %v", err)
				}
			}
			if err := w.Close(); err != nil {
				b.Fatalf("Close failed: %v", err)
			}

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				stats, err := journal.Replay(path, func(*journal.Entry) error { return nil })
				if err != nil {
					b.Fatalf("Replay failed: %v", err)
				}
				if stats.Entries != count {
					b.Fatalf("Replay entries = %d, want %d", stats.Entries, count)
				}
			}
		})
	}
}
