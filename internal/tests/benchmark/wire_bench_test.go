package benchmark

import (
	"testing"

	"github.com/yndnr/qipc-go/internal/protocol/compress"
	"github.com/yndnr/qipc-go/internal/protocol/wire"
)

// BenchmarkWireEncode benchmarks framing a table without compression.
func BenchmarkWireEncode(b *testing.B) {
	runWithRowCounts(b, RowCounts, func(b *testing.B, rows int) {
		codec := wire.NewCodec()
		v := tradeTable(rows)

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			frame, err := codec.Encode(wire.Sync, v, false)
			if err != nil {
				b.Fatalf("Encode failed: %v", err)
			}
			b.SetBytes(int64(len(frame)))
		}
	})
}

// BenchmarkWireEncodeCompressed benchmarks framing with compression allowed.
func BenchmarkWireEncodeCompressed(b *testing.B) {
	runWithRowCounts(b, RowCounts, func(b *testing.B, rows int) {
		codec := wire.NewCodec()
		v := tradeTable(rows)

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := codec.Encode(wire.Response, v, true); err != nil {
				b.Fatalf("Encode failed: %v", err)
			}
		}
	})
}

// BenchmarkWireDecode benchmarks decoding raw and compressed frames.
func BenchmarkWireDecode(b *testing.B) {
	for _, compressed := range []bool{false, true} {
		name := "raw"
		if compressed {
			name = "compressed"
		}
		b.Run(name, func(b *testing.B) {
			runWithRowCounts(b, RowCounts, func(b *testing.B, rows int) {
				codec := wire.NewCodec()
				frame, err := codec.Encode(wire.Response, tradeTable(rows), compressed)
				if err != nil {
					b.Fatalf("Encode failed: %v", err)
				}

				b.SetBytes(int64(len(frame)))
				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := codec.Decode(frame); err != nil {
						b.Fatalf("Decode failed: %v", err)
					}
				}
			})
		})
	}
}

// BenchmarkCompress benchmarks the IPC compressor on a serialized table.
func BenchmarkCompress(b *testing.B) {
	runWithRowCounts(b, SmallRowCounts, func(b *testing.B, rows int) {
		payload, err := wire.NewCodec().Marshal(tradeTable(rows))
		if err != nil {
			b.Fatalf("Marshal failed: %v", err)
		}

		b.SetBytes(int64(len(payload)))
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			compress.Compress(payload)
		}
	})
}

// BenchmarkDecompress benchmarks the IPC decompressor.
func BenchmarkDecompress(b *testing.B) {
	runWithRowCounts(b, SmallRowCounts, func(b *testing.B, rows int) {
		payload, err := wire.NewCodec().Marshal(tradeTable(rows))
		if err != nil {
			b.Fatalf("Marshal failed: %v", err)
		}
		stream := compress.Compress(payload)

		b.SetBytes(int64(len(payload)))
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := compress.Decompress(stream, len(payload)); err != nil {
				b.Fatalf("Decompress failed: %v", err)
			}
		}
	})
}

// BenchmarkWireMemory reports heap use while holding decoded tables.
func BenchmarkWireMemory(b *testing.B) {
	codec := wire.NewCodec()
	frame, err := codec.Encode(wire.Response, tradeTable(100000), false)
	if err != nil {
		b.Fatalf("Encode failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg, err := codec.Decode(frame)
		if err != nil {
			b.Fatalf("Decode failed: %v", err)
		}
		_ = msg
	}
	b.StopTimer()
	reportMemory(b, "heap")
}
