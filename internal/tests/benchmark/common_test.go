package benchmark

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// RowCounts defines the table sizes used by codec benchmarks.
var RowCounts = []int{10, 1000, 100000}

// SmallRowCounts for quick benchmarks.
var SmallRowCounts = []int{10, 1000}

// tradeTable builds a trade-shaped table with rows rows.
func tradeTable(rows int) *domain.Value {
	syms := []string{"ibm", "msft", "aapl", "goog", "amzn"}
	sym := make([]string, rows)
	px := make([]float64, rows)
	size := make([]int64, rows)
	ts := make([]int64, rows)
	base := domain.TimestampFromTime(time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC))
	for i := 0; i < rows; i++ {
		sym[i] = syms[i%len(syms)]
		px[i] = 100 + float64(i%500)/4
		size[i] = int64(100 * (1 + i%10))
		ts[i] = base + int64(i)*int64(time.Millisecond)
	}
	t, err := domain.NewTable([]string{"time", "sym", "price", "size"},
		domain.NewTimestampList(ts, domain.AttrNone),
		domain.NewSymbolList(sym, domain.AttrNone),
		domain.NewFloatList(px, domain.AttrNone),
		domain.NewLongList(size, domain.AttrNone),
	)
	if err != nil {
		panic(err)
	}
	return t
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithRowCounts runs a benchmark function with various table sizes.
func runWithRowCounts(b *testing.B, counts []int, benchFn func(b *testing.B, rows int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("rows_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
