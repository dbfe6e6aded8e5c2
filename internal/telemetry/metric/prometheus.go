package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/internal/transport"
)

// Namespace prefixes every metric name.
const Namespace = "qipc"

// Registry holds the protocol metrics and the Prometheus registry serving them.
type Registry struct {
	registry *prometheus.Registry

	SessionsOpened     *prometheus.CounterVec
	SessionsClosed     *prometheus.CounterVec
	Handshakes         *prometheus.CounterVec
	Messages           *prometheus.CounterVec
	MessageBytes       *prometheus.CounterVec
	CompressedMessages *prometheus.CounterVec
	SyncDuration       prometheus.Histogram
	JournalEntries     prometheus.Counter
	JournalErrors      prometheus.Counter
}

var _ session.Observer = (*Registry)(nil)

// NewRegistry creates a Registry with Go runtime and process collectors
// already registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		SessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "opened_total",
			Help:      "Sessions that completed the handshake.",
		}, []string{"transport"}),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "closed_total",
			Help:      "Sessions closed after being opened.",
		}, []string{"transport"}),
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "handshakes_total",
			Help:      "Handshake attempts by result.",
		}, []string{"transport", "result"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "wire",
			Name:      "messages_total",
			Help:      "IPC messages by direction and type.",
		}, []string{"direction", "type"}),
		MessageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "wire",
			Name:      "bytes_total",
			Help:      "Frame bytes by direction, as sent or received.",
		}, []string{"direction"}),
		CompressedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "wire",
			Name:      "compressed_messages_total",
			Help:      "IPC messages that travelled compressed.",
		}, []string{"direction"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "sync_duration_seconds",
			Help:      "Round trip time of synchronous requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		JournalEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "journal",
			Name:      "entries_total",
			Help:      "Messages appended to the journal.",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "journal",
			Name:      "errors_total",
			Help:      "Journal appends that failed.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SessionsOpened,
		r.SessionsClosed,
		r.Handshakes,
		r.Messages,
		r.MessageBytes,
		r.CompressedMessages,
		r.SyncDuration,
		r.JournalEntries,
		r.JournalErrors,
	)
	return r
}

// Register adds an extra collector, such as one built by NewCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// SessionOpened implements session.Observer.
func (r *Registry) SessionOpened(kind transport.Kind) {
	r.SessionsOpened.WithLabelValues(kind.String()).Inc()
}

// SessionClosed implements session.Observer.
func (r *Registry) SessionClosed(kind transport.Kind) {
	r.SessionsClosed.WithLabelValues(kind.String()).Inc()
}

// Handshake implements session.Observer.
func (r *Registry) Handshake(kind transport.Kind, result string) {
	r.Handshakes.WithLabelValues(kind.String(), result).Inc()
}

// Message implements session.Observer.
func (r *Registry) Message(dir session.Direction, typ wire.MessageType, size int, compressed bool) {
	r.Messages.WithLabelValues(string(dir), typ.String()).Inc()
	r.MessageBytes.WithLabelValues(string(dir)).Add(float64(size))
	if compressed {
		r.CompressedMessages.WithLabelValues(string(dir)).Inc()
	}
}

// SyncCompleted implements session.Observer.
func (r *Registry) SyncCompleted(d time.Duration) {
	r.SyncDuration.Observe(d.Seconds())
}

// JournalAppended records the outcome of one journal append.
func (r *Registry) JournalAppended(err error) {
	if err != nil {
		r.JournalErrors.Inc()
		return
	}
	r.JournalEntries.Inc()
}

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
