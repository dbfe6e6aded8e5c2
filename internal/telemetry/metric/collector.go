package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionCounter reports live session counts keyed by transport name.
type SessionCounter interface {
	ActiveSessions() map[string]int
}

// JournalStat reports the current journal size in bytes.
type JournalStat interface {
	Size() int64
}

// Collector reads live gauges at scrape time. Either source may be nil.
type Collector struct {
	sessions SessionCounter
	journal  JournalStat

	activeDesc  *prometheus.Desc
	journalDesc *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over the given sources.
func NewCollector(sessions SessionCounter, journal JournalStat) *Collector {
	return &Collector{
		sessions: sessions,
		journal:  journal,
		activeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "active"),
			"Sessions currently open.",
			[]string{"transport"}, nil,
		),
		journalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "journal", "size_bytes"),
			"Bytes written to the current journal file.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeDesc
	ch <- c.journalDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.sessions != nil {
		for kind, n := range c.sessions.ActiveSessions() {
			ch <- prometheus.MustNewConstMetric(c.activeDesc, prometheus.GaugeValue, float64(n), kind)
		}
	}
	if c.journal != nil {
		ch <- prometheus.MustNewConstMetric(c.journalDesc, prometheus.GaugeValue, float64(c.journal.Size()))
	}
}
