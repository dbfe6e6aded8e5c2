// Package metric exposes process and protocol metrics in Prometheus format.
//
// Registry implements session.Observer so that listeners and client sessions
// can report handshakes, messages and synchronous round trips without
// importing Prometheus themselves. Live gauges such as the number of open
// sessions are pulled at scrape time through Collector.
package metric
