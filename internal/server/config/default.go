package config

import "time"

// Default configuration values.
const (
	DefaultTCPAddr     = "127.0.0.1:5010"
	DefaultTLSAddr     = "127.0.0.1:5011"
	DefaultUDSDir      = "/tmp"
	DefaultMetricsAddr = "127.0.0.1:9310"

	DefaultJournalPath         = "/var/lib/qipc-server/async.journal"
	DefaultJournalSyncInterval = 100 * time.Millisecond

	DefaultRateLimit        = 20
	DefaultMaxMessage       = 1 << 30
	DefaultMaxCredential    = 1024
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			TCP: TCPConfig{
				Enabled: true,
				Addr:    DefaultTCPAddr,
			},
			TLS: TLSConfig{
				Addr:  DefaultTLSAddr,
				Watch: true,
			},
			UDS: UDSConfig{
				Dir: DefaultUDSDir,
			},
		},
		Security: SecuritySection{
			Watch:     true,
			RateLimit: DefaultRateLimit,
		},
		Journal: JournalSection{
			Path:         DefaultJournalPath,
			SyncInterval: DefaultJournalSyncInterval,
		},
		Metrics: MetricsSection{
			Addr: DefaultMetricsAddr,
		},
		Limits: LimitsSection{
			MaxMessage:       DefaultMaxMessage,
			MaxCredential:    DefaultMaxCredential,
			HandshakeTimeout: DefaultHandshakeTimeout,
			ShutdownTimeout:  DefaultShutdownTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
