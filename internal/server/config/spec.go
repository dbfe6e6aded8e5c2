package config

import "time"

// ServerConfig is the root configuration for qipc-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Security SecuritySection `koanf:"security"`
	Journal  JournalSection  `koanf:"journal"`
	Metrics  MetricsSection  `koanf:"metrics"`
	Limits   LimitsSection   `koanf:"limits"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures the IPC listeners.
type ServerSection struct {
	TCP TCPConfig `koanf:"tcp"`
	TLS TLSConfig `koanf:"tls"`
	UDS UDSConfig `koanf:"uds"`
}

// TCPConfig configures the plain TCP listener.
type TCPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// TLSConfig configures the TLS listener. The identity is either a PKCS#12
// bundle or a PEM certificate and key pair.
type TLSConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	Bundle  string `koanf:"bundle"`
	Secret  string `koanf:"secret"`
	Cert    string `koanf:"cert"`
	Key     string `koanf:"key"`
	// Watch reloads the identity when its files change.
	Watch bool `koanf:"watch"`
}

// UDSConfig configures the abstract unix socket listener.
type UDSConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	// Port names the socket; zero reuses the TCP port.
	Port int `koanf:"port"`
}

// SecuritySection configures authentication and admission.
type SecuritySection struct {
	// Accounts is the user:sha1 account file. It may be empty only when
	// AllowAnonymous is set.
	Accounts string `koanf:"accounts"`
	// AllowAnonymous accepts any credentials when no account file is set.
	AllowAnonymous bool `koanf:"allowanonymous"`
	// Watch reloads Accounts when the file changes.
	Watch bool `koanf:"watch"`
	// RateLimit bounds handshakes per second per remote IP; zero disables it.
	RateLimit int `koanf:"ratelimit"`
	// Allowlist restricts TCP and TLS peers to these IPs or CIDRs.
	Allowlist []string `koanf:"allowlist"`
}

// JournalSection configures the async message journal.
type JournalSection struct {
	Enabled      bool          `koanf:"enabled"`
	Path         string        `koanf:"path"`
	SyncInterval time.Duration `koanf:"syncinterval"`
	// Replay feeds the existing journal to the function table at start.
	Replay bool `koanf:"replay"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LimitsSection bounds per-session resources.
type LimitsSection struct {
	MaxMessage       int           `koanf:"maxmessage"`
	MaxCredential    int           `koanf:"maxcredential"`
	HandshakeTimeout time.Duration `koanf:"handshaketimeout"`
	// ShutdownTimeout bounds draining sessions and flushing the journal.
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
