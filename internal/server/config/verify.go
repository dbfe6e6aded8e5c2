package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if err := verifyJournal(&cfg.Journal); err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		if err := verifyAddr("metrics.addr", cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	if err := verifyLimits(&cfg.Limits); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if !cfg.TCP.Enabled && !cfg.TLS.Enabled && !cfg.UDS.Enabled {
		return errors.New("at least one of server.tcp, server.tls and server.uds must be enabled")
	}

	if cfg.TCP.Enabled {
		if err := verifyAddr("server.tcp.addr", cfg.TCP.Addr); err != nil {
			return err
		}
	}

	if cfg.TLS.Enabled {
		if err := verifyAddr("server.tls.addr", cfg.TLS.Addr); err != nil {
			return err
		}
		if cfg.TCP.Enabled && cfg.TLS.Addr == cfg.TCP.Addr {
			return fmt.Errorf("server.tls.addr %q conflicts with server.tcp.addr", cfg.TLS.Addr)
		}
		switch {
		case cfg.TLS.Bundle != "":
			if err := fileExists("server.tls.bundle", cfg.TLS.Bundle); err != nil {
				return err
			}
		case cfg.TLS.Cert != "" && cfg.TLS.Key != "":
			if err := fileExists("server.tls.cert", cfg.TLS.Cert); err != nil {
				return err
			}
			if err := fileExists("server.tls.key", cfg.TLS.Key); err != nil {
				return err
			}
		default:
			return errors.New("server.tls requires bundle, or cert and key")
		}
	}

	if cfg.UDS.Enabled {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("server.uds requires abstract unix sockets, unavailable on %s", runtime.GOOS)
		}
		if cfg.UDS.Port < 0 || cfg.UDS.Port > 65535 {
			return fmt.Errorf("server.uds.port %d out of range", cfg.UDS.Port)
		}
		if cfg.UDS.Port == 0 && !cfg.TCP.Enabled {
			return errors.New("server.uds.port is required when server.tcp is disabled")
		}
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.Accounts == "" && !cfg.AllowAnonymous {
		return fmt.Errorf("security.accounts is required unless security.allowanonymous is set")
	}
	if cfg.Accounts != "" {
		if err := fileExists("security.accounts", cfg.Accounts); err != nil {
			return err
		}
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("security.ratelimit must not be negative, got %d", cfg.RateLimit)
	}
	for _, entry := range cfg.Allowlist {
		entry = strings.TrimSpace(entry)
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("security.allowlist entry %q is neither an IP nor a CIDR", entry)
		}
	}
	return nil
}

func verifyJournal(cfg *JournalSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Path == "" {
		return errors.New("journal.path is required when the journal is enabled")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return fmt.Errorf("cannot create journal directory: %w", err)
	}
	if cfg.SyncInterval < 0 {
		return fmt.Errorf("journal.syncinterval must not be negative, got %s", cfg.SyncInterval)
	}
	return nil
}

func verifyLimits(cfg *LimitsSection) error {
	if cfg.MaxMessage < 9 {
		return fmt.Errorf("limits.maxmessage must be at least 9, got %d", cfg.MaxMessage)
	}
	if cfg.MaxCredential < 1 {
		return fmt.Errorf("limits.maxcredential must be positive, got %d", cfg.MaxCredential)
	}
	if cfg.HandshakeTimeout <= 0 {
		return fmt.Errorf("limits.handshaketimeout must be positive, got %s", cfg.HandshakeTimeout)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("limits.shutdowntimeout must be positive, got %s", cfg.ShutdownTimeout)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

func verifyAddr(key, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s %q: %w", key, addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%s %q: invalid port", key, addr)
	}
	return nil
}

func fileExists(key, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", key, path)
	}
	return nil
}
