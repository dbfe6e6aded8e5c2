package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Security.Allowlist = append([]string(nil), cfg.Security.Allowlist...)

	if sanitized.Server.TLS.Secret != "" {
		sanitized.Server.TLS.Secret = maskSecret(sanitized.Server.TLS.Secret)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
