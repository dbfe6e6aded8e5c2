package logger

import (
	"log/slog"
	"strings"
)

// Key patterns whose values are always redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"credential",
	"auth",
}

const redactedValue = "***REDACTED***"

// passwordMask replaces the password part of a connection handle.
const passwordMask = "***"

// redactSensitive masks an attribute when its key names a secret or its
// value is a connection handle carrying a password.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if masked, ok := maskHandle(strVal); ok {
			return slog.String(a.Key, masked)
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskHandle masks the password of a handle such as
// ":host:port:user:password" or "`:unix://5010:user:password". The password
// may itself contain colons.
func maskHandle(value string) (string, bool) {
	prefix := ""
	rest := value
	if strings.HasPrefix(rest, "`") {
		prefix, rest = "`", rest[1:]
	}
	if !strings.HasPrefix(rest, ":") {
		return value, false
	}
	prefix += ":"
	parts := strings.SplitN(rest[1:], ":", 4)
	if len(parts) < 4 || parts[3] == "" || parts[3] == passwordMask {
		return value, false
	}
	parts[3] = passwordMask
	return prefix + strings.Join(parts, ":"), true
}

// RedactString masks the password of a connection handle and returns any
// other value unchanged.
func RedactString(value string) string {
	masked, _ := maskHandle(value)
	return masked
}

// RedactCredentials masks a "user:password" handshake credential, keeping
// the user name.
func RedactCredentials(cred string) string {
	user, _, found := strings.Cut(cred, ":")
	if !found {
		return cred
	}
	return user + ":" + passwordMask
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value is a connection handle that carries
// a password.
func IsSensitiveValue(value string) bool {
	_, ok := maskHandle(value)
	return ok
}
