package logger

import (
	"log/slog"
	"strings"
)

// Keys whose string values are always fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"credential",
	"bearer",
	"linking_code",
}

const redactedValue = "***REDACTED***"

const bearerPrefix = "Bearer "

func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if masked, ok := maskCredential(strVal); ok {
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

// maskCredential recognises bearer headers and compact JWTs by shape.
func maskCredential(value string) (string, bool) {
	switch {
	case strings.HasPrefix(value, bearerPrefix):
		return bearerPrefix + maskValue(strings.TrimPrefix(value, bearerPrefix)), true
	case looksLikeJWT(value):
		return maskValue(value), true
	}
	return "", false
}

// looksLikeJWT reports whether value has the header.payload.signature shape
// with a base64url JSON header.
func looksLikeJWT(value string) bool {
	return strings.HasPrefix(value, "eyJ") && strings.Count(value, ".") == 2
}

// maskValue keeps the first and last three characters: "abc...xyz".
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// RedactString masks a value before it is embedded in a message.
func RedactString(value string) string {
	if masked, ok := maskCredential(value); ok {
		return masked
	}
	return value
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

// IsSensitiveValue reports whether a value looks like a credential.
func IsSensitiveValue(value string) bool {
	_, ok := maskCredential(value)
	return ok
}
