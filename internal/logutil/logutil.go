package logutil

import (
	"sort"
	"strings"
)

const redacted = "[REDACTED]"

// IsSensitiveLogField returns true when a key likely contains sensitive data.
func IsSensitiveLogField(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch {
	case strings.Contains(normalized, "password"):
		return true
	case strings.Contains(normalized, "passwd"):
		return true
	case normalized == "repassword":
		return true
	case strings.Contains(normalized, "hash"):
		return true
	case strings.Contains(normalized, "secret"):
		return true
	case strings.Contains(normalized, "token"):
		return true
	case strings.Contains(normalized, "cookie"):
		return true
	case normalized == "dsn":
		return true
	default:
		return false
	}
}

// RedactValue redacts a value when the key looks sensitive.
func RedactValue(key, value string) string {
	if IsSensitiveLogField(key) {
		if value == "" {
			return ""
		}
		return redacted
	}
	return value
}

// RedactFields returns a copy of fields with sensitive values redacted.
// Empty sensitive values stay empty so "field left blank" stays visible in logs.
func RedactFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = RedactValue(k, v)
	}
	return out
}

// FormatFieldsForLog returns stable, redacted key=value text for logs.
func FormatFieldsForLog(fields map[string]string) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quote(RedactValue(k, fields[k])))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// TruncateForLog returns a single-line truncated preview for unstructured values.
func TruncateForLog(value string, maxChars int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := strings.ReplaceAll(trimmed, "\n", "\\n")
	if maxChars <= 0 || len(normalized) <= maxChars {
		return normalized
	}
	return normalized[:maxChars] + "... [truncated]"
}
