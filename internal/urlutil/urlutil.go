package urlutil

import "strings"

// BuildAbsolute builds an absolute URL from a base URL and a path. The base
// may carry a path prefix such as http://localhost/quiz.
func BuildAbsolute(base, path string) string {
	base = NormalizeBase(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// NormalizeBase trims whitespace and trailing slashes from a base URL.
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
