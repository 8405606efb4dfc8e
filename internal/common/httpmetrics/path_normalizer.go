package httpmetrics

import (
	"regexp"
	"strings"
)

var (
	uuidRegex  = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	tokenRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// NormalizePath collapses ids and other high-cardinality segments so the
// result is safe to use as a metric label.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	normalized := uuidRegex.ReplaceAllString(path, "{id}")

	parts := strings.Split(normalized, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if part == "{id}" || isNumeric(part) || tokenRegex.MatchString(part) {
			parts[i] = "{param}"
		}
	}

	result := strings.Join(parts, "/")
	if result == "" {
		return "/"
	}

	return result
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
