package storage

import (
	"fmt"
	"path"
	"strings"
)

const defaultOutputPrefix = "outputs"

// SourceKey is where a job's presigned upload lands.
func SourceKey(jobID string) string {
	return path.Join("uploads", SanitizeToken(jobID), "source")
}

// OutputKey names the object written for one pipeline step.
func OutputKey(prefix, jobID, stepID, ext string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = defaultOutputPrefix
	}
	return path.Join(prefix, SanitizeToken(jobID), fmt.Sprintf("%s.%s", SanitizeToken(stepID), ext))
}

// SanitizeToken keeps [A-Za-z0-9_-] and replaces everything else with '_'.
func SanitizeToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
