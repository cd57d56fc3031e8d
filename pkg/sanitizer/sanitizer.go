// Package sanitizer masks sensitive data in user-supplied text before it is logged.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitizer masks secrets and personal data and produces short previews.
type Sanitizer struct {
	patterns   []*regexp.Regexp
	previewLen int
}

// Pattern definitions for data that must never reach the logs.
var defaultPatterns = []*regexp.Regexp{
	// Credentials embedded in URLs
	regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s/:@]+:[^\s/@]+@[^\s]+`),

	// Authentication tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.]+`),
	regexp.MustCompile(`(?i)(token|auth[_-]?token|api[_-]?key)\s*[:=]\s*['"]?([a-zA-Z0-9_\-\.]{16,})['"]?`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),

	// Passwords and one-time codes
	regexp.MustCompile(`(?i)(password|passwd|pwd|passcode|pin)\s*[:=]\s*['"]?([^\s'"]{4,})['"]?`),

	// Payment card numbers
	regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),

	// Email addresses (PII)
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

var whitespace = regexp.MustCompile(`\s+`)

// New creates a new Sanitizer with default patterns. Previews are cut at
// previewLen bytes, never inside a UTF-8 sequence.
func New(previewLen int) *Sanitizer {
	return &Sanitizer{
		patterns:   defaultPatterns,
		previewLen: previewLen,
	}
}

// Mask replaces sensitive matches in text.
func (s *Sanitizer) Mask(text string) string {
	result := text
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllStringFunc(result, maskValue)
	}
	return result
}

// Preview returns a masked, single-line, truncated form of text for logs.
func (s *Sanitizer) Preview(text string) string {
	p := whitespace.ReplaceAllString(strings.TrimSpace(s.Mask(text)), " ")
	if s.previewLen > 0 && len(p) > s.previewLen {
		cut := s.previewLen
		for cut > 0 && !utf8.RuneStart(p[cut]) {
			cut--
		}
		return p[:cut] + "..."
	}
	return p
}

// Stats describes what masking found.
type Stats struct {
	OriginalSize int
	Matches      int
}

// PreviewWithStats returns Preview(text) and the number of sensitive matches.
func (s *Sanitizer) PreviewWithStats(text string) (string, Stats) {
	stats := Stats{OriginalSize: len(text)}
	for _, pattern := range s.patterns {
		stats.Matches += len(pattern.FindAllStringIndex(text, -1))
	}
	return s.Preview(text), stats
}

// maskValue creates a masked version of a matched secret.
func maskValue(match string) string {
	// Bearer tokens keep only the scheme
	if strings.HasPrefix(strings.ToLower(match), "bearer") && strings.IndexFunc(match, unicode.IsSpace) != -1 {
		return "Bearer [REDACTED]"
	}

	if len(match) <= 8 {
		return "[REDACTED]"
	}

	// Keep the key name of key=value pairs
	if idx := strings.IndexAny(match, ":="); idx != -1 && !strings.Contains(match[:idx], "/") && !strings.Contains(match, "://") {
		return match[:idx+1] + "[REDACTED]"
	}

	// Keep the domain of email addresses
	if at := strings.LastIndex(match, "@"); at > 0 && !strings.Contains(match, "://") {
		return "***" + match[at:]
	}

	if len(match) > 10 {
		return match[:4] + "****" + match[len(match)-4:]
	}

	return "[REDACTED]"
}
