// Package strutil holds the small string helpers shared across
// services: username derivation, display formatting and log masking.
package strutil

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
)

// GenerateUsername derives a username from a display name: the
// lowercased first and last name tokens joined, plus a 3-digit random
// numeral. Collisions are rare but possible; callers retry on a
// unique-constraint conflict.
func GenerateUsername(name string) string {
	trimmed := strings.TrimSpace(strings.ToLower(name))
	if trimmed == "" {
		return fmt.Sprintf("user%d", time.Now().UnixMilli())
	}

	parts := strings.Fields(trimmed)
	base := parts[0]
	if len(parts) > 1 {
		base += parts[len(parts)-1]
	}

	return fmt.Sprintf("%s%d", base, 100+rand.IntN(900))
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Mask hides the middle of a string: "abc123" -> "a****3". Used when
// logging emails and tokens.
func Mask(s string, visibleStart, visibleEnd int) string {
	if len(s) <= visibleStart+visibleEnd {
		return s
	}
	return s[:visibleStart] +
		strings.Repeat("*", len(s)-visibleStart-visibleEnd) +
		s[len(s)-visibleEnd:]
}

// NormalizeWhitespace collapses runs of whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatBytes renders a byte count as a human-readable size.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
