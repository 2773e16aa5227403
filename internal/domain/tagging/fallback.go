package tagging

import (
	"strconv"
	"strings"
	"time"

	"herdbook/internal/core/tagging"
)

// maxFallbackPrefix leaves room for "-" and a full 13-digit millis value.
const maxFallbackPrefix = MaxTagLength - 14

// timestampFallback returns prefix + "-" + the last 6 digits of the epoch millis.
// The result is not checked for uniqueness by the retry-exhaustion path; two
// calls in the same millisecond produce the same tag.
func timestampFallback(prefix string, now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fallbackPrefix(prefix) + "-" + ms
}

// fullTimestampFallback returns prefix + "-" + the full epoch millis.
func fullTimestampFallback(prefix string, now time.Time) string {
	return fallbackPrefix(prefix) + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// fallbackPrefix drops every character outside the tag charset so a fallback
// tag always validates. Nothing left means DefaultPrefix.
func fallbackPrefix(prefix string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, prefix)
	if len(clean) > maxFallbackPrefix {
		clean = clean[:maxFallbackPrefix]
	}
	if clean == "" {
		return tagging.DefaultPrefix
	}
	return clean
}
