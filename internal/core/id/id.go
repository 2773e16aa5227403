// Package id generates identifiers. Animal ids are UUIDv7 so they sort by
// registration time; correlation ids are random.
package id

import (
	"github.com/google/uuid"
)

// maxCorrelationLen bounds caller-supplied trace and request ids.
const maxCorrelationLen = 64

// NewAnimal returns a time-ordered id for a newly registered animal.
func NewAnimal() string {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v.String()
}

// NewCorrelation returns a random id for request and trace headers.
func NewCorrelation() string {
	return uuid.NewString()
}

// Correlation returns supplied when it is safe to echo back in headers and
// logs (1-64 chars of letters, digits, '-' or '_'), else a fresh id.
func Correlation(supplied string) string {
	if supplied == "" || len(supplied) > maxCorrelationLen {
		return NewCorrelation()
	}
	for i := 0; i < len(supplied); i++ {
		c := supplied[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return NewCorrelation()
		}
	}
	return supplied
}
