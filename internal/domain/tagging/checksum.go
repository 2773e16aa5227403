package tagging

import (
	"fmt"
)

// EAN13CheckDigit computes the EAN-13 check digit of a 12-digit base.
// Digits at even (0-based) positions weigh 1, odd positions weigh 3.
func EAN13CheckDigit(base string) (int, error) {
	if err := requireDigits(base, 12); err != nil {
		return 0, fmt.Errorf("ean13: %w", err)
	}
	return weightedCheckDigit(base, 1, 3), nil
}

// UPCACheckDigit computes the UPC-A check digit of an 11-digit base.
// Weights are the inverse of EAN-13: even positions 3, odd positions 1.
func UPCACheckDigit(base string) (int, error) {
	if err := requireDigits(base, 11); err != nil {
		return 0, fmt.Errorf("upc: %w", err)
	}
	return weightedCheckDigit(base, 3, 1), nil
}

// weightedCheckDigit returns (10 - sum mod 10) mod 10 of the weighted digit sum.
func weightedCheckDigit(base string, evenWeight, oddWeight int) int {
	sum := 0
	for i := 0; i < len(base); i++ {
		d := int(base[i] - '0')
		if i%2 == 0 {
			sum += d * evenWeight
		} else {
			sum += d * oddWeight
		}
	}
	return (10 - sum%10) % 10
}

func requireDigits(s string, n int) error {
	if len(s) != n {
		return fmt.Errorf("base must be %d digits, got %d", n, len(s))
	}
	if !isDigits(s) {
		return fmt.Errorf("base %q contains non-digit characters", s)
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
