package tagging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedSum(s string, even, odd int) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		w := odd
		if i%2 == 0 {
			w = even
		}
		sum += int(s[i]-'0') * w
	}
	return sum
}

func TestEAN13CheckDigit_KnownCodes(t *testing.T) {
	// 4006381333931 and 5901234123457 are published EAN-13 examples.
	d, err := EAN13CheckDigit("400638133393")
	require.NoError(t, err)
	assert.Equal(t, 1, d)

	d, err = EAN13CheckDigit("590123412345")
	require.NoError(t, err)
	assert.Equal(t, 7, d)
}

func TestUPCACheckDigit_KnownCodes(t *testing.T) {
	// 036000291452 is the canonical UPC-A example.
	d, err := UPCACheckDigit("03600029145")
	require.NoError(t, err)
	assert.Equal(t, 2, d)
}

func TestEAN13CheckDigit_Property(t *testing.T) {
	for i := int64(0); i < 2000; i++ {
		base := fmt.Sprintf("%012d", i*7919+i*i*104729)
		base = base[len(base)-12:]
		d, err := EAN13CheckDigit(base)
		require.NoError(t, err)
		// the check digit sits at index 12 (even) with weight 1
		assert.Zero(t, (weightedSum(base, 1, 3)+d)%10, "base %s", base)
	}
}

func TestUPCACheckDigit_Property(t *testing.T) {
	for i := int64(0); i < 2000; i++ {
		base := fmt.Sprintf("%011d", i*6151+i*i*3571)
		base = base[len(base)-11:]
		d, err := UPCACheckDigit(base)
		require.NoError(t, err)
		// the check digit sits at index 11 (odd) with weight 1
		assert.Zero(t, (weightedSum(base, 3, 1)+d)%10, "base %s", base)
	}
}

func TestCheckDigit_RejectsBadInput(t *testing.T) {
	_, err := EAN13CheckDigit("12345")
	assert.Error(t, err)
	_, err = EAN13CheckDigit("12345678901A")
	assert.Error(t, err)
	_, err = UPCACheckDigit("123456789012")
	assert.Error(t, err)
}
