package tagging

import (
	"fmt"
	"strconv"
	"strings"

	"herdbook/internal/core/tagging"
)

// code39Charset is the set of data characters Code 39 can encode.
const code39Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-. $/+%"

// BarcodeSpec is the input of FormatBarcode.
type BarcodeSpec struct {
	Prefix            string
	Sequence          int64
	Type              tagging.BarcodeType
	Length            int
	PaddingZeros      bool
	IncludeCheckDigit bool
}

// FormatBarcode assembles a barcode payload for the requested symbology.
//
//	code128: prefix + sequence, sequence zero-padded to Length-len(prefix) when PaddingZeros
//	code39:  same, prefix filtered to the Code 39 charset
//	ean13:   3 prefix digits + 9 sequence digits + check digit
//	upc:     1 prefix digit + 10 sequence digits + check digit
//
// When IncludeCheckDigit is false the EAN-13/UPC-A check position holds "0".
func FormatBarcode(spec BarcodeSpec) (string, error) {
	if spec.Sequence < 0 {
		return "", fmt.Errorf("negative sequence %d", spec.Sequence)
	}

	switch spec.Type {
	case tagging.BarcodeCode128:
		return padSequence(spec.Prefix, spec), nil
	case tagging.BarcodeCode39:
		return padSequence(filterCode39(spec.Prefix), spec), nil
	case tagging.BarcodeEAN13:
		base := fixedDigits(digitsOnly(spec.Prefix), 3, true) + fixedDigits(strconv.FormatInt(spec.Sequence, 10), 9, false)
		return appendCheckDigit(base, spec.IncludeCheckDigit, EAN13CheckDigit)
	case tagging.BarcodeUPC:
		base := fixedDigits(digitsOnly(spec.Prefix), 1, true) + fixedDigits(strconv.FormatInt(spec.Sequence, 10), 10, false)
		return appendCheckDigit(base, spec.IncludeCheckDigit, UPCACheckDigit)
	}
	return "", fmt.Errorf("unknown barcode type %q", spec.Type)
}

func padSequence(prefix string, spec BarcodeSpec) string {
	num := strconv.FormatInt(spec.Sequence, 10)
	if spec.PaddingZeros {
		width := spec.Length - len(prefix)
		if width > len(num) {
			num = strings.Repeat("0", width-len(num)) + num
		}
	}
	return prefix + num
}

func appendCheckDigit(base string, include bool, check func(string) (int, error)) (string, error) {
	if !include {
		return base + "0", nil
	}
	d, err := check(base)
	if err != nil {
		return "", err
	}
	return base + strconv.Itoa(d), nil
}

// fixedDigits zero-pads s on the left to n digits. Longer values keep their
// first n digits when head is true and their last n digits otherwise.
func fixedDigits(s string, n int, head bool) string {
	if len(s) < n {
		return strings.Repeat("0", n-len(s)) + s
	}
	if head {
		return s[:n]
	}
	return s[len(s)-n:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func filterCode39(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(code39Charset, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isCode39(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(code39Charset, r) {
			return false
		}
	}
	return true
}
