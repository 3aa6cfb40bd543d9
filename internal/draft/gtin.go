package draft

import (
	"errors"
	"strings"
)

var ErrInvalidGTIN = errors.New("invalid UPC/GTIN code")

// NormalizeGTIN validates a GTIN-8, UPC-A (GTIN-12), EAN-13 or GTIN-14 and returns it
// zero-padded to 14 digits.
func NormalizeGTIN(code string) (string, error) {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, " ", "")
	code = strings.ReplaceAll(code, "-", "")
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return "", ErrInvalidGTIN
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", ErrInvalidGTIN
		}
	}
	if checkDigit(code[:len(code)-1]) != code[len(code)-1] {
		return "", ErrInvalidGTIN
	}
	return strings.Repeat("0", 14-len(code)) + code, nil
}

// checkDigit computes the GS1 mod-10 check digit of body: weights 3 and 1 alternate
// starting from the rightmost digit.
func checkDigit(body string) byte {
	sum := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight = 4 - weight
	}
	return byte('0' + (10-sum%10)%10)
}
