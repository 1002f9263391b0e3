package tokenmeta

import (
	"math/big"
	"strings"
	"unicode"
)

var maxDecimals = big.NewInt(255)

// Sanitize drops control characters and surrounding whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, s))
}

// ClampDecimals maps a decimals value outside [0,255] to 0.
func ClampDecimals(v *big.Int) uint8 {
	if v == nil || v.Sign() < 0 || v.Cmp(maxDecimals) > 0 {
		return 0
	}
	return uint8(v.Uint64())
}
