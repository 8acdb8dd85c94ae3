package model

import (
	"math/big"
	"strings"
)

// decimalDigits is the scale used when re-serializing exact rationals.
// Assessment values are dollars; ten fractional digits is far beyond any
// persisted precision.
const decimalDigits = 10

// ParseDecimal parses a persisted decimal string into an exact rational.
// Returns false for empty or malformed input.
func ParseDecimal(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, false
	}
	return r, true
}

// FormatDecimal serializes a rational back to a decimal string with
// trailing zeros trimmed, so round numbers persist as "285000" not
// "285000.0000000000".
func FormatDecimal(r *big.Rat) string {
	s := r.FloatString(decimalDigits)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
