// Package money converts stored decimal amounts to minor currency units.
// Comparisons always happen on integers; parsing floats here would
// reintroduce the rounding mismatches the integer representation exists to
// avoid.
package money

import (
	"errors"
	"strings"
)

var ErrMalformedAmount = errors.New("malformed decimal amount")

// ToMinorUnits converts a decimal string such as "100.50" to minor units
// (10050). Fractions beyond two digits are rounded half-up. Negative
// amounts are rejected: an order can never owe less than nothing.
func ToMinorUnits(decimal string) (int64, error) {
	s := strings.TrimSpace(decimal)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, ErrMalformedAmount
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}

	var units int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, ErrMalformedAmount
		}
		units = units*10 + int64(r-'0')
		if units < 0 {
			return 0, ErrMalformedAmount
		}
	}
	units *= 100

	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, ErrMalformedAmount
		}
	}
	switch {
	case len(frac) == 0:
	case len(frac) == 1:
		units += int64(frac[0]-'0') * 10
	default:
		units += int64(frac[0]-'0')*10 + int64(frac[1]-'0')
		if len(frac) > 2 && frac[2] >= '5' {
			units++
		}
	}
	if units < 0 {
		return 0, ErrMalformedAmount
	}
	return units, nil
}
