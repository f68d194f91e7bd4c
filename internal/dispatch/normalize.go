package dispatch

import (
	"errors"
	"strings"
)

// DefaultCountryPrefix is the Indonesian country code used when a target
// is entered in trunk ("08...") or bare ("8...") form.
const DefaultCountryPrefix = "62"

var ErrNoDigits = errors.New("target contains no digits")

// NormalizeMSISDN converts a raw user-entered phone number into the
// channel's expected address form. The function is idempotent:
// normalizing an already-normalized number returns it unchanged.
//
//	"0897-3914-602" -> "628973914602"
//	"628973914602"  -> "628973914602"
//	"8973914602"    -> "628973914602"
func NormalizeMSISDN(raw, countryPrefix string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrNoDigits
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		return countryPrefix + digits[1:], nil
	case strings.HasPrefix(digits, countryPrefix):
		return digits, nil
	default:
		return countryPrefix + digits, nil
	}
}
