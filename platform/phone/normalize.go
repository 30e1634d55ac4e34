// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion      = "IN"
	defaultCountryCode = "91"
)

// Normalize formats a raw registration phone string to an E.164-like form
// using the default country code.
func Normalize(input string) string {
	return NormalizeWithCountryCode(input, defaultCountryCode)
}

// NormalizeWithCountryCode formats a raw phone string to an E.164-like form.
//
// A number that parses as valid is formatted with the phonenumbers library.
// Everything else falls through to the export convention: strip all
// non-digit characters, prefix the country code when exactly 10 digits
// remain, and return "+" plus the digits. Malformed input yields a
// malformed but usable output; downstream consumers (dialer links,
// display) must tolerate garbage phone strings.
func NormalizeWithCountryCode(input, countryCode string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	if number, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil {
		if phonenumbers.IsValidNumber(number) {
			return phonenumbers.Format(number, phonenumbers.E164)
		}
	}

	digits := stripNonDigits(trimmed)
	if digits == "" {
		return trimmed
	}
	if len(digits) == 10 {
		digits = countryCode + digits
	}
	return "+" + digits
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
