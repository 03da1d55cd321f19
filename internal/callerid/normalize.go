package callerid

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"dbservice/internal/lookup"
)

// DefaultCountryCode is prefixed to bare national numbers.
const DefaultCountryCode = "92"

const (
	nationalLength = 10
	minNormalized  = 10
)

// Normalize reduces number to a country-code-prefixed digit string: strip
// non-digits, drop one trunk 0, then prefix countryCode onto a bare 10-digit
// national number.
//
//	3001234567   -> 923001234567
//	03001234567  -> 923001234567
//	923001234567 -> 923001234567
func Normalize(number, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	digits := lookup.Digits(number)
	digits = strings.TrimPrefix(digits, "0")
	if len(digits) == nationalLength && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return digits
}

// E164 renders a normalized number as +<digits> when libphonenumber accepts
// it as valid, and "" otherwise.
func E164(normalized string) string {
	num, err := phonenumbers.Parse("+"+normalized, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// Carrier returns the original mobile network for the number prefix, or ""
// when no carrier data exists.
func Carrier(normalized string) string {
	num, err := phonenumbers.Parse("+"+normalized, "")
	if err != nil {
		return ""
	}
	carrier, err := phonenumbers.GetCarrierForNumber(num, "en")
	if err != nil {
		return ""
	}
	return carrier
}
