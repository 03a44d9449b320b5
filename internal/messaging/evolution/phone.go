package evolution

import "strings"

// DefaultCountryCode is prefixed to national numbers.
const DefaultCountryCode = "55"

// NormalizePhone keeps the digits of phone and prefixes countryCode when the
// result has at most 11 digits (a national number with area code).
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if len(digits) <= 11 {
		return countryCode + digits
	}
	return digits
}
