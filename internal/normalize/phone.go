// Package normalize turns free-text contact fields into canonical values.
// Every function reports false when the input must be rejected.
package normalize

import (
	"regexp"
	"strings"
)

// DefaultCountryPrefix is the calling code of the home deployment (France).
const DefaultCountryPrefix = "+33"

var phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)

// Phone trims raw, prefixes "+" when missing and accepts the result only if
// it is "+" followed by 10 to 15 digits.
func Phone(raw string) (string, bool) {
	phone := strings.TrimSpace(raw)
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	if !phonePattern.MatchString(phone) {
		return "", false
	}
	return phone, true
}

// IsDomestic reports whether phone starts with the given calling-code prefix.
// An empty phone is never domestic.
func IsDomestic(phone, prefix string) bool {
	if phone == "" {
		return false
	}
	if prefix == "" {
		prefix = DefaultCountryPrefix
	}
	return strings.HasPrefix(phone, prefix)
}
