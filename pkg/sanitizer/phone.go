package sanitizer

import (
	"strings"

	"glec/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone returns the E.164 form of phone, or "" when no supported
// region yields a valid number.
func NormalizePhone(phone string) string {
	return NormalizePhoneIn(phone, locale.DefaultRegion)
}

// NormalizePhoneIn is NormalizePhone with region tried first for numbers
// written without a country code.
func NormalizePhoneIn(phone, region string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, r := range locale.Regions(region) {
		parsedNumber, err := phonenumbers.Parse(phone, r)
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
