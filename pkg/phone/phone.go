package phone

import (
	"fmt"
	"strings"
)

// identityDigits is the number of trailing digits that form a wallet/cart
// identity. Local prefixes ("0") and country codes collapse to the same key.
const identityDigits = 10

// Normalize reduces a raw phone number to its canonical identity: the last
// ten digits of the digit-only form. "+234 803 123 4567", "08031234567" and
// "8031234567" all normalize to "8031234567".
func Normalize(raw string) (string, error) {
	digits := digitsOnly(raw)
	if len(digits) < identityDigits {
		return "", fmt.Errorf("phone number %q has fewer than %d digits", raw, identityDigits)
	}
	return digits[len(digits)-identityDigits:], nil
}

// HandoffAddress converts a vendor contact handle into the international
// digit string a messaging target expects: non-digits stripped, a leading
// local-format zero replaced by the country code.
func HandoffAddress(raw, countryCode string) (string, error) {
	digits := digitsOnly(raw)
	if digits == "" {
		return "", fmt.Errorf("contact handle %q contains no digits", raw)
	}
	code := digitsOnly(countryCode)
	if strings.HasPrefix(digits, "0") {
		return code + strings.TrimPrefix(digits, "0"), nil
	}
	if code != "" && !strings.HasPrefix(digits, code) && len(digits) == identityDigits {
		return code + digits, nil
	}
	return digits, nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
