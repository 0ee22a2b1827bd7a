package sms

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// Normalize turns an SOS recipient number into E.164. Numbers arrive from
// profile forms in local Philippine formats (09XXXXXXXXX and friends), so
// PH is the default region when no country code is present.
func Normalize(num string) (string, error) {
	if num == "" {
		return "", fmt.Errorf("missing number")
	}

	parsed, err := phonenumbers.Parse(num, "PH")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number")
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
