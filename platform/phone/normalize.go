// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "NL"

// NormalizeE164 formats a phone number to E.164 using the default region for
// numbers without a country code. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	return NormalizeE164ForRegion(input, defaultRegion)
}

// NormalizeE164ForRegion is NormalizeE164 with an explicit fallback region.
func NormalizeE164ForRegion(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeOptional normalizes an optional number. Blank input becomes nil.
func NormalizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := NormalizeE164(*input)
	if normalized == "" {
		return nil
	}
	return &normalized
}
