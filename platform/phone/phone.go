// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "GB"

// NormalizeUK strips whitespace from a raw number and converts the national
// trunk prefix ("07...") to the international form ("+447...") when no
// explicit international prefix is present.
func NormalizeUK(input string) string {
	cleaned := strings.Join(strings.Fields(input), "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	if cleaned == "" {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}
	if strings.HasPrefix(cleaned, "0") && !strings.HasPrefix(cleaned, "+") {
		cleaned = "+44" + cleaned[1:]
	}
	return cleaned
}

// IsUKMobile reports whether the input parses as a structurally valid number
// in the +44 plan that the numbering plan classifies as a mobile line.
// The +44 plan is shared with the Crown dependencies (Guernsey, Jersey, Isle
// of Man), so a region equality check against GB would reject ranges such as
// 07911 or 07700 that the metadata assigns to them.
func IsUKMobile(input string) bool {
	number, err := phonenumbers.Parse(NormalizeUK(input), defaultRegion)
	if err != nil {
		return false
	}
	if number.GetCountryCode() != 44 {
		return false
	}
	if !phonenumbers.IsValidNumber(number) {
		return false
	}
	switch phonenumbers.GetNumberType(number) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return true
	}
	return false
}

// FormatE164 formats a valid number to E.164. If parsing fails, it returns
// the normalized input unchanged.
func FormatE164(input string) string {
	normalized := NormalizeUK(input)
	number, err := phonenumbers.Parse(normalized, defaultRegion)
	if err != nil {
		return normalized
	}
	if !phonenumbers.IsValidNumber(number) {
		return normalized
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Digits returns only the decimal digits of the input.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsDummySequence detects keyboard-mash numbers: ascending or descending
// decade sequences ("0123456789", "9876543210") and runs of six or more
// identical digits. Such numbers can match the mobile shape while clearly
// not belonging to a reachable line.
func IsDummySequence(input string) bool {
	digits := Digits(input)
	if len(digits) < 6 {
		return false
	}

	run := 1
	ascending := 0
	descending := 0
	for i := 1; i < len(digits); i++ {
		prev, cur := digits[i-1], digits[i]
		if cur == prev {
			run++
			if run >= 6 {
				return true
			}
		} else {
			run = 1
		}
		if cur == prev+1 || (prev == '9' && cur == '0') {
			ascending++
		}
		if cur == prev-1 || (prev == '0' && cur == '9') {
			descending++
		}
	}

	steps := len(digits) - 1
	return ascending == steps || descending == steps
}
