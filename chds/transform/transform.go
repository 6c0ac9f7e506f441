// Package transform holds the pure per-field mapping rules applied to raw
// CSV values during import. Every function is side-effect free: the same raw
// value always produces the same canonical value, and malformed input maps
// to nil rather than an error.
package transform

import (
	"strings"
	"time"

	"github.com/chittoor-drda/chds-app/chds/models"
)

const dobLayout = "2006-01-02 15:04:05"

// DateOfBirth parses the spreadsheet export timestamp format. Empty or
// unparsable values are recorded as missing, never as an error.
func DateOfBirth(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dobLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

// Gender maps the case-insensitive source values to the canonical enum.
// Anything unrecognized maps to unknown.
func Gender(raw string) models.Gender {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "MALE", "M":
		return models.GenderMale
	case "FEMALE", "F":
		return models.GenderFemale
	case "OTHER", "O":
		return models.GenderOther
	}
	return models.GenderUnknown
}

// MobileNumber strips the trailing ".0" artifact left by spreadsheet numeric
// columns, then treats the empty string as missing.
func MobileNumber(raw string) *string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ".0")
	if raw == "" {
		return nil
	}
	return &raw
}

// String treats the empty string as missing and passes everything else
// through unmodified. Numeric-ish fields (age, administrative codes) use the
// same rule.
func String(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}
