package validation

import (
	"strings"

	"github.com/chittoor-drda/chds-app/chds/errors"
)

const healthIDDigits = 14

// NormalizeHealthID validates a candidate health ID and returns its
// canonical dashed storage form XX-XXXX-XXXX-XXXX. All non-digit characters
// are stripped before validation; exactly 14 digits must remain.
//
// The dashed form is the persisted value, matching the historical data set.
// Comparisons elsewhere (uniqueness checks) are therefore string comparisons
// on the dashed form.
func NormalizeHealthID(candidate string) (string, error) {
	digits := stripNonDigits(candidate)
	if len(digits) != healthIDDigits {
		return "", &errors.InvalidHealthIDError{Value: candidate}
	}
	return FormatHealthID(digits), nil
}

// FormatHealthID renders 14 digits in the dash-grouped display form. The
// input is assumed to be digits only.
func FormatHealthID(digits string) string {
	return strings.Join([]string{digits[0:2], digits[2:6], digits[6:10], digits[10:14]}, "-")
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
