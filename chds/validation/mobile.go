// Package validation implements the structural and pattern checks applied
// to resident contact fields on every create or edit.
package validation

import (
	"regexp"

	"github.com/chittoor-drda/chds-app/chds/errors"
)

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidateMobileNumber checks a candidate 10-digit India mobile number.
// Beyond the structural pattern, known data-entry artifacts are rejected:
// all-same-digit values, strict ascending/descending digit runs, and values
// built from one long digit run followed by another (e.g. 9999988888).
func ValidateMobileNumber(candidate string) error {
	if !mobilePattern.MatchString(candidate) {
		return &errors.InvalidMobileError{Value: candidate, Reason: "must be 10 digits starting with 6-9"}
	}

	if allSameDigit(candidate) {
		return &errors.InvalidMobileError{Value: candidate, Reason: "all digits are identical"}
	}
	if isSequentialRun(candidate, 1) || isSequentialRun(candidate, -1) {
		return &errors.InvalidMobileError{Value: candidate, Reason: "digits form a sequential run"}
	}
	if isRepetitivePair(candidate) {
		return &errors.InvalidMobileError{Value: candidate, Reason: "digits form a repetitive pattern"}
	}

	return nil
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// isSequentialRun reports whether every digit differs from its predecessor
// by exactly step across all positions.
func isSequentialRun(s string, step int) bool {
	for i := 1; i < len(s); i++ {
		if int(s[i])-int(s[i-1]) != step {
			return false
		}
	}
	return true
}

// isRepetitivePair reports whether the value is one digit repeated at least
// five times immediately followed by a second digit repeated at least four
// times, e.g. 9999988888 or 6666664444.
func isRepetitivePair(s string) bool {
	i := 1
	for i < len(s) && s[i] == s[0] {
		i++
	}
	if i < 5 || i == len(s) {
		return false
	}
	j := i + 1
	for j < len(s) && s[j] == s[i] {
		j++
	}
	return j-i >= 4
}
