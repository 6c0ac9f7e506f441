// Package placeholder decides whether a stored field value counts as
// present or as a historical missing-data sentinel. It is the single source
// of truth for completion statistics: import dry runs and reporting both use
// these predicates and must never diverge.
package placeholder

import (
	"math"
	"strings"

	"github.com/chittoor-drda/chds-app/chds/constants"
	"github.com/chittoor-drda/chds-app/chds/models"
)

// IsPlaceholderName reports whether a stored name is empty or an
// UNKNOWN_NAME_* sentinel.
func IsPlaceholderName(name string) bool {
	return name == "" || strings.HasPrefix(name, constants.UnknownNamePrefix)
}

// IsPlaceholderHouseholdID reports whether a stored household id is empty or
// an HH_UNKNOWN_* sentinel.
func IsPlaceholderHouseholdID(householdID string) bool {
	return householdID == "" || strings.HasPrefix(householdID, constants.UnknownHouseholdPrefix)
}

// IsPlaceholderMobile reports whether a stored mobile number stands in for
// missing data. The non-null sentinels come from historical imports.
func IsPlaceholderMobile(mobile *string) bool {
	if mobile == nil {
		return true
	}
	switch *mobile {
	case "", "N/A", "0", "0.0":
		return true
	}
	return false
}

// IsPlaceholderHealthID reports whether a stored health ID stands in for
// missing data.
func IsPlaceholderHealthID(healthID *string) bool {
	if healthID == nil {
		return true
	}
	switch *healthID {
	case "", "N/A":
		return true
	}
	return false
}

// Accumulate classifies one resident's tracked fields into stats.
func Accumulate(stats *models.CompletionStats, name, householdID string, mobile, healthID *string) {
	stats.Total++
	if !IsPlaceholderName(name) {
		stats.NameComplete++
	}
	if !IsPlaceholderHouseholdID(householdID) {
		stats.HouseholdIDComplete++
	}
	if !IsPlaceholderMobile(mobile) {
		stats.MobileComplete++
	}
	if !IsPlaceholderHealthID(healthID) {
		stats.HealthIDComplete++
	}
}

// Rate computes a percentage completion rate, rounded to the nearest whole
// number. By convention an empty population is 0% complete.
func Rate(complete, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(complete) / float64(total)))
}
