package service

import (
	"time"

	"github.com/chittoor-drda/chds-app/chds/constants"
	"github.com/chittoor-drda/chds-app/chds/placeholder"
	"github.com/chittoor-drda/chds-app/chds/validation"
)

// LockInputs is the full snapshot the locking predicate is evaluated over.
// Everything is passed explicitly; the engine reads no global state.
type LockInputs struct {
	// CutoffDate is the global setting. Nil disables locking entirely.
	CutoffDate *time.Time

	LastUpdatedAt time.Time

	MobileNumber         *string
	MobileDuplicateCount int

	HealthID               *string
	HealthIDGloballyUnique bool
}

// Locked decides whether a resident is frozen from further edits. A record
// locks only when the cutoff is set, the record predates it, and its mobile
// and health-ID data already satisfy the quality invariants; anything still
// incomplete or invalid stays editable so field staff can fix it.
func Locked(in LockInputs) bool {
	if in.CutoffDate == nil {
		return false
	}
	if !in.LastUpdatedAt.Before(*in.CutoffDate) {
		return false
	}

	if placeholder.IsPlaceholderMobile(in.MobileNumber) {
		return false
	}
	if validation.ValidateMobileNumber(*in.MobileNumber) != nil {
		return false
	}
	if in.MobileDuplicateCount > constants.LockDuplicateThreshold {
		return false
	}

	if placeholder.IsPlaceholderHealthID(in.HealthID) {
		return false
	}
	if _, err := validation.NormalizeHealthID(*in.HealthID); err != nil {
		return false
	}
	return in.HealthIDGloballyUnique
}
