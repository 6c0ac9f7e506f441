// Repository interfaces for the resident registry. Callers depend on these
// interfaces rather than a concrete database so that services can be tested
// with doubles.
package models

import (
	"context"
	"errors"
	"time"
)

type Repository interface {
	ResidentRepository
	ChangeLogRepository
	ImportHistoryRepository
	LockingRepository
}

type ResidentRepository interface {
	GetResidentByResidentID(ctx context.Context, residentID string) (*Resident, error)

	// CountBySecretariatAndMobile counts residents within the given
	// secretariat holding the given mobile number, excluding the resident
	// identified by excludeResidentID (pass "" to exclude nobody).
	CountBySecretariatAndMobile(ctx context.Context, secretariat, mobile, excludeResidentID string) (int, error)

	// CountByHealthID counts residents holding the given health ID across
	// the whole registry, excluding excludeResidentID.
	CountByHealthID(ctx context.Context, healthID, excludeResidentID string) (int, error)

	// UpdateResidentFields updates the named columns for one resident.
	// Returns ErrResidentNotFound when no row matches.
	UpdateResidentFields(ctx context.Context, residentID string, fields map[string]interface{}) error

	// WalkResidents streams residents matching the optional mandal and
	// secretariat filters through fn, releasing each row as it goes. fn
	// returning an error stops the walk.
	WalkResidents(ctx context.Context, mandal, secretariat string, fn func(*Resident) error) error
}

type ChangeLogRepository interface {
	CreateChangeLogEntry(ctx context.Context, entry ChangeLogEntry) error
}

type ImportHistoryRepository interface {
	CreateImportHistory(ctx context.Context, entry ImportHistoryEntry) (uint, error)
	GetImportHistory(ctx context.Context, limit int) ([]ImportHistoryEntry, error)
}

type LockingRepository interface {
	GetLockingSetting(ctx context.Context) (*LockingSetting, error)

	// SetCutoffDate sets the global cutoff date; nil disables locking.
	SetCutoffDate(ctx context.Context, cutoff *time.Time) error
}

var ErrResidentNotFound = errors.New("resident was not updated, no match found")
