package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderOther   Gender = "OTHER"
	GenderUnknown Gender = ""
)

// Resident is one person record in the registry. String pointers are nil
// when the source data carried no value; placeholder sentinels (see the
// placeholder package) are stored verbatim.
type Resident struct {
	ID          uint
	ResidentID  string
	HouseholdID string
	UID         *string
	Name        string
	DateOfBirth *time.Time
	Gender      Gender

	MobileNumber *string
	HealthID     *string

	District              *string
	MandalName            *string
	MandalCode            *string
	SecretariatName       *string
	SecretariatCode       *string
	RuralUrban            *string
	ClusterName           *string
	Qualification         *string
	Occupation            *string
	Caste                 *string
	SubCaste              *string
	CasteCategory         *string
	CasteCategoryDetailed *string
	HOFMember             *string
	DoorNumber            *string
	AddressEKYC           *string
	AddressHH             *string
	CitizenMobile         *string
	Age                   *string
	FacilityName          *string

	LastUpdatedAt time.Time
	LastUpdatedBy *string
}

// ChangeLogEntry is an immutable audit row recording one field change on one
// resident. Entries are only ever appended.
type ChangeLogEntry struct {
	ID         uint
	ResidentID string
	FieldName  string
	OldValue   *string
	NewValue   *string
	UpdatedBy  string
	UpdatedAt  time.Time
}

// ImportHistoryEntry summarizes one bulk import run. Written once at the end
// of the attempt, never mutated afterward.
type ImportHistoryEntry struct {
	ID               uint
	FileName         string
	FileSizeBytes    int64
	TotalRecords     int
	SuccessRecords   int
	FailedRecords    int
	DuplicateRecords int
	ImportMode       string
	Status           string
	DurationMillis   int64
	ImportedAt       time.Time
	ImportedBy       string
}

// LockingSetting is the process-wide cutoff configuration. A nil CutoffDate
// disables locking for every resident.
type LockingSetting struct {
	CutoffDate *time.Time
	UpdatedAt  time.Time
}

// AssignedSecretariat is the canonical shape for a staff member's
// secretariat assignment.
type AssignedSecretariat struct {
	MandalName string `json:"mandalName"`
	SecName    string `json:"secName"`
}

// ParseAssignedSecretariats normalizes the legacy assignment blob. Two
// historical shapes exist: a plain "Mandal -> Sec" string, and an object
// {mandalName, secName}. Both are accepted here; the ambiguity stops at this
// boundary.
func ParseAssignedSecretariats(raw json.RawMessage) ([]AssignedSecretariat, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrap(err, "assigned secretariats is not a JSON array")
	}

	result := make([]AssignedSecretariat, 0, len(entries))
	for _, entry := range entries {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			parts := strings.SplitN(s, "->", 2)
			if len(parts) != 2 {
				return nil, errors.Errorf("malformed assignment string %q", s)
			}
			result = append(result, AssignedSecretariat{
				MandalName: strings.TrimSpace(parts[0]),
				SecName:    strings.TrimSpace(parts[1]),
			})
			continue
		}

		var obj AssignedSecretariat
		if err := json.Unmarshal(entry, &obj); err != nil {
			return nil, errors.Wrap(err, "malformed assignment entry")
		}
		result = append(result, obj)
	}
	return result, nil
}

// MaskUID hides all but the last four characters of a national identity
// number for display.
func MaskUID(uid string) string {
	if len(uid) <= 4 {
		return uid
	}
	return strings.Repeat("X", len(uid)-4) + uid[len(uid)-4:]
}

// CompletionStats holds per-field present/total counts for a resident
// population.
type CompletionStats struct {
	Total               int
	NameComplete        int
	HouseholdIDComplete int
	MobileComplete      int
	HealthIDComplete    int
}
