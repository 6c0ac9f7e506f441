package errors

import (
	goerrors "errors"
	"fmt"
)

// Stable error kinds surfaced to API and CLI callers. Each maps to exactly
// one error type below.
const KindMissingRequiredColumn = "MISSING_REQUIRED_COLUMN"
const KindInvalidMobileFormat = "INVALID_MOBILE_FORMAT"
const KindInvalidHealthIDFormat = "INVALID_HEALTH_ID_FORMAT"
const KindMobileDuplicateLimitExceeded = "MOBILE_DUPLICATE_LIMIT_EXCEEDED"
const KindRecordLocked = "RECORD_LOCKED"
const KindResidentNotFound = "RESIDENT_NOT_FOUND"
const KindImportValidationFailed = "IMPORT_VALIDATION_FAILED"

// MissingColumnError indicates the CSV header lacks one or more mandatory
// columns. The import aborts before any row is read.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("csv file is missing required column(s) %v", e.Columns)
}

// InvalidMobileError indicates a candidate mobile number failed the
// structural or degenerate-pattern checks.
type InvalidMobileError struct {
	Value  string
	Reason string
}

func (e *InvalidMobileError) Error() string {
	return fmt.Sprintf("invalid mobile number %q: %s", e.Value, e.Reason)
}

// InvalidHealthIDError indicates a candidate health ID is not exactly 14
// digits once separators are stripped.
type InvalidHealthIDError struct {
	Value string
}

func (e *InvalidHealthIDError) Error() string {
	return fmt.Sprintf("invalid health id %q: must contain exactly 14 digits", e.Value)
}

// DuplicateLimitError indicates the candidate mobile number is already held
// by too many residents within the same secretariat. Count is the number of
// existing holders, surfaced for operator context.
type DuplicateLimitError struct {
	MobileNumber string
	Secretariat  string
	Count        int
	Limit        int
}

func (e *DuplicateLimitError) Error() string {
	return fmt.Sprintf("mobile number %s is already used by %d residents in secretariat %s (limit %d)",
		e.MobileNumber, e.Count, e.Secretariat, e.Limit)
}

// RecordLockedError indicates the resident is past the cutoff date with
// complete, valid contact data and may no longer be edited.
type RecordLockedError struct {
	ResidentID string
}

func (e *RecordLockedError) Error() string {
	return fmt.Sprintf("resident %s is locked and can no longer be edited", e.ResidentID)
}

// ResidentNotFoundError indicates no resident exists for the given id.
type ResidentNotFoundError struct {
	ResidentID string
}

func (e *ResidentNotFoundError) Error() string {
	return fmt.Sprintf("no resident found for id %s", e.ResidentID)
}

// ImportValidationError indicates a dry-run validation failure; Summary is a
// human-readable description of the missing required fields.
type ImportValidationError struct {
	Summary string
}

func (e *ImportValidationError) Error() string {
	return fmt.Sprintf("import validation failed: %s", e.Summary)
}

// Kind maps a domain error (possibly wrapped) to its stable kind string, or
// "" when the error is not one of the enumerated kinds.
func Kind(err error) string {
	var (
		missingCol  *MissingColumnError
		badMobile   *InvalidMobileError
		badHealthID *InvalidHealthIDError
		dupLimit    *DuplicateLimitError
		locked      *RecordLockedError
		notFound    *ResidentNotFoundError
		validation  *ImportValidationError
	)
	switch {
	case goerrors.As(err, &missingCol):
		return KindMissingRequiredColumn
	case goerrors.As(err, &badMobile):
		return KindInvalidMobileFormat
	case goerrors.As(err, &badHealthID):
		return KindInvalidHealthIDFormat
	case goerrors.As(err, &dupLimit):
		return KindMobileDuplicateLimitExceeded
	case goerrors.As(err, &locked):
		return KindRecordLocked
	case goerrors.As(err, &notFound):
		return KindResidentNotFound
	case goerrors.As(err, &validation):
		return KindImportValidationFailed
	}
	return ""
}
