package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chittoor-drda/chds-app/chds/constants"
	ers "github.com/chittoor-drda/chds-app/chds/errors"
	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/models/postgres"
	"github.com/chittoor-drda/chds-app/chds/placeholder"
	"github.com/chittoor-drda/chds-app/chds/validation"
)

// FieldUpdate carries one optional field from an edit request. Set
// distinguishes "not submitted" from "submitted as null" (which clears the
// stored value).
type FieldUpdate struct {
	Set   bool
	Value *string
}

// FieldUpdateRequest is one field-edit request for a single resident.
type FieldUpdateRequest struct {
	MobileNumber FieldUpdate
	HealthID     FieldUpdate
}

// Ensure service satisfies the interface
var _ Service = &service{}

// Service contains the operations external collaborators use to interact
// with the registry: field edits, lock administration, and completion
// reporting.
type Service interface {
	// UpdateResident applies a field-edit request and returns the number of
	// fields actually changed. Submitting values equal to the stored ones is
	// a no-op, not an error.
	UpdateResident(ctx context.Context, residentID string, req FieldUpdateRequest, updatedBy string) (int, error)

	// GetResident returns one resident by registry id.
	GetResident(ctx context.Context, residentID string) (*models.Resident, error)

	GetLockingSetting(ctx context.Context) (*models.LockingSetting, error)
	SetCutoffDate(ctx context.Context, cutoff *time.Time) error

	GetCompletionStats(ctx context.Context, mandal, secretariat string) (*CompletionReport, error)
	GetImportHistory(ctx context.Context, limit int) ([]models.ImportHistoryEntry, error)
}

func NewService(db *sql.DB) Service {
	return &service{
		db:         db,
		repository: postgres.NewRepository(db),
		txRepository: func(tx *sql.Tx) models.Repository {
			return postgres.NewRepositoryTx(tx)
		},
		logger:     log.StandardLogger(),
		maxRetries: 4,
	}
}

type service struct {
	db         *sql.DB
	repository models.Repository

	// txRepository binds a repository to an open transaction. Substituted in
	// tests.
	txRepository func(*sql.Tx) models.Repository

	logger     log.FieldLogger
	maxRetries uint64
}

func (s *service) UpdateResident(ctx context.Context, residentID string, req FieldUpdateRequest, updatedBy string) (int, error) {
	var fieldsChanged int

	// The read-then-write of the duplicate-limit check must not race with a
	// concurrent edit proposing the same number, so the whole request runs
	// in one serializable transaction, retried when Postgres aborts it.
	operation := func() error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return errors.Wrap(err, "failed to start transaction")
		}

		n, err := s.updateResidentTx(ctx, s.txRepository(tx), residentID, req, updatedBy)
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback transaction: %s, %s", err.Error(), rollbackErr.Error())
			}
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		fieldsChanged = n
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return 0, err
	}
	return fieldsChanged, nil
}

func (s *service) updateResidentTx(ctx context.Context, repo models.Repository, residentID string, req FieldUpdateRequest, updatedBy string) (int, error) {
	resident, err := repo.GetResidentByResidentID(ctx, residentID)
	if err != nil {
		if errors.Is(err, models.ErrResidentNotFound) {
			return 0, &ers.ResidentNotFoundError{ResidentID: residentID}
		}
		return 0, err
	}

	locked, err := s.evaluateLock(ctx, repo, resident)
	if err != nil {
		return 0, err
	}
	if locked {
		return 0, &ers.RecordLockedError{ResidentID: residentID}
	}

	fields := make(map[string]interface{})
	var changes []models.ChangeLogEntry

	if req.MobileNumber.Set {
		candidate := req.MobileNumber.Value
		if candidate != nil && !placeholder.IsPlaceholderMobile(candidate) {
			if err := validation.ValidateMobileNumber(*candidate); err != nil {
				return 0, err
			}
			if err := s.checkDuplicateLimit(ctx, repo, resident, *candidate); err != nil {
				return 0, err
			}
		}
		if !equalValue(resident.MobileNumber, candidate) {
			fields["mobile_number"] = candidate
			changes = append(changes, models.ChangeLogEntry{
				ResidentID: residentID,
				FieldName:  constants.FieldMobileNumber,
				OldValue:   resident.MobileNumber,
				NewValue:   candidate,
				UpdatedBy:  updatedBy,
			})
		}
	}

	if req.HealthID.Set {
		candidate := req.HealthID.Value
		if candidate != nil && !placeholder.IsPlaceholderHealthID(candidate) {
			normalized, err := validation.NormalizeHealthID(*candidate)
			if err != nil {
				return 0, err
			}
			candidate = &normalized
		}
		if !equalValue(resident.HealthID, candidate) {
			fields["health_id"] = candidate
			changes = append(changes, models.ChangeLogEntry{
				ResidentID: residentID,
				FieldName:  constants.FieldHealthID,
				OldValue:   resident.HealthID,
				NewValue:   candidate,
				UpdatedBy:  updatedBy,
			})
		}
	}

	if len(fields) == 0 {
		return 0, nil
	}

	fields["last_updated_at"] = time.Now()
	fields["last_updated_by"] = updatedBy
	if err := repo.UpdateResidentFields(ctx, residentID, fields); err != nil {
		return 0, err
	}
	for _, change := range changes {
		if err := repo.CreateChangeLogEntry(ctx, change); err != nil {
			return 0, err
		}
	}
	return len(changes), nil
}

// evaluateLock gathers the locking predicate's inputs and evaluates it. The
// duplicate and uniqueness counts are only queried when the cheap conditions
// hold, since most records short-circuit on those.
func (s *service) evaluateLock(ctx context.Context, repo models.Repository, resident *models.Resident) (bool, error) {
	setting, err := repo.GetLockingSetting(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read locking setting")
	}

	in := LockInputs{
		CutoffDate:    setting.CutoffDate,
		LastUpdatedAt: resident.LastUpdatedAt,
		MobileNumber:  resident.MobileNumber,
		HealthID:      resident.HealthID,
	}

	if setting.CutoffDate == nil || !resident.LastUpdatedAt.Before(*setting.CutoffDate) {
		return false, nil
	}
	if placeholder.IsPlaceholderMobile(resident.MobileNumber) || placeholder.IsPlaceholderHealthID(resident.HealthID) {
		return false, nil
	}

	secretariat := ""
	if resident.SecretariatName != nil {
		secretariat = *resident.SecretariatName
	}
	in.MobileDuplicateCount, err = repo.CountBySecretariatAndMobile(ctx, secretariat, *resident.MobileNumber, resident.ResidentID)
	if err != nil {
		return false, errors.Wrap(err, "failed to count mobile duplicates")
	}

	healthIDCount, err := repo.CountByHealthID(ctx, *resident.HealthID, resident.ResidentID)
	if err != nil {
		return false, errors.Wrap(err, "failed to count health id holders")
	}
	in.HealthIDGloballyUnique = healthIDCount == 0

	return Locked(in), nil
}

func (s *service) checkDuplicateLimit(ctx context.Context, repo models.Repository, resident *models.Resident, candidate string) error {
	secretariat := ""
	if resident.SecretariatName != nil {
		secretariat = *resident.SecretariatName
	}

	count, err := repo.CountBySecretariatAndMobile(ctx, secretariat, candidate, resident.ResidentID)
	if err != nil {
		return errors.Wrap(err, "failed to count mobile duplicates")
	}
	if count >= constants.MobileDuplicateLimit {
		return &ers.DuplicateLimitError{
			MobileNumber: candidate,
			Secretariat:  secretariat,
			Count:        count,
			Limit:        constants.MobileDuplicateLimit,
		}
	}
	return nil
}

func (s *service) GetResident(ctx context.Context, residentID string) (*models.Resident, error) {
	resident, err := s.repository.GetResidentByResidentID(ctx, residentID)
	if err != nil {
		if errors.Is(err, models.ErrResidentNotFound) {
			return nil, &ers.ResidentNotFoundError{ResidentID: residentID}
		}
		return nil, err
	}
	return resident, nil
}

func (s *service) GetLockingSetting(ctx context.Context) (*models.LockingSetting, error) {
	return s.repository.GetLockingSetting(ctx)
}

func (s *service) SetCutoffDate(ctx context.Context, cutoff *time.Time) error {
	if err := s.repository.SetCutoffDate(ctx, cutoff); err != nil {
		return errors.Wrap(err, "failed to update locking setting")
	}
	if cutoff == nil {
		s.logger.Info("Locking disabled; all residents are editable again.")
	} else {
		s.logger.Infof("Locking cutoff date set to %s.", cutoff.Format("2006-01-02"))
	}
	return nil
}

func (s *service) GetImportHistory(ctx context.Context, limit int) ([]models.ImportHistoryEntry, error) {
	return s.repository.GetImportHistory(ctx, limit)
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// isRetryable reports whether the transaction failed due to a concurrency
// conflict that a retry can resolve (serialization failure or deadlock).
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
