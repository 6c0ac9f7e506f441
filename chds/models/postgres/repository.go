package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/chittoor-drda/chds-app/chds/models"
)

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type executable interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const (
	sqlFlavor = sqlbuilder.PostgreSQL
)

// Ensure Repository satisfies the interface
var _ models.Repository = &Repository{}

type Repository struct {
	queryable
	executable
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db, db}
}

func NewRepositoryTx(tx *sql.Tx) *Repository {
	return &Repository{tx, tx}
}

var residentColumns = []string{
	"id", "resident_id", "household_id", "uid", "name", "date_of_birth", "gender",
	"mobile_number", "health_id",
	"district", "mandal_name", "mandal_code", "secretariat_name", "secretariat_code",
	"rural_urban", "cluster_name", "qualification", "occupation",
	"caste", "sub_caste", "caste_category", "caste_category_detailed",
	"hof_member", "door_number", "address_ekyc", "address_hh",
	"citizen_mobile", "age", "facility_name",
	"last_updated_at", "last_updated_by",
}

func (r *Repository) GetResidentByResidentID(ctx context.Context, residentID string) (*models.Resident, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(residentColumns...).From("residents")
	sb.Where(sb.Equal("resident_id", residentID))

	query, args := sb.Build()
	row := r.QueryRowContext(ctx, query, args...)

	resident, err := scanResident(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrResidentNotFound
		}
		return nil, err
	}
	return resident, nil
}

func (r *Repository) CountBySecretariatAndMobile(ctx context.Context, secretariat, mobile, excludeResidentID string) (int, error) {
	sb := sqlFlavor.NewSelectBuilder().Select("COUNT(1)").From("residents")
	sb.Where(sb.Equal("secretariat_name", secretariat), sb.Equal("mobile_number", mobile))
	if excludeResidentID != "" {
		sb.Where(sb.NotEqual("resident_id", excludeResidentID))
	}

	query, args := sb.Build()
	var count int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func (r *Repository) CountByHealthID(ctx context.Context, healthID, excludeResidentID string) (int, error) {
	sb := sqlFlavor.NewSelectBuilder().Select("COUNT(1)").From("residents")
	sb.Where(sb.Equal("health_id", healthID))
	if excludeResidentID != "" {
		sb.Where(sb.NotEqual("resident_id", excludeResidentID))
	}

	query, args := sb.Build()
	var count int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func (r *Repository) UpdateResidentFields(ctx context.Context, residentID string, fields map[string]interface{}) error {
	ub := sqlFlavor.NewUpdateBuilder().Update("residents")
	for field, value := range fields {
		ub.SetMore(ub.Assign(field, value))
	}
	ub.Where(ub.Equal("resident_id", residentID))

	query, args := ub.Build()
	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrResidentNotFound
	}
	return nil
}

func (r *Repository) WalkResidents(ctx context.Context, mandal, secretariat string, fn func(*models.Resident) error) error {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(residentColumns...).From("residents")
	if mandal != "" {
		sb.Where(sb.Equal("mandal_name", mandal))
	}
	if secretariat != "" {
		sb.Where(sb.Equal("secretariat_name", secretariat))
	}

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		resident, err := scanResident(rows)
		if err != nil {
			return err
		}
		if err := fn(resident); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *Repository) CreateChangeLogEntry(ctx context.Context, entry models.ChangeLogEntry) error {
	ib := sqlFlavor.NewInsertBuilder().InsertInto("change_log")
	ib.Cols("resident_id", "field_name", "old_value", "new_value", "updated_by").
		Values(entry.ResidentID, entry.FieldName, entry.OldValue, entry.NewValue, entry.UpdatedBy)

	query, args := ib.Build()
	_, err := r.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) CreateImportHistory(ctx context.Context, entry models.ImportHistoryEntry) (uint, error) {
	query := `
		INSERT INTO import_history
			(file_name, file_size_bytes, total_records, success_records, failed_records, duplicate_records, import_mode, status, duration_ms, imported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id uint
	err := r.QueryRowContext(ctx, query,
		entry.FileName,
		entry.FileSizeBytes,
		entry.TotalRecords,
		entry.SuccessRecords,
		entry.FailedRecords,
		entry.DuplicateRecords,
		entry.ImportMode,
		entry.Status,
		entry.DurationMillis,
		entry.ImportedBy).Scan(&id)
	return id, err
}

func (r *Repository) GetImportHistory(ctx context.Context, limit int) ([]models.ImportHistoryEntry, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("id", "file_name", "file_size_bytes", "total_records", "success_records",
		"failed_records", "duplicate_records", "import_mode", "status", "duration_ms", "imported_at", "imported_by")
	sb.From("import_history").OrderBy("imported_at").Desc().Limit(limit)

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ImportHistoryEntry
	for rows.Next() {
		var (
			e          models.ImportHistoryEntry
			importedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.FileName, &e.FileSizeBytes, &e.TotalRecords, &e.SuccessRecords,
			&e.FailedRecords, &e.DuplicateRecords, &e.ImportMode, &e.Status, &e.DurationMillis, &importedAt, &e.ImportedBy); err != nil {
			return nil, err
		}
		e.ImportedAt = importedAt.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) GetLockingSetting(ctx context.Context) (*models.LockingSetting, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("cutoff_date", "updated_at").From("locking_settings")
	sb.Where(sb.Equal("id", 1))

	query, args := sb.Build()
	var (
		cutoff    sql.NullTime
		updatedAt sql.NullTime
	)
	if err := r.QueryRowContext(ctx, query, args...).Scan(&cutoff, &updatedAt); err != nil {
		return nil, err
	}

	setting := &models.LockingSetting{UpdatedAt: updatedAt.Time}
	if cutoff.Valid {
		setting.CutoffDate = &cutoff.Time
	}
	return setting, nil
}

func (r *Repository) SetCutoffDate(ctx context.Context, cutoff *time.Time) error {
	ub := sqlFlavor.NewUpdateBuilder().Update("locking_settings")
	ub.Set(ub.Assign("cutoff_date", cutoff), ub.Assign("updated_at", time.Now()))
	ub.Where(ub.Equal("id", 1))

	query, args := ub.Build()
	_, err := r.ExecContext(ctx, query, args...)
	return err
}

// scannable lets scanResident work against both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanResident(row scannable) (*models.Resident, error) {
	var (
		res    models.Resident
		uid    sql.NullString
		dob    sql.NullTime
		gender sql.NullString

		mobileNumber, healthID                                       sql.NullString
		district, mandalName, mandalCode, secName, secCode           sql.NullString
		ruralUrban, clusterName, qualification, occupation           sql.NullString
		caste, subCaste, casteCategory, casteCategoryDetailed        sql.NullString
		hofMember, doorNumber, addressEKYC, addressHH, citizenMobile sql.NullString
		age, facilityName                                            sql.NullString

		lastUpdatedAt sql.NullTime
		lastUpdatedBy sql.NullString
	)

	err := row.Scan(&res.ID, &res.ResidentID, &res.HouseholdID, &uid, &res.Name, &dob, &gender,
		&mobileNumber, &healthID,
		&district, &mandalName, &mandalCode, &secName, &secCode,
		&ruralUrban, &clusterName, &qualification, &occupation,
		&caste, &subCaste, &casteCategory, &casteCategoryDetailed,
		&hofMember, &doorNumber, &addressEKYC, &addressHH,
		&citizenMobile, &age, &facilityName,
		&lastUpdatedAt, &lastUpdatedBy)
	if err != nil {
		return nil, err
	}

	res.UID = nullableString(uid)
	if dob.Valid {
		res.DateOfBirth = &dob.Time
	}
	res.Gender = models.Gender(gender.String)

	res.MobileNumber = nullableString(mobileNumber)
	res.HealthID = nullableString(healthID)
	res.District = nullableString(district)
	res.MandalName = nullableString(mandalName)
	res.MandalCode = nullableString(mandalCode)
	res.SecretariatName = nullableString(secName)
	res.SecretariatCode = nullableString(secCode)
	res.RuralUrban = nullableString(ruralUrban)
	res.ClusterName = nullableString(clusterName)
	res.Qualification = nullableString(qualification)
	res.Occupation = nullableString(occupation)
	res.Caste = nullableString(caste)
	res.SubCaste = nullableString(subCaste)
	res.CasteCategory = nullableString(casteCategory)
	res.CasteCategoryDetailed = nullableString(casteCategoryDetailed)
	res.HOFMember = nullableString(hofMember)
	res.DoorNumber = nullableString(doorNumber)
	res.AddressEKYC = nullableString(addressEKYC)
	res.AddressHH = nullableString(addressHH)
	res.CitizenMobile = nullableString(citizenMobile)
	res.Age = nullableString(age)
	res.FacilityName = nullableString(facilityName)

	res.LastUpdatedAt = lastUpdatedAt.Time
	res.LastUpdatedBy = nullableString(lastUpdatedBy)

	return &res, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
