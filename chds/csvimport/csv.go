package csvimport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	f "path/filepath"
	"strings"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/dimchansky/utfbom"
	pgxv5 "github.com/jackc/pgx/v5"
	pgxv5Pool "github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/chittoor-drda/chds-app/chds/constants"
	"github.com/chittoor-drda/chds-app/chds/csvimport/metrics"
	ers "github.com/chittoor-drda/chds-app/chds/errors"
	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/utils"
)

// ImportRequest describes one bulk import run.
type ImportRequest struct {
	FilePath   string
	Mode       string
	DryRun     bool
	ImportedBy string
}

// ImportResult reports what one run did (or, for a dry run, would do).
type ImportResult struct {
	FileName string
	Mode     string
	DryRun   bool
	Status   string

	Duration time.Duration

	RowsRead          int
	RowsStaged        int
	DistinctResidents int
	Inserted          int
	Updated           int
	// Residents already present, in add mode.
	Duplicates int
	// Residents not present, in update mode.
	Skipped   int
	ErrorRows int

	MissingResidentID  int
	MissingHouseholdID int
	MissingName        int
	// Dry run only: distinct residents in the file that already exist.
	ExistingResidents int

	Completion models.CompletionStats
}

// CSVImporter loads registry export files into the residents table. Rows
// stream from the file through a scratch table in a single transaction, so a
// failed run leaves the registry untouched.
type CSVImporter struct {
	Logger        logrus.FieldLogger
	FileProcessor CSVFileProcessor
	PgxPool       *pgxv5Pool.Pool
	Repository    models.ImportHistoryRepository
}

// ImportCSV runs one import end to end: open the file, stage and apply it,
// record the attempt, and clean up the file. Dry runs stage and measure but
// roll back, and leave no history row.
func (importer CSVImporter) ImportCSV(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if !utils.ContainsString(constants.ImportModes, req.Mode) {
		return nil, fmt.Errorf("unknown import mode %q", req.Mode)
	}
	if importer.PgxPool == nil {
		return nil, fmt.Errorf("pgx pool is required for import operations")
	}

	t := metrics.GetTimer()
	defer t.Close()
	ctx = metrics.NewContext(ctx, t)
	ctx, c := metrics.NewParent(ctx, "ImportCSV")
	defer c()

	file := csvFile{filepath: req.FilePath}

	data, size, err := importer.FileProcessor.LoadCSV(req.FilePath)
	if err != nil {
		return nil, err
	}
	defer data.Close()
	file.size = size

	started := time.Now()
	result, err := importer.processCSV(ctx, req, data)
	if result != nil {
		result.Duration = time.Since(started)
	}

	if !req.DryRun && result != nil {
		entry := historyEntry(req, size, result)
		if _, histErr := importer.Repository.CreateImportHistory(ctx, entry); histErr != nil {
			importer.Logger.Errorf("Failed to record import history for %s: %s", entry.FileName, histErr.Error())
		}
	}
	if err != nil {
		// Counts are still worth reporting when staging got far enough to
		// collect them.
		return result, err
	}

	file.imported = !req.DryRun
	if cleanupErr := importer.FileProcessor.CleanUpCSV(file); cleanupErr != nil {
		importer.Logger.Error(cleanupErr)
	}

	importer.Logger.WithFields(logrus.Fields{
		"file":     result.FileName,
		"mode":     result.Mode,
		"dry_run":  result.DryRun,
		"inserted": result.Inserted,
		"updated":  result.Updated,
	}).Infof("Import of %s finished with status %s.", result.FileName, result.Status)
	return result, nil
}

// processCSV stages the file into a scratch table via CopyFrom and applies
// the mode statement. Everything runs in one transaction; dry runs roll it
// back after measuring.
func (importer CSVImporter) processCSV(ctx context.Context, req ImportRequest, data io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(utfbom.SkipOnly(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file %s is empty", req.FilePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	layout, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		FileName: f.Base(req.FilePath),
		Mode:     req.Mode,
		DryRun:   req.DryRun,
	}

	tx, err := importer.PgxPool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start pgx transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && rollbackErr != pgxv5.ErrTxClosed {
			importer.Logger.Errorf("Failed to rollback pgx transaction: %s", rollbackErr.Error())
		}
	}()

	// Bulk statements on a 2M+ row table can legitimately outlive the
	// server default.
	if _, err = tx.Exec(ctx, "SET LOCAL statement_timeout = 0"); err != nil {
		return nil, fmt.Errorf("failed to disable statement timeout: %w", err)
	}
	if _, err = tx.Exec(ctx, stagingTableSQL(layout)); err != nil {
		return nil, fmt.Errorf("failed to create staging table: %w", err)
	}

	source := newResidentCopySource(reader, layout, !req.DryRun)

	closeStage := metrics.NewChild(ctx, "stageCSV")
	staged, err := tx.CopyFrom(ctx, pgxv5.Identifier{"resident_staging"}, layout.stagingColumns(), source)
	closeStage()
	if err != nil {
		importer.recordFailure(source, result)
		return result, fmt.Errorf("failed to stage csv rows: %w", err)
	}
	if stagedInt, castErr := safecast.ToInt(staged); castErr == nil && stagedInt != source.stats.rowsStaged {
		importer.recordFailure(source, result)
		return result, fmt.Errorf("unexpected number of records staged (expected: %d, actual: %d)", source.stats.rowsStaged, staged)
	}

	copyStats(source, result)

	if err = tx.QueryRow(ctx, "SELECT COUNT(DISTINCT resident_id) FROM resident_staging").Scan(&result.DistinctResidents); err != nil {
		importer.recordFailure(source, result)
		return result, fmt.Errorf("failed to count staged residents: %w", err)
	}

	existing := 0
	err = tx.QueryRow(ctx,
		"SELECT COUNT(DISTINCT s.resident_id) FROM resident_staging s JOIN residents r ON r.resident_id = s.resident_id").Scan(&existing)
	if err != nil {
		importer.recordFailure(source, result)
		return result, fmt.Errorf("failed to count existing residents: %w", err)
	}

	if req.DryRun {
		result.ExistingResidents = existing
		result.Status = dryRunStatus(result)
		if result.Status == constants.ImportStatusFailed {
			return result, &ers.ImportValidationError{Summary: validationSummary(result)}
		}
		return result, nil
	}

	closeApply := metrics.NewChild(ctx, "applyImportMode")
	affected, err := importer.applyMode(ctx, tx, layout, req)
	closeApply()
	if err != nil {
		importer.recordFailure(source, result)
		return result, fmt.Errorf("failed to apply %s import: %w", req.Mode, err)
	}

	switch req.Mode {
	case constants.ImportModeAdd:
		result.Inserted = affected
		result.Duplicates = existing
	case constants.ImportModeUpdate:
		result.Updated = affected
		result.Skipped = result.DistinctResidents - affected
	case constants.ImportModeAddUpdate:
		result.Inserted = result.DistinctResidents - existing
		result.Updated = existing
	}

	if err = tx.Commit(ctx); err != nil {
		importer.recordFailure(source, result)
		return result, fmt.Errorf("failed to commit pgx transaction: %w", err)
	}
	committed = true

	if result.ErrorRows > 0 || result.Skipped > 0 {
		result.Status = constants.ImportStatusPartial
	} else {
		result.Status = constants.ImportStatusSuccess
	}
	return result, nil
}

// applyMode runs the mode statement against the staged rows. When a
// resident appears more than once in one file, the last row wins.
func (importer CSVImporter) applyMode(ctx context.Context, tx pgxv5.Tx, layout *columnLayout, req ImportRequest) (int, error) {
	cols := layout.stagingColumns()
	dedup := "SELECT DISTINCT ON (resident_id) " + strings.Join(cols, ", ") +
		" FROM resident_staging ORDER BY resident_id, seq DESC"

	var stmt string
	switch req.Mode {
	case constants.ImportModeAdd:
		stmt = fmt.Sprintf(
			"INSERT INTO residents (%s, last_updated_at, last_updated_by) SELECT %s, NOW(), $1 FROM (%s) s ON CONFLICT (resident_id) DO NOTHING",
			strings.Join(cols, ", "), strings.Join(cols, ", "), dedup)
	case constants.ImportModeUpdate:
		stmt = fmt.Sprintf(
			"UPDATE residents r SET %s, last_updated_at = NOW(), last_updated_by = $1 FROM (%s) s WHERE r.resident_id = s.resident_id",
			updateSetList(cols, "s"), dedup)
	case constants.ImportModeAddUpdate:
		stmt = fmt.Sprintf(
			"INSERT INTO residents (%s, last_updated_at, last_updated_by) SELECT %s, NOW(), $1 FROM (%s) s ON CONFLICT (resident_id) DO UPDATE SET %s, last_updated_at = NOW(), last_updated_by = EXCLUDED.last_updated_by",
			strings.Join(cols, ", "), strings.Join(cols, ", "), dedup, updateSetList(cols, "EXCLUDED"))
	}

	tag, err := tx.Exec(ctx, stmt, req.ImportedBy)
	if err != nil {
		return 0, err
	}
	affected, err := safecast.ToInt(tag.RowsAffected())
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// stagingTableSQL builds the scratch table for this file's column set. The
// seq column preserves file order so last-row-wins dedup is deterministic.
func stagingTableSQL(layout *columnLayout) string {
	var b strings.Builder
	b.WriteString("CREATE TEMP TABLE resident_staging (seq BIGSERIAL")
	for _, c := range layout.columns {
		b.WriteString(", ")
		b.WriteString(c.dbName)
		if c.kind == kindDate {
			b.WriteString(" TIMESTAMP")
		} else {
			b.WriteString(" TEXT")
		}
	}
	b.WriteString(") ON COMMIT DROP")
	return b.String()
}

// updateSetList renders "col = src.col" clauses for every staged column
// except the conflict key.
func updateSetList(cols []string, src string) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == "resident_id" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s.%s", col, src, col))
	}
	return strings.Join(parts, ", ")
}

func copyStats(source *residentCopySource, result *ImportResult) {
	result.RowsRead = source.stats.rowsRead
	result.RowsStaged = source.stats.rowsStaged
	result.ErrorRows = source.stats.errorRows
	result.MissingResidentID = source.stats.missingResidentID
	result.MissingHouseholdID = source.stats.missingHouseholdID
	result.MissingName = source.stats.missingName
	result.Completion = source.stats.completion
}

func (importer CSVImporter) recordFailure(source *residentCopySource, result *ImportResult) {
	copyStats(source, result)
	result.Status = constants.ImportStatusFailed
}

// dryRunStatus reports how a real run of this file would fare. Rows missing
// a required field fail validation outright; ragged rows alone only make the
// run partial.
func dryRunStatus(result *ImportResult) string {
	if result.MissingResidentID > 0 || result.MissingHouseholdID > 0 || result.MissingName > 0 {
		return constants.ImportStatusFailed
	}
	if result.ErrorRows > 0 {
		return constants.ImportStatusPartial
	}
	return constants.ImportStatusSuccess
}

func validationSummary(result *ImportResult) string {
	return fmt.Sprintf("%d rows missing residentId, %d missing hhId, %d missing name",
		result.MissingResidentID, result.MissingHouseholdID, result.MissingName)
}

func historyEntry(req ImportRequest, size int64, result *ImportResult) models.ImportHistoryEntry {
	return models.ImportHistoryEntry{
		FileName:         result.FileName,
		FileSizeBytes:    size,
		TotalRecords:     result.RowsRead,
		SuccessRecords:   result.Inserted + result.Updated,
		FailedRecords:    result.ErrorRows + result.Skipped,
		DuplicateRecords: result.Duplicates,
		ImportMode:       req.Mode,
		Status:           result.Status,
		DurationMillis:   result.Duration.Milliseconds(),
		ImportedAt:       time.Now(),
		ImportedBy:       req.ImportedBy,
	}
}
