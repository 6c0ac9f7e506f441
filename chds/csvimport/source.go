package csvimport

import (
	"encoding/csv"
	"io"

	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/placeholder"
	"github.com/chittoor-drda/chds-app/chds/transform"
)

// rowStats accumulates per-row counters while the file streams through the
// copy source. The completion counts use the placeholder package, the same
// predicate reporting uses, so dry-run statistics and reporting can never
// disagree.
type rowStats struct {
	rowsRead   int
	rowsStaged int
	errorRows  int

	missingResidentID  int
	missingHouseholdID int
	missingName        int

	completion models.CompletionStats
}

// residentCopySource adapts a csv.Reader into a pgx CopyFromSource. Rows
// are pulled, transformed, and handed to CopyFrom one at a time; the file
// is never held in memory as a whole.
//
// With skipInvalid set (real imports), rows that cannot be keyed (missing
// residentId, householdId or name) and ragged rows are counted and skipped
// rather than aborting the copy. Dry runs stage every parseable row so the
// scratch table reflects the full file.
type residentCopySource struct {
	reader      *csv.Reader
	layout      *columnLayout
	skipInvalid bool

	stats rowStats

	current []interface{}
	err     error
}

func newResidentCopySource(reader *csv.Reader, layout *columnLayout, skipInvalid bool) *residentCopySource {
	// Ragged rows are handled per row, not as a fatal parse error.
	reader.FieldsPerRecord = -1
	return &residentCopySource{reader: reader, layout: layout, skipInvalid: skipInvalid}
}

func (s *residentCopySource) Next() bool {
	for {
		record, err := s.reader.Read()
		if err != nil {
			if err == io.EOF {
				return false
			}
			if _, ok := err.(*csv.ParseError); ok {
				s.stats.rowsRead++
				s.stats.errorRows++
				continue
			}
			s.err = err
			return false
		}

		s.stats.rowsRead++
		if len(record) <= s.layout.maxHeaderIdx() {
			s.stats.errorRows++
			continue
		}

		s.observe(record)
		if s.skipInvalid && s.missingRequired(record) {
			s.stats.errorRows++
			continue
		}

		s.current = s.transformRecord(record)
		s.stats.rowsStaged++
		return true
	}
}

func (s *residentCopySource) Values() ([]interface{}, error) {
	return s.current, nil
}

func (s *residentCopySource) Err() error {
	return s.err
}

// observe feeds the row into the counters before any skip decision, so dry
// runs report on the whole file.
func (s *residentCopySource) observe(record []string) {
	residentID := transform.String(record[s.layout.residentIDIdx])
	householdID := transform.String(record[s.layout.householdIDIdx])
	name := transform.String(record[s.layout.nameIdx])

	if residentID == nil {
		s.stats.missingResidentID++
	}
	if householdID == nil {
		s.stats.missingHouseholdID++
	}
	if name == nil {
		s.stats.missingName++
	}

	var mobile, healthID *string
	for _, c := range s.layout.columns {
		switch c.dbName {
		case "mobile_number":
			mobile = transform.MobileNumber(record[c.headerIdx])
		case "health_id":
			healthID = transform.String(record[c.headerIdx])
		}
	}
	placeholder.Accumulate(&s.stats.completion, deref(name), deref(householdID), mobile, healthID)
}

func (s *residentCopySource) missingRequired(record []string) bool {
	return transform.String(record[s.layout.residentIDIdx]) == nil ||
		transform.String(record[s.layout.householdIDIdx]) == nil ||
		transform.String(record[s.layout.nameIdx]) == nil
}

// transformRecord applies the Field Transformer rules, yielding values in
// layout order for CopyFrom.
func (s *residentCopySource) transformRecord(record []string) []interface{} {
	values := make([]interface{}, len(s.layout.columns))
	for i, c := range s.layout.columns {
		raw := record[c.headerIdx]
		switch c.kind {
		case kindDate:
			values[i] = transform.DateOfBirth(raw)
		case kindGender:
			if g := transform.Gender(raw); g != models.GenderUnknown {
				values[i] = string(g)
			}
		case kindMobile:
			values[i] = transform.MobileNumber(raw)
		default:
			values[i] = transform.String(raw)
		}
	}
	return values
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
