package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/chittoor-drda/chds-app/chds/errors"
)

type ColumnsTestSuite struct {
	suite.Suite
}

func TestColumnsTestSuite(t *testing.T) {
	suite.Run(t, new(ColumnsTestSuite))
}

func (s *ColumnsTestSuite) TestResolveColumns() {
	header := []string{"residentId", "hhId", "name", "mobileNumber", "somethingUnknown", "dob"}
	layout, err := resolveColumns(header)
	s.NoError(err)
	s.Equal(0, layout.residentIDIdx)
	s.Equal(1, layout.householdIDIdx)
	s.Equal(2, layout.nameIdx)

	// somethingUnknown is dropped, the rest keep file order.
	s.Equal([]string{"resident_id", "household_id", "name", "mobile_number", "date_of_birth"}, layout.stagingColumns())
	s.Equal(5, layout.maxHeaderIdx())
}

func (s *ColumnsTestSuite) TestResolveColumnsTrimsWhitespace() {
	layout, err := resolveColumns([]string{" residentId ", "hhId", "name"})
	s.NoError(err)
	s.Equal(0, layout.residentIDIdx)
}

func (s *ColumnsTestSuite) TestResolveColumnsMissingMandatory() {
	_, err := resolveColumns([]string{"residentId", "mobileNumber"})
	s.Error(err)

	var missing *errors.MissingColumnError
	s.ErrorAs(err, &missing)
	s.Equal([]string{"hhId", "name"}, missing.Columns)
}

func (s *ColumnsTestSuite) TestResolveColumnsDuplicateHeaderUsesFirst() {
	layout, err := resolveColumns([]string{"residentId", "hhId", "name", "name"})
	s.NoError(err)
	s.Equal(2, layout.nameIdx)
	s.Len(layout.columns, 3)
}

func TestStagingTableSQL(t *testing.T) {
	layout, err := resolveColumns([]string{"residentId", "hhId", "name", "dob"})
	assert.NoError(t, err)
	assert.Equal(t,
		"CREATE TEMP TABLE resident_staging (seq BIGSERIAL, resident_id TEXT, household_id TEXT, name TEXT, date_of_birth TIMESTAMP) ON COMMIT DROP",
		stagingTableSQL(layout))
}

func TestUpdateSetList(t *testing.T) {
	cols := []string{"resident_id", "name", "mobile_number"}
	assert.Equal(t, "name = s.name, mobile_number = s.mobile_number", updateSetList(cols, "s"))
	assert.Equal(t, "name = EXCLUDED.name, mobile_number = EXCLUDED.mobile_number", updateSetList(cols, "EXCLUDED"))
}
