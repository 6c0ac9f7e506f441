package csvimport

import (
	"strings"

	"github.com/chittoor-drda/chds-app/chds/errors"
)

// fieldKind selects which Field Transformer rule applies to a column.
type fieldKind int

const (
	kindString fieldKind = iota
	kindDate
	kindGender
	kindMobile
)

// column describes one recognized CSV column: the header name the source
// files use, the residents table column it lands in, and its transform rule.
type column struct {
	raw    string
	dbName string
	kind   fieldKind
}

// recognizedColumns is the fixed column set the pipeline understands.
// Unrecognized header names are ignored.
var recognizedColumns = []column{
	{"distName", "district", kindString},
	{"mandalName", "mandal_name", kindString},
	{"mandalCode", "mandal_code", kindString},
	{"secName", "secretariat_name", kindString},
	{"secCode", "secretariat_code", kindString},
	{"ruralUrban", "rural_urban", kindString},
	{"hhId", "household_id", kindString},
	{"residentId", "resident_id", kindString},
	{"uid", "uid", kindString},
	{"clusterName", "cluster_name", kindString},
	{"name", "name", kindString},
	{"dob", "date_of_birth", kindDate},
	{"gender", "gender", kindGender},
	{"qualification", "qualification", kindString},
	{"occupation", "occupation", kindString},
	{"caste", "caste", kindString},
	{"subCaste", "sub_caste", kindString},
	{"casteCategory", "caste_category", kindString},
	{"casteCategoryDetailed", "caste_category_detailed", kindString},
	{"mobileNumber", "mobile_number", kindMobile},
	{"hofMember", "hof_member", kindString},
	{"doorNumber", "door_number", kindString},
	{"addressEkyc", "address_ekyc", kindString},
	{"addressHh", "address_hh", kindString},
	{"healthId", "health_id", kindString},
	{"citizenMobile", "citizen_mobile", kindString},
	{"age", "age", kindString},
	{"phcName", "facility_name", kindString},
}

// Columns that must be present in every import file.
var requiredColumns = []string{"residentId", "hhId", "name"}

// columnLayout maps each recognized column to its position in the file's
// header.
type columnLayout struct {
	// ordered list of recognized columns, with their header index
	columns []placedColumn

	residentIDIdx  int
	householdIDIdx int
	nameIdx        int
}

type placedColumn struct {
	column
	headerIdx int
}

// resolveColumns builds the layout from the header row. Any missing
// mandatory column is a hard failure before a single data row is read.
func resolveColumns(header []string) (*columnLayout, error) {
	byRaw := make(map[string]column, len(recognizedColumns))
	for _, c := range recognizedColumns {
		byRaw[c.raw] = c
	}

	layout := &columnLayout{residentIDIdx: -1, householdIDIdx: -1, nameIdx: -1}
	seen := make(map[string]bool)
	for idx, cell := range header {
		name := strings.TrimSpace(cell)
		c, ok := byRaw[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		layout.columns = append(layout.columns, placedColumn{column: c, headerIdx: idx})
		switch name {
		case "residentId":
			layout.residentIDIdx = idx
		case "hhId":
			layout.householdIDIdx = idx
		case "name":
			layout.nameIdx = idx
		}
	}

	var missing []string
	for _, required := range requiredColumns {
		if !seen[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.MissingColumnError{Columns: missing}
	}
	return layout, nil
}

// maxHeaderIdx returns the highest header index any recognized column
// occupies. Rows shorter than this cannot be transformed safely.
func (l *columnLayout) maxHeaderIdx() int {
	max := 0
	for _, c := range l.columns {
		if c.headerIdx > max {
			max = c.headerIdx
		}
	}
	return max
}

// stagingColumns returns the database column names in layout order, for use
// as the CopyFrom target column list.
func (l *columnLayout) stagingColumns() []string {
	names := make([]string, len(l.columns))
	for i, c := range l.columns {
		names[i] = c.dbName
	}
	return names
}
