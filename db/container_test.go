package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/chittoor-drda/chds-app/conf"
)

type DatabaseContainerTestSuite struct {
	suite.Suite
	ctr TestDatabaseContainer
}

func TestDatabaseContainerTestSuite(t *testing.T) {
	if conf.GetEnv("CHDS_CONTAINER_TESTS") == "" {
		t.Skip("CHDS_CONTAINER_TESTS not set; skipping container tests")
	}
	suite.Run(t, new(DatabaseContainerTestSuite))
}

func (s *DatabaseContainerTestSuite) SetupSuite() {
	var err error
	s.ctr, err = NewTestDatabaseContainer()
	require.NoError(s.T(), err)
}

func (s *DatabaseContainerTestSuite) SetupTest() {
	require.NoError(s.T(), s.ctr.RestoreSnapshot("Base"))
}

func (s *DatabaseContainerTestSuite) TestMigrationsApplied() {
	ctx := context.Background()
	c, err := s.ctr.NewPgxConnection()
	require.NoError(s.T(), err)
	defer c.Close(ctx)

	var count int
	for _, table := range []string{"residents", "change_log", "import_history", "locking_settings"} {
		err = c.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		assert.NoError(s.T(), err, "table %s should exist", table)
	}

	// locking_settings is seeded with its single disabled row.
	err = c.QueryRow(ctx, "SELECT COUNT(*) FROM locking_settings WHERE cutoff_date IS NULL").Scan(&count)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)
}

func (s *DatabaseContainerTestSuite) TestExecuteFile() {
	valid := "INSERT INTO residents (resident_id, household_id, name) VALUES ('R1', 'H1', 'Lakshmi');"
	tests := []struct {
		name    string
		pattern string
		text    string
		expRows int64
		expErr  bool
	}{
		{"valid sql", "insert_resident-*.sql", valid, 1, false},
		{"empty file", "insert_empty-*.sql", "", 0, true},
		{"invalid sql", "insert_invalid-*.sql", "insert into foo (id) values ('bar')", 0, true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			require.NoError(s.T(), s.ctr.RestoreSnapshot("Base"))

			tmpFile, err := os.CreateTemp(s.T().TempDir(), tt.pattern)
			require.NoError(s.T(), err)
			defer tmpFile.Close()
			_, err = tmpFile.WriteString(tt.text)
			require.NoError(s.T(), err)

			rows, err := s.ctr.ExecuteFile(tmpFile.Name())
			if tt.expErr {
				assert.Error(s.T(), err)
			} else {
				assert.NoError(s.T(), err)
				assert.Equal(s.T(), tt.expRows, rows)
			}
		})
	}
}

func (s *DatabaseContainerTestSuite) TestSnapshotRestore() {
	ctx := context.Background()
	c, err := s.ctr.NewPgxConnection()
	require.NoError(s.T(), err)

	_, err = c.Exec(ctx, "INSERT INTO residents (resident_id, household_id, name) VALUES ('R9', 'H9', 'Temp')")
	assert.NoError(s.T(), err)
	c.Close(ctx)

	require.NoError(s.T(), s.ctr.RestoreSnapshot("Base"))

	c, err = s.ctr.NewPgxConnection()
	require.NoError(s.T(), err)
	defer c.Close(ctx)

	var count int
	err = c.QueryRow(ctx, "SELECT COUNT(*) FROM residents").Scan(&count)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), 0, count)
}

func (s *DatabaseContainerTestSuite) TestConnectionHelpers() {
	pool, err := s.ctr.NewPgxPoolConnection()
	require.NoError(s.T(), err)
	defer pool.Close()

	var count int
	assert.NoError(s.T(), pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM residents").Scan(&count))

	db, err := s.ctr.NewSqlDbConnection()
	require.NoError(s.T(), err)
	defer db.Close()
	assert.NoError(s.T(), db.QueryRow("SELECT COUNT(*) FROM residents").Scan(&count))
}
