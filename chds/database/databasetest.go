package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pborman/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/chittoor-drda/chds-app/conf"
)

var dsnPattern = regexp.MustCompile(`(?P<conn>postgresql\:\/\/\S+\:\S+\@\S+\:\d+\/?)(?P<dbname>.*?)(?P<options>\?.*?)`)

// CreateDatabase creates a clone of the database referenced by DATABASE_URL,
// runs the registry migrations against it, and returns the connection along
// with the created database name. With cleanup set, the clone is dropped
// when the test finishes.
func CreateDatabase(t *testing.T, migrationsPath string, cleanup bool) (*sql.DB, string) {
	dsn := conf.GetEnv("DATABASE_URL")
	db := getDbConnection(dsn)
	newDBName := strings.ReplaceAll(fmt.Sprintf("%s_%s", dbName(dsn), uuid.New()), "-", "_")

	_, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", newDBName))
	assert.NoError(t, err)

	newDSN := dsnPattern.ReplaceAllString(dsn, fmt.Sprintf("${conn}%s${options}", newDBName))
	runMigrations(t, migrationsPath, newDSN)

	newDB := getDbConnection(newDSN)
	if cleanup {
		t.Cleanup(func() {
			assert.NoError(t, newDB.Close())
			_, err = db.Exec("DROP DATABASE " + newDBName)
			assert.NoError(t, err)
			db.Close()
		})
	}
	return newDB, newDBName
}

func dbName(dsn string) string {
	return dsnPattern.FindStringSubmatch(dsn)[2]
}

func runMigrations(t *testing.T, migrationsPath, dsn string) {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	assert.NoError(t, err)
	assert.NoError(t, m.Up())
	m.Close()
}

func getDbConnection(dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		LogFatal(err)
	}
	return db
}
