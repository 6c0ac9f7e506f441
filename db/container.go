package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestDatabaseContainer wraps a disposable Postgres container carrying the
// registry schema. Tests seed scenario data with ExecuteFile and reset
// between cases by restoring the Base snapshot.
type TestDatabaseContainer struct {
	Container        *postgres.PostgresContainer
	ConnectionString string

	migrations string
}

// NewTestDatabaseContainer starts a Postgres container, applies the registry
// migrations, and snapshots the migrated state under the name "Base".
func NewTestDatabaseContainer() (TestDatabaseContainer, error) {
	ctx := context.Background()
	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chds"),
		postgres.WithUsername("chds"),
		postgres.WithPassword("chds"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return TestDatabaseContainer{}, fmt.Errorf("failed to start database container: %w", err)
	}

	conn, err := c.ConnectionString(ctx)
	if err != nil {
		return TestDatabaseContainer{}, fmt.Errorf("failed to get container connection string: %w", err)
	}

	tdc := TestDatabaseContainer{Container: c, ConnectionString: conn}

	tdc.migrations, err = findMigrationsDir()
	if err != nil {
		return TestDatabaseContainer{}, err
	}
	if err = tdc.runMigrations(); err != nil {
		return TestDatabaseContainer{}, err
	}
	if err = tdc.CreateSnapshot("Base"); err != nil {
		return TestDatabaseContainer{}, err
	}
	return tdc, nil
}

// ExecuteFile runs one *.sql file against the container and returns the
// number of affected rows. Scenario files belong under a package's testdata
// directory.
func (td *TestDatabaseContainer) ExecuteFile(path string) (int64, error) {
	ctx := context.Background()

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read sql file: %w", err)
	}

	conn, err := td.NewPgxConnection()
	if err != nil {
		return 0, err
	}
	defer conn.Close(ctx)

	result, err := conn.Exec(ctx, string(content))
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s: %w", path, err)
	}
	return result.RowsAffected(), nil
}

// CreateSnapshot snapshots the current database state under the given name.
// Close any open connections first.
func (td *TestDatabaseContainer) CreateSnapshot(name string) error {
	return td.Container.Snapshot(context.Background(), postgres.WithSnapshotName(name))
}

// RestoreSnapshot restores a named snapshot; the empty string restores the
// most recent one. "Base" restores the freshly-migrated state.
func (td *TestDatabaseContainer) RestoreSnapshot(name string) error {
	return td.Container.Restore(context.Background(), postgres.WithSnapshotName(name))
}

func (td *TestDatabaseContainer) NewPgxConnection() (*pgx.Conn, error) {
	return pgx.Connect(context.Background(), td.ConnectionString)
}

func (td *TestDatabaseContainer) NewPgxPoolConnection() (*pgxpool.Pool, error) {
	return pgxpool.New(context.Background(), td.ConnectionString)
}

func (td *TestDatabaseContainer) NewSqlDbConnection() (*sql.DB, error) {
	return sql.Open("postgres", td.ConnectionString+"sslmode=disable")
}

func (td *TestDatabaseContainer) runMigrations() error {
	m, err := migrate.New("file://"+td.migrations, td.ConnectionString+"sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to load migrations from %s: %w", td.migrations, err)
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return fmt.Errorf("failed to migrate container database: %w", err)
	}
	return nil
}

// findMigrationsDir walks up from the working directory until it finds the
// registry migrations, so the container can be started from any package.
func findMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		target := filepath.Join(dir, "db", "migrations", "chds")
		if _, err := os.Stat(target); err == nil {
			return target, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking path %s: %w", target, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("db/migrations/chds not found in any parent directory")
		}
		dir = parent
	}
}
