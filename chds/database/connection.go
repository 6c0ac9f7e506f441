package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/chittoor-drda/chds-app/chds/utils"
	"github.com/chittoor-drda/chds-app/conf"
)

// Variable substitution to support testing.
var LogFatal = log.Fatal

// GetDbConnection opens the registry database for the request-scoped edit
// and reporting paths.
func GetDbConnection() *sql.DB {
	cfg := LoadConfig()
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		LogFatal(err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	if err := db.Ping(); err != nil {
		LogFatal(err)
	}
	return db
}

// GetPgxPool opens a pgx connection pool. Bulk imports use this for
// CopyFrom, which database/sql cannot express.
func GetPgxPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := LoadConfig()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Config holds database connection settings read from the environment.
type Config struct {
	DatabaseURL        string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
}

func LoadConfig() Config {
	return Config{
		DatabaseURL:        conf.GetEnv("DATABASE_URL"),
		MaxOpenConns:       utils.GetEnvInt("CHDS_DB_MAX_OPEN_CONNS", 40),
		MaxIdleConns:       utils.GetEnvInt("CHDS_DB_MAX_IDLE_CONNS", 20),
		ConnMaxLifetimeMin: utils.GetEnvInt("CHDS_DB_CONN_MAX_LIFETIME_MIN", 5),
	}
}
