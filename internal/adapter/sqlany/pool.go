package sqlany

import (
	"context"
	"fmt"
	"time"

	_ "github.com/alexbrainman/odbc" // registers the "odbc" database/sql driver
	"github.com/jmoiron/sqlx"
)

// PoolConfig bounds the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens an ODBC connection pool to SQL Anywhere and verifies it
// with a bounded ping. The connection string is a raw ODBC string
// (DRIVER=...;ServerName=...;DBN=...;UID=...;PWD=...).
func Connect(ctx context.Context, connString string, pool PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("odbc", connString)
	if err != nil {
		return nil, fmt.Errorf("opening odbc connection: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database (10s timeout): %w", err)
	}

	return db, nil
}
