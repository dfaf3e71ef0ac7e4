package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"galactischevrienden/internal/config"
)

const pingTimeout = 10 * time.Second

// DB is the hosted progress database. Queries are written with `?`
// placeholders and rewritten for the dialect on the way out.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize opens a SQLite file; local mode and tests use it.
func Initialize(dbPath string) (*DB, error) {
	return Open(NewSQLiteDialect(), DialectConfig{Path: dbPath})
}

// DialectFor maps a configured database type to its dialect
func DialectFor(databaseType string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(databaseType)) {
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql", "mariadb":
		return NewMySQLDialect(), nil
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", databaseType)
	}
}

// InitializeWithConfig opens the database named by the configuration
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := DialectFor(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	return Open(dialect, DialectConfig{
		Path:         cfg.DatabasePath,
		URL:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
}

// Open connects with the given dialect, applies its pool limits and checks
// that the server answers.
func Open(dialect Dialect, dc DialectConfig) (*DB, error) {
	if dialect.Name() != "sqlite" && dc.URL == "" {
		return nil, fmt.Errorf("%s requires DATABASE_URL", dialect.Name())
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dc))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name(), err)
	}

	pool := dialect.Pool(dc)
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name(), err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.RewriteQuery(query), args...)
}
