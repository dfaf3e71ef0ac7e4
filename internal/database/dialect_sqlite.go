package database

import (
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect stores the hosted copy in a single file. It backs local mode
// and every test that needs a "remote" database.
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

// DSN passes the pragmas as go-sqlite3 connection parameters so every pooled
// connection gets them, not only the first one.
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	path := config.Path
	if path == "" {
		path = "galactic.db"
	}
	return withParams(path, url.Values{
		"_busy_timeout": {"5000"},
		"_foreign_keys": {"on"},
		"_journal_mode": {"WAL"},
	})
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	return query
}

// Pool keeps a few connections; a file database gains nothing from recycling them.
func (d *SQLiteDialect) Pool(config DialectConfig) PoolSettings {
	p := PoolSettings{MaxOpenConns: 8, MaxIdleConns: 2}
	if config.MaxOpenConns > 0 {
		p.MaxOpenConns = config.MaxOpenConns
		p.MaxIdleConns = min(p.MaxIdleConns, config.MaxOpenConns)
	}
	return p
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return migrationsTableDDL("INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "DATETIME DEFAULT CURRENT_TIMESTAMP")
}

func (d *SQLiteDialect) UpsertClause(conflictColumns, updateColumns []string) string {
	return onConflictUpdate(conflictColumns, updateColumns)
}

func (d *SQLiteDialect) IgnoreConflictClause(conflictColumns []string) string {
	return onConflictNothing(conflictColumns)
}
