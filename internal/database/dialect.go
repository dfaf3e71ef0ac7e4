package database

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the SQL differences between the engines the hosted copy of
// the progress can live in. Repositories always write `?` placeholders.
type Dialect interface {
	// Name is the canonical engine name used in logs and config
	Name() string

	// DriverName returns the database/sql driver to open
	DriverName() string

	// DSN builds the connection string, including per-connection settings
	DSN(config DialectConfig) string

	// RewriteQuery converts `?` placeholders when the driver needs another style
	RewriteQuery(query string) string

	// Pool returns the connection pool limits for this engine
	Pool(config DialectConfig) PoolSettings

	// MigrationsSubdir names the embedded migrations directory
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the DDL for the applied-migrations table
	CreateMigrationsTableQuery() string

	// UpsertClause turns an INSERT into an upsert on the conflict columns
	UpsertClause(conflictColumns, updateColumns []string) string

	// IgnoreConflictClause makes an INSERT a no-op on duplicate keys
	IgnoreConflictClause(conflictColumns []string) string
}

// DialectConfig holds what is needed to reach one database
type DialectConfig struct {
	Path string // sqlite file
	URL  string // postgres/mysql DSN

	// MaxOpenConns overrides the engine default when positive
	MaxOpenConns int
}

// PoolSettings are applied to the *sql.DB right after it is opened
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// serverPool suits a networked database shared by several devices
func serverPool(config DialectConfig) PoolSettings {
	p := PoolSettings{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
	if config.MaxOpenConns > 0 {
		p.MaxOpenConns = config.MaxOpenConns
		p.MaxIdleConns = min(p.MaxIdleConns, config.MaxOpenConns)
	}
	return p
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ... and
// leaves question marks inside quoted literals or identifiers alone.
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// onConflictUpdate is shared by SQLite and PostgreSQL, which both know ON CONFLICT ... excluded
func onConflictUpdate(conflictColumns, updateColumns []string) string {
	sets := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		sets[i] = col + " = excluded." + col
	}
	return "ON CONFLICT (" + strings.Join(conflictColumns, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

func onConflictNothing(conflictColumns []string) string {
	return "ON CONFLICT (" + strings.Join(conflictColumns, ", ") + ") DO NOTHING"
}

func migrationsTableDDL(idColumn, filenameType, timestampColumn string) string {
	return "CREATE TABLE IF NOT EXISTS migrations (" +
		"id " + idColumn + ", " +
		"filename " + filenameType + " UNIQUE NOT NULL, " +
		"executed_at " + timestampColumn +
		")"
}

// withParams appends query parameters to a DSN, keeping any the caller set
func withParams(dsn string, params url.Values) string {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	existing, err := url.ParseQuery(rawQuery)
	if err != nil {
		existing = url.Values{}
	}
	for key, values := range params {
		if _, ok := existing[key]; !ok {
			existing[key] = values
		}
	}
	if len(existing) == 0 {
		return base
	}
	return base + "?" + existing.Encode()
}
