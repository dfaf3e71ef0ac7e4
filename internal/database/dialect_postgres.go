package database

import (
	_ "github.com/lib/pq"
)

// PostgresDialect talks to a hosted PostgreSQL through lib/pq
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

// DSN is used verbatim; lib/pq accepts both URL and key=value forms.
func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) Pool(config DialectConfig) PoolSettings {
	return serverPool(config)
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return migrationsTableDDL("BIGSERIAL PRIMARY KEY", "TEXT", "TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP")
}

func (d *PostgresDialect) UpsertClause(conflictColumns, updateColumns []string) string {
	return onConflictUpdate(conflictColumns, updateColumns)
}

func (d *PostgresDialect) IgnoreConflictClause(conflictColumns []string) string {
	return onConflictNothing(conflictColumns)
}
