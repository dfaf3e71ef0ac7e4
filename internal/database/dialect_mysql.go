package database

import (
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect talks to a hosted MySQL or MariaDB
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN makes DATETIME columns scan into time.Time and turns on foreign key
// checks for each session. Unknown parameters are sent by the driver as
// session variables.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	return withParams(config.URL, url.Values{
		"parseTime":          {"true"},
		"foreign_key_checks": {"1"},
	})
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) Pool(config DialectConfig) PoolSettings {
	return serverPool(config)
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return migrationsTableDDL("BIGINT AUTO_INCREMENT PRIMARY KEY", "VARCHAR(255)", "DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)")
}

// UpsertClause ignores the conflict columns, MySQL resolves them from the table's unique keys
func (d *MySQLDialect) UpsertClause(conflictColumns, updateColumns []string) string {
	sets := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		sets[i] = col + " = VALUES(" + col + ")"
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

// IgnoreConflictClause turns a duplicate key into a self-assignment
func (d *MySQLDialect) IgnoreConflictClause(conflictColumns []string) string {
	col := conflictColumns[0]
	return "ON DUPLICATE KEY UPDATE " + col + " = " + col
}
