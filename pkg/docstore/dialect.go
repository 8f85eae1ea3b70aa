package docstore

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Dialect hides the SQL differences between the supported databases
type Dialect interface {
	// Name is the database/sql driver name
	Name() string
	// Placeholder returns the n-th (1-based) bind parameter
	Placeholder(n int) string
	// Field extracts a top-level document field as text
	Field(name string) string
	// LockClause is appended to row reads inside read-modify-write transactions
	LockClause() string
	// Schema returns the idempotent DDL statements
	Schema() []string
	// IsUniqueViolation reports whether err is a primary key or unique index violation
	IsUniqueViolation(err error) bool
}

func validField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

// Postgres stores documents as jsonb through lib/pq
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Field(name string) string { return fmt.Sprintf("data->>'%s'", name) }

func (Postgres) LockClause() string { return " FOR UPDATE" }

func (Postgres) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection  TEXT NOT NULL,
			id          TEXT NOT NULL,
			delegate_id TEXT NOT NULL DEFAULT '',
			data        JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_delegate_idx ON documents (collection, delegate_id)`,
		`CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data jsonb_path_ops)`,
	}
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// SQLite stores documents as JSON text through mattn/go-sqlite3. Used in tests
// and single-node deployments.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Field(name string) string { return fmt.Sprintf("json_extract(data, '$.%s')", name) }

func (SQLite) LockClause() string { return "" }

func (SQLite) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection  TEXT NOT NULL,
			id          TEXT NOT NULL,
			delegate_id TEXT NOT NULL DEFAULT '',
			data        TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_delegate_idx ON documents (collection, delegate_id)`,
	}
}

func (SQLite) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// DialectFor returns the dialect for a database/sql driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres{}, nil
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
