package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arbitros/designaciones/pkg/observability"
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is a JSON document store on a single SQL table
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	metrics *observability.Metrics
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for createdAt/updatedAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMetrics records per-operation counters and latencies
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// New creates a Store over an open database
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PoolConfig holds connection pool settings
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolConfig returns the default pool settings
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    2,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     10 * time.Second,
	}
}

// Open connects to the database named by driver and dsn and verifies the connection
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	timeout := pool.PingTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	return db, dialect, nil
}

// DB returns the underlying database
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect in use
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// ProbeQuery fails until Migrate has created the documents table
const ProbeQuery = "SELECT 1 FROM documents LIMIT 1"

// Migrate creates the documents table and its indexes if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate documents schema: %w", err)
		}
	}
	return nil
}

// Collection returns a handle on the named collection
func (s *Store) Collection(name string) *Collection {
	return &Collection{store: s, name: name, q: s.db}
}

// Tx is a transaction shared by several collection writes
type Tx struct {
	store *Store
	tx    *sql.Tx
}

// Collection returns a handle on the named collection bound to the transaction
func (t *Tx) Collection(name string) *Collection {
	return &Collection{store: t.store, name: name, q: t.tx, inTx: true}
}

// Batch runs fn in one transaction. It commits when fn returns nil and rolls back otherwise.
func (s *Store) Batch(ctx context.Context, fn func(tx *Tx) error) (err error) {
	start := time.Now()
	defer func() { s.observe("*", "batch", start, err) }()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Tx{store: s, tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			observability.LoggerFrom(ctx).WithError(rbErr).Warn("failed to roll back transaction")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) observe(collection, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case errors.Is(err, ErrExists):
		status = "conflict"
	case err != nil:
		status = "error"
	}
	s.metrics.StoreOperationsTotal.WithLabelValues(collection, operation, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
}
