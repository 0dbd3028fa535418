package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/okian/careboard/internal/domain/tiering"
	"github.com/okian/careboard/pkg/logger"
	"github.com/okian/careboard/pkg/metrics"
)

var sqlOpen = sql.Open

// Compile-time contract assertion.
var _ Store = (*SQLStore)(nil)

// SQLStore runs the aggregation queries through database/sql. Each query
// checks out its own connection and returns it before the call completes.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger

	queryTimeout       time.Duration
	rowLimit           int
	minStateFacilities int
	topMeasure         string
	measurePrefixes    []string
	tiers              tiering.Scheme

	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// Open resolves the dialect and DSN and prepares a connection pool. It does
// not dial the database: an unreachable server surfaces as query faults
// and failed readiness checks, not as a startup error.
func Open(ctx context.Context, cfg Config, opts ...Option) (*SQLStore, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := cfg.openDB(dialect)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	s, err := NewSQLStore(db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info(ctx, "analytics store configured",
		logger.String("dialect", string(dialect)),
		logger.String("target", cfg.Redacted()),
	)
	return s, nil
}

// NewSQLStore wraps an existing handle.
func NewSQLStore(db *sql.DB, dialect Dialect, opts ...Option) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil handle", ErrNotConfigured)
	}
	s := &SQLStore{
		db:                 db,
		dialect:            dialect,
		rowLimit:           defaultRowLimit,
		minStateFacilities: defaultMinStateFacilities,
		topMeasure:         defaultTopMeasure,
		measurePrefixes:    defaultMeasurePrefixes,
		tiers:              tiering.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("repository")
	}
	if err := s.tiers.Validate(); err != nil {
		return nil, err
	}
	// Labels are inlined into the CASE expression, where a '?' would be
	// renumbered as a bind parameter under the dollar format.
	for _, t := range s.tiers {
		if strings.Contains(t.Label, "?") {
			return nil, fmt.Errorf("%w: label %q contains '?'", tiering.ErrInvalidTier, t.Label)
		}
	}
	if s.maxOpen > 0 {
		db.SetMaxOpenConns(s.maxOpen)
	}
	if s.maxIdle > 0 {
		db.SetMaxIdleConns(s.maxIdle)
	}
	if s.maxLifetime > 0 {
		db.SetConnMaxLifetime(s.maxLifetime)
	}
	return s, nil
}

// Dialect reports the SQL flavour in use.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Ping checks that a connection can be established.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.dialect, err)
	}
	return nil
}

// Stats returns connection pool statistics.
func (s *SQLStore) Stats() sql.DBStats {
	return s.db.Stats()
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanFunc[T any] func(*sql.Rows) (T, error)

// collect executes q for op and absorbs any fault into the Result after
// logging it.
func collect[T any](ctx context.Context, s *SQLStore, op string, q sq.SelectBuilder, scan scanFunc[T]) Result[T] {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	var rows []T
	stmt, args, err := render(q)
	if err == nil {
		rows, err = fetch(ctx, s.db, stmt, args, scan)
	}
	latencyMs := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		s.logger.Error(ctx, "query execution fault",
			logger.String("operation", op),
			logger.String("dialect", string(s.dialect)),
			logger.Float64("latency_ms", latencyMs),
			logger.Error(err),
		)
		metrics.RecordQueryFault(op, latencyMs)
		return Result[T]{Err: &QueryError{Op: op, Err: err}}
	}

	metrics.RecordQuery(op, latencyMs, len(rows))
	if len(rows) == 0 {
		s.logger.Debug(ctx, "query returned no rows", logger.String("operation", op))
	}
	return Result[T]{Rows: rows}
}

// render turns q into a statement and its bind arguments.
func render(q sq.SelectBuilder) (string, []any, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build: %w", err)
	}
	return stmt, args, nil
}

// fetch runs one statement on a dedicated connection and reads every row.
// The rows and the connection are released on all paths.
func fetch[T any](ctx context.Context, db *sql.DB, stmt string, args []any, scan scanFunc[T]) ([]T, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return out, nil
}
