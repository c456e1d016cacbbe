package exec

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zoobzio/stmtql"
)

// ExecQuerier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of running a statement.
type Result struct {
	Kind         stmtql.StatementKind
	RowsAffected int64
	Rows         []Row
}

// Runner runs compiled statements.
type Runner struct {
	db     ExecQuerier
	logger *slog.Logger
	slow   time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger that records every statement run.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithSlowThreshold logs statements slower than d at warn level.
func WithSlowThreshold(d time.Duration) Option {
	return func(r *Runner) { r.slow = d }
}

// NewRunner creates a runner over db.
func NewRunner(db ExecQuerier, opts ...Option) *Runner {
	r := &Runner{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run materializes st for its driver and runs it. Statements that return
// rows report the number of rows read as RowsAffected.
func (r *Runner) Run(ctx context.Context, st *stmtql.Statement) (*Result, error) {
	query, args, err := st.Materialize()
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", st.Kind, err)
	}

	start := time.Now()
	res := &Result{Kind: st.Kind}
	if st.Kind == stmtql.KindSelect || st.Returning {
		res.Rows, err = r.query(ctx, query, args)
		res.RowsAffected = int64(len(res.Rows))
	} else {
		res.RowsAffected, err = r.exec(ctx, query, args)
	}
	r.record(ctx, st, time.Since(start), res.RowsAffected, err)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", st.Kind, err)
	}
	return res, nil
}

func (r *Runner) exec(ctx context.Context, query string, args []any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *Runner) query(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Runner) record(ctx context.Context, st *stmtql.Statement, elapsed time.Duration, rows int64, err error) {
	attrs := []slog.Attr{
		slog.String("kind", st.Kind.String()),
		slog.String("dialect", st.Dialect.String()),
		slog.Duration("elapsed", elapsed),
	}
	switch {
	case err != nil:
		r.logger.LogAttrs(ctx, slog.LevelError, "statement failed", append(attrs, slog.Any("error", err))...)
	case r.slow > 0 && elapsed > r.slow:
		r.logger.LogAttrs(ctx, slog.LevelWarn, "slow statement", append(attrs, slog.Int64("rows", rows))...)
	default:
		r.logger.LogAttrs(ctx, slog.LevelDebug, "statement executed", append(attrs, slog.Int64("rows", rows))...)
	}
}
