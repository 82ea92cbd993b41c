package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// cycle runs one query cycle on a prepared statement under the busy retry
// policy. reset clears captured state before every attempt; scan is called
// once per row. The rows are closed before cycle returns on every path, so
// the statement is idle again whether the cycle succeeded or not.
//
// Callers must hold s.mu.
func (s *Store) cycle(ctx context.Context, id stmtID, args []any, reset func(), scan func(*sql.Rows) error) error {
	if s.closed {
		return newError(ExecutionFailure, id.String(), ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return newError(ExecutionFailure, id.String(), err)
	}

	stmt := s.stmts[id]
	err := s.retry.do(ctx, func() error {
		reset()
		return stepAll(ctx, stmt, args, scan)
	}, s.retryLogger(id.String()))
	if err != nil {
		reset()
		return newError(ExecutionFailure, id.String(), err)
	}
	return nil
}

// stepAll queries stmt and drains every row. A failure to close the rows
// after a clean drain is reported even though the rows were read.
func stepAll(ctx context.Context, stmt *sql.Stmt, args []any, scan func(*sql.Rows) error) error {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}

	for rows.Next() {
		if err := scan(rows); err != nil {
			rows.Close()
			return err
		}
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}

	return rows.Close()
}

// retryLogger reports each busy retry of op, a statement name or a
// multi-statement operation such as config_set.
func (s *Store) retryLogger(op string) func(int, time.Duration, error) {
	return func(attempt int, wait time.Duration, err error) {
		s.logger.Debug("busy, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}
}

// count runs one of the scalar count statements. The last row's value wins;
// no row at all counts as zero.
func (s *Store) count(ctx context.Context, id stmtID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.cycle(ctx, id, nil,
		func() { n = 0 },
		func(rows *sql.Rows) error { return rows.Scan(&n) },
	)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountCards returns the number of cards in the file.
func (s *Store) CountCards(ctx context.Context) (int64, error) {
	return s.count(ctx, stmtCountCards)
}

// CountEdges returns the number of edges in the file.
func (s *Store) CountEdges(ctx context.Context) (int64, error) {
	return s.count(ctx, stmtCountEdges)
}
