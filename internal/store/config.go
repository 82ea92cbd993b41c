package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ConfigEntry is one row of the config table.
type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigGet returns the value stored for key.
//
// Outcomes:
//   - found: (value, nil)
//   - no matching row, or a NULL value: ("", ErrKeyMissing)
//   - failure: ("", *Error) with Kind ExecutionFailure
//
// Keys are not unique in the table; the first row wins and the remaining
// rows are drained and ignored.
func (s *Store) ConfigGet(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		value   sql.NullString
		scanned bool
	)
	err := s.cycle(ctx, stmtConfigGet, []any{key},
		func() {
			value = sql.NullString{}
			scanned = false
		},
		func(rows *sql.Rows) error {
			if scanned {
				return nil
			}
			scanned = true
			return rows.Scan(&value)
		},
	)
	if err != nil {
		return "", err
	}
	if !value.Valid {
		return "", ErrKeyMissing
	}
	return value.String, nil
}

// ConfigSet stores value under key, replacing every existing row for key.
// Both writes run in one transaction on the pinned connection.
func (s *Store) ConfigSet(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "config_set"
	if s.closed {
		return newError(ExecutionFailure, op, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return newError(ExecutionFailure, op, err)
	}

	err := s.retry.do(ctx, func() error {
		return s.replaceConfig(ctx, key, value)
	}, s.retryLogger(op))
	if err != nil {
		return newError(ExecutionFailure, op, err)
	}
	return nil
}

func (s *Store) replaceConfig(ctx context.Context, key, value string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	// Tx.StmtContext re-prepares Conn-bound statements inside the transaction.
	del := tx.StmtContext(ctx, s.stmts[stmtConfigDelete])
	defer del.Close()
	if _, err := del.ExecContext(ctx, key); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", stmtConfigDelete, err)
	}

	ins := tx.StmtContext(ctx, s.stmts[stmtConfigInsert])
	defer ins.Close()
	if _, err := ins.ExecContext(ctx, key, value); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", stmtConfigInsert, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ConfigEntries returns every config row ordered by key.
// Rows with a NULL value are skipped, matching ConfigGet's view of them.
//
// Returns an empty slice (not nil) when the table is empty.
func (s *Store) ConfigEntries(ctx context.Context) ([]ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []ConfigEntry
	err := s.cycle(ctx, stmtConfigList, nil,
		func() { entries = entries[:0] },
		func(rows *sql.Rows) error {
			var (
				key   string
				value sql.NullString
			)
			if err := rows.Scan(&key, &value); err != nil {
				return err
			}
			if value.Valid {
				entries = append(entries, ConfigEntry{Key: key, Value: value.String})
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []ConfigEntry{}
	}
	return entries, nil
}
