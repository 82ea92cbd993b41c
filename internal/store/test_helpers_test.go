package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/roach88/graphpaper/internal/testutil"
)

// openTestStore opens path and closes the store when the test ends.
func openTestStore(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openFixtureStore materializes a fixture file and opens it.
func openFixtureStore(t *testing.T, fixture string, opts ...Option) *Store {
	t.Helper()
	return openTestStore(t, testutil.WriteFixtureDB(t, fixture), opts...)
}

// fixtureSetup returns a setup hook that loads the fixture into the
// store's own connection, for in-memory stores.
func fixtureSetup(t *testing.T, fixture string) Option {
	t.Helper()
	fx := testutil.MustLoadFixture(t, fixture)
	return WithSetup(func(ctx context.Context, conn *sql.Conn) error {
		return fx.Apply(ctx, conn)
	})
}

// verifyPragma checks that a pragma is set to the expected value on the
// pinned connection.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.conn.QueryRowContext(ctx, query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
