package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// memoryPath is the engine's name for a private, ephemeral database.
const memoryPath = ":memory:"

// Store is an open GraphPaper file: one pinned connection plus the fixed
// statement set prepared on it.
//
// Calls are serialized by an internal mutex, so at most one statement cycle
// is in progress at a time.
type Store struct {
	id     string
	path   string
	logger *slog.Logger
	retry  RetryPolicy

	mu     sync.Mutex
	closed bool
	db     *sql.DB
	conn   *sql.Conn
	stmts  [numStatements]*sql.Stmt
}

// Open opens the GraphPaper file at path, or an ephemeral in-memory store if
// path is empty. A missing file is created.
//
// Open either returns a fully initialized Store or a nil Store and an *Error;
// everything acquired before the failing step is released first.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.Must(uuid.NewV7()).String()
	s := &Store{
		id:     id,
		path:   path,
		logger: o.logger.With(slog.String("store_id", id), slog.String("path", displayPath(path))),
		retry:  o.retry,
	}

	db, err := sql.Open(driverName, buildDSN(path, o.busyTimeout))
	if err != nil {
		return nil, newError(AllocationFailure, "open pool", err)
	}
	s.db = db

	// A single pinned connection: ":memory:" databases are per connection,
	// and prepared statements must stay bound to the connection they were
	// compiled on.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, s.abort(newError(ConnectionFailure, "connect", err))
	}
	s.conn = conn

	if o.setup != nil {
		if err := o.setup(ctx, conn); err != nil {
			return nil, s.abort(newError(ConnectionFailure, "setup", err))
		}
	}

	for i := range statementDefs {
		def := statementDefs[i]
		stmt, err := conn.PrepareContext(ctx, def.query)
		if err != nil {
			return nil, s.abort(newError(StatementPrepareFailure, "prepare "+def.name, err))
		}
		s.stmts[i] = stmt
	}

	s.logger.Debug("store opened")
	return s, nil
}

// abort releases whatever Open acquired so far and returns cause.
func (s *Store) abort(cause *Error) error {
	if err := s.teardown(); err != nil {
		s.logger.Debug("teardown after failed open", slog.String("error", err.Error()))
	}
	s.logger.Debug("store open failed", slog.String("kind", string(cause.Kind)), slog.String("op", cause.Op))
	return cause
}

// Close releases every prepared statement, then the connection, then the
// pool. Statements with a cycle still in progress are closed regardless.
//
// Close on a nil or already closed Store returns nil.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.teardown()
	if err != nil {
		s.logger.Debug("store closed with errors", slog.String("error", err.Error()))
		return fmt.Errorf("close store: %w", err)
	}
	s.logger.Debug("store closed")
	return nil
}

// teardown closes statements, connection and pool in that order, skipping
// anything that was never acquired.
func (s *Store) teardown() error {
	var errs []error

	for i, stmt := range s.stmts {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statement %s: %w", stmtID(i), err))
		}
		s.stmts[i] = nil
	}

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		s.conn = nil
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pool: %w", err))
		}
		s.db = nil
	}

	return errors.Join(errs...)
}

// ID returns the handle's identifier, a UUIDv7 that also tags its log records.
func (s *Store) ID() string {
	return s.id
}

// Path returns the path the store was opened with; empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// buildDSN builds a go-sqlite3 DSN for path with the given engine busy
// timeout. path is always a filesystem path: it is escaped into a file: URI
// so characters such as '?', '#' and '%' reach the engine unchanged.
func buildDSN(path string, busyTimeout time.Duration) string {
	if path == "" {
		path = memoryPath
	} else {
		path = filepath.Clean(path)
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d", strings.Join(segments, "/"), busyTimeout.Milliseconds())
}

func displayPath(path string) string {
	if path == "" {
		return memoryPath
	}
	return path
}
