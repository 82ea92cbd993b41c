// Package store provides the SQLite-backed storage handle for GraphPaper files.
//
// A GraphPaper file holds:
//   - Cards: the nodes of the graph
//   - Edges: typed links between cards
//   - Config: free-form key/value string pairs (viewport, format version, ...)
//
// # Handle Lifecycle
//
// Open pins a single connection and prepares the fixed statement set against
// it. The handle is either fully initialized or not returned at all: a failure
// at any step closes every statement prepared so far, the connection and the
// pool before Open returns.
//
// Close releases statements, then the connection, then the pool.
//
// # Schema Precondition
//
// The backing file must already contain the cards, edges and config tables.
// This package never creates or migrates them; a schema mismatch shows up as
// a STATEMENT_PREPARE_FAILURE from Open. Ephemeral stores can be populated
// through WithSetup before the statements compile.
//
// # Contention
//
// SQLITE_BUSY and SQLITE_LOCKED are retried with bounded exponential backoff
// (see RetryPolicy). The engine's own busy timeout defaults to zero so the
// retry policy is the only wait.
package store
