package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"gopkg.in/yaml.v3"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed testdata/*.yaml
var fixtureFS embed.FS

// minCardSize matches the smallest card the editor will draw.
const minCardSize = 20

// Fixture describes the contents of a GraphPaper file for tests.
type Fixture struct {
	// Name uniquely identifies this fixture.
	Name string `yaml:"name"`

	// Description explains what the fixture is for.
	Description string `yaml:"description"`

	// OmitTables lists tables left out of the schema, for testing how
	// a store reacts to a file that does not match its expectations.
	OmitTables []string `yaml:"omit_tables,omitempty"`

	EdgeTypes []EdgeType    `yaml:"edge_types,omitempty"`
	Cards     []Card        `yaml:"cards,omitempty"`
	Edges     []Edge        `yaml:"edges,omitempty"`
	Config    []ConfigEntry `yaml:"config,omitempty"`
}

// Card is a row of the cards table.
type Card struct {
	ID    int64  `yaml:"id"`
	X     int64  `yaml:"x"`
	Y     int64  `yaml:"y"`
	W     int64  `yaml:"w"`
	H     int64  `yaml:"h"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// EdgeType is a row of the edge_types table.
type EdgeType struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// Edge is a row of the edges table. Type is optional.
type Edge struct {
	ID     int64  `yaml:"id"`
	Origin int64  `yaml:"origin"`
	Dest   int64  `yaml:"dest"`
	Type   *int64 `yaml:"type,omitempty"`
}

// ConfigEntry is a row of the config table. Null stores a NULL value.
type ConfigEntry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
	Null  bool   `yaml:"null,omitempty"`
}

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// tableDDL is the schema a GraphPaper file is expected to carry, in
// creation order.
var tableDDL = []struct {
	table string
	ddl   string
}{
	{"cards", `CREATE TABLE cards (
		id INTEGER PRIMARY KEY,
		xpos INTEGER NOT NULL DEFAULT 0,
		ypos INTEGER NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 20,
		height INTEGER NOT NULL DEFAULT 20,
		title TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		modified INTEGER NOT NULL DEFAULT 0
	)`},
	{"edge_types", `CREATE TABLE edge_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		modified INTEGER NOT NULL DEFAULT 0
	)`},
	{"edges", `CREATE TABLE edges (
		id INTEGER PRIMARY KEY,
		origin_id INTEGER NOT NULL,
		dest_id INTEGER NOT NULL,
		type_id INTEGER,
		modified INTEGER NOT NULL DEFAULT 0
	)`},
	{"config", `CREATE TABLE config (
		key TEXT NOT NULL,
		value TEXT
	)`},
}

// LoadFixture parses one of the embedded fixtures by name (without the
// .yaml extension). Unknown fields are rejected.
func LoadFixture(name string) (*Fixture, error) {
	data, err := fixtureFS.ReadFile("testdata/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %q: %w", name, err)
	}

	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %q: %w", name, err)
	}

	if fx.Name == "" {
		return nil, fmt.Errorf("fixture %q: name is required", name)
	}
	return &fx, nil
}

// MustLoadFixture is LoadFixture for tests.
func MustLoadFixture(t testing.TB, name string) *Fixture {
	t.Helper()
	fx, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("LoadFixture() failed: %v", err)
	}
	return fx
}

// Apply creates the fixture's schema and rows through db.
func (fx *Fixture) Apply(ctx context.Context, db Execer) error {
	for _, t := range tableDDL {
		if slices.Contains(fx.OmitTables, t.table) {
			continue
		}
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.table, err)
		}
	}

	for _, et := range fx.EdgeTypes {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO edge_types (id, name) VALUES (?, ?)`, et.ID, et.Name); err != nil {
			return fmt.Errorf("insert edge type %d: %w", et.ID, err)
		}
	}

	for _, c := range fx.Cards {
		w, h := c.W, c.H
		if w < minCardSize {
			w = minCardSize
		}
		if h < minCardSize {
			h = minCardSize
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO cards (id, xpos, ypos, width, height, title, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.X, c.Y, w, h, c.Title, c.Text); err != nil {
			return fmt.Errorf("insert card %d: %w", c.ID, err)
		}
	}

	for _, e := range fx.Edges {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO edges (id, origin_id, dest_id, type_id) VALUES (?, ?, ?, ?)`,
			e.ID, e.Origin, e.Dest, e.Type); err != nil {
			return fmt.Errorf("insert edge %d: %w", e.ID, err)
		}
	}

	for _, kv := range fx.Config {
		var value any = kv.Value
		if kv.Null {
			value = nil
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO config (key, value) VALUES (?, ?)`, kv.Key, value); err != nil {
			return fmt.Errorf("insert config %q: %w", kv.Key, err)
		}
	}

	return nil
}

// WriteFixtureDB materializes the named fixture into a new SQLite file under
// t.TempDir() and returns its path.
func WriteFixtureDB(t testing.TB, name string) string {
	t.Helper()

	fx := MustLoadFixture(t, name)
	path := filepath.Join(t.TempDir(), fx.Name+".gp")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	defer db.Close()

	if err := fx.Apply(context.Background(), db); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	return path
}
