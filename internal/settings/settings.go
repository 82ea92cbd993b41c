// Package settings is a typed view over the well-known keys of a GraphPaper
// file's config table: viewport geometry and the file format version.
//
// Values are stored as strings. Load parses them, fills in defaults for
// absent keys and validates the result against an embedded CUE schema.
package settings

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/graphpaper/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Config keys.
const (
	KeyViewportX = "viewport_x"
	KeyViewportY = "viewport_y"
	KeyViewportW = "viewport_w"
	KeyViewportH = "viewport_h"
	KeyVersion   = "version"
)

// CurrentVersion is the file format version written by this package.
const CurrentVersion = "2"

// ErrInvalidSettings is wrapped by every parse or validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// ConfigStore is the part of *store.Store this package needs.
type ConfigStore interface {
	ConfigGet(ctx context.Context, key string) (string, error)
	ConfigSet(ctx context.Context, key, value string) error
}

// Settings holds the typed values of the well-known keys.
type Settings struct {
	ViewportX int64  `json:"viewport_x"`
	ViewportY int64  `json:"viewport_y"`
	ViewportW int64  `json:"viewport_w"`
	ViewportH int64  `json:"viewport_h"`
	Version   string `json:"version"`
}

// Defaults returns the settings of a freshly created file.
func Defaults() Settings {
	return Settings{
		ViewportX: 0,
		ViewportY: 0,
		ViewportW: 600,
		ViewportH: 400,
		Version:   CurrentVersion,
	}
}

// field ties a config key to its Settings member.
type field struct {
	key    string
	intPtr func(*Settings) *int64
	strPtr func(*Settings) *string
}

var fields = []field{
	{key: KeyViewportX, intPtr: func(s *Settings) *int64 { return &s.ViewportX }},
	{key: KeyViewportY, intPtr: func(s *Settings) *int64 { return &s.ViewportY }},
	{key: KeyViewportW, intPtr: func(s *Settings) *int64 { return &s.ViewportW }},
	{key: KeyViewportH, intPtr: func(s *Settings) *int64 { return &s.ViewportH }},
	{key: KeyVersion, strPtr: func(s *Settings) *string { return &s.Version }},
}

func (f field) format(s Settings) string {
	if f.intPtr != nil {
		return strconv.FormatInt(*f.intPtr(&s), 10)
	}
	return *f.strPtr(&s)
}

func (f field) parse(s *Settings, raw string) error {
	if f.intPtr != nil {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s = %q is not an integer", ErrInvalidSettings, f.key, raw)
		}
		*f.intPtr(s) = v
		return nil
	}
	*f.strPtr(s) = raw
	return nil
}

// Load reads the well-known keys, using Defaults for any that are absent,
// and validates the result.
func Load(ctx context.Context, cs ConfigStore) (Settings, error) {
	s := Defaults()
	for _, f := range fields {
		raw, err := cs.ConfigGet(ctx, f.key)
		if errors.Is(err, store.ErrKeyMissing) {
			continue
		}
		if err != nil {
			return Settings{}, fmt.Errorf("load %s: %w", f.key, err)
		}
		if err := f.parse(&s, raw); err != nil {
			return Settings{}, err
		}
	}

	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ApplyDefaults writes the default value of every well-known key that is
// absent from the file and returns how many keys were written.
func ApplyDefaults(ctx context.Context, cs ConfigStore) (int, error) {
	d := Defaults()
	written := 0
	for _, f := range fields {
		_, err := cs.ConfigGet(ctx, f.key)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrKeyMissing) {
			return written, fmt.Errorf("check %s: %w", f.key, err)
		}
		if err := cs.ConfigSet(ctx, f.key, f.format(d)); err != nil {
			return written, fmt.Errorf("default %s: %w", f.key, err)
		}
		written++
	}
	return written, nil
}

// Save validates s and writes every well-known key.
func Save(ctx context.Context, cs ConfigStore, s Settings) error {
	if err := Validate(s); err != nil {
		return err
	}
	for _, f := range fields {
		if err := cs.ConfigSet(ctx, f.key, f.format(s)); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// settingsSchema compiles the embedded schema once and returns #Settings.
var settingsSchema = sync.OnceValues(func() (cue.Value, error) {
	schema := cuecontext.New().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile settings schema: %w", err)
	}
	return schema.LookupPath(cue.ParsePath("#Settings")), nil
})

// schemaMu guards the shared cue.Context, which is not safe for concurrent use.
var schemaMu sync.Mutex

// Validate checks s against the #Settings schema.
func Validate(s Settings) error {
	def, err := settingsSchema()
	if err != nil {
		return err
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	val := def.Context().Encode(s)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}
