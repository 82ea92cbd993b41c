// Package snapshot captures a read-only summary of a GraphPaper file (card
// and edge counts plus every config entry) and encodes it as canonical JSON,
// so two files with the same content produce byte-identical output.
package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/natefinch/atomic"

	"github.com/roach88/graphpaper/internal/store"
)

// Source is the part of *store.Store a snapshot reads from.
type Source interface {
	CountCards(ctx context.Context) (int64, error)
	CountEdges(ctx context.Context) (int64, error)
	ConfigEntries(ctx context.Context) ([]store.ConfigEntry, error)
}

// Snapshot is the summary of one file.
type Snapshot struct {
	Cards  int64               `json:"cards"`
	Edges  int64               `json:"edges"`
	Config []store.ConfigEntry `json:"config"`
}

// Take reads counts and config entries from src.
func Take(ctx context.Context, src Source) (*Snapshot, error) {
	cards, err := src.CountCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("count cards: %w", err)
	}

	edges, err := src.CountEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}

	entries, err := src.ConfigEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("config entries: %w", err)
	}

	return &Snapshot{Cards: cards, Edges: edges, Config: entries}, nil
}

// toCanonicalMap converts the snapshot to the value shapes the canonical
// encoder accepts. Config stays a list: keys may repeat.
func (s *Snapshot) toCanonicalMap() map[string]any {
	config := make([]any, len(s.Config))
	for i, e := range s.Config {
		config[i] = map[string]any{
			"key":   e.Key,
			"value": e.Value,
		}
	}

	return map[string]any{
		"cards":  s.Cards,
		"edges":  s.Edges,
		"config": config,
	}
}

// MarshalCanonical encodes s as canonical JSON.
func MarshalCanonical(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	data, err := marshalCanonical(s.toCanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// WriteFile writes the canonical encoding of s to path, replacing any
// existing file atomically.
func WriteFile(path string, s *Snapshot) error {
	data, err := MarshalCanonical(s)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
