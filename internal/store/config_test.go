package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigGet_Found(t *testing.T) {
	s := openFixtureStore(t, "sample")

	value, err := s.ConfigGet(context.Background(), "color")
	require.NoError(t, err)
	assert.Equal(t, "blue", value)
}

func TestConfigGet_Missing(t *testing.T) {
	s := openFixtureStore(t, "sample")

	value, err := s.ConfigGet(context.Background(), "ohnoyoudint")
	require.ErrorIs(t, err, ErrKeyMissing)
	assert.Empty(t, value)
	assert.False(t, IsFailure(err), "missing key must not be a failure")
}

func TestConfigGet_NullValueIsMissing(t *testing.T) {
	s := openFixtureStore(t, "null_value")

	value, err := s.ConfigGet(context.Background(), "cleared")
	require.ErrorIs(t, err, ErrKeyMissing)
	assert.Empty(t, value)
}

func TestConfigGet_FirstRowWins(t *testing.T) {
	s := openFixtureStore(t, "sample")

	value, err := s.ConfigGet(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
}

func TestConfigGet_MissingAfterFound(t *testing.T) {
	s := openFixtureStore(t, "sample")
	ctx := context.Background()

	value, err := s.ConfigGet(ctx, "color")
	require.NoError(t, err)
	require.Equal(t, "blue", value)

	// Nothing captured by the previous call may leak into this one.
	value, err = s.ConfigGet(ctx, "ohnoyoudint")
	require.ErrorIs(t, err, ErrKeyMissing)
	assert.Empty(t, value)
}

func TestConfigGet_SiblingStatementsUnaffected(t *testing.T) {
	s := openFixtureStore(t, "sample")
	ctx := context.Background()

	for _, key := range []string{"color", "ohnoyoudint", "theme"} {
		_, _ = s.ConfigGet(ctx, key)

		n, err := s.CountCards(ctx)
		require.NoError(t, err, "after ConfigGet(%q)", key)
		assert.Equal(t, int64(6), n, "after ConfigGet(%q)", key)
	}
}

func TestConfigGet_KeyBufferNotRetained(t *testing.T) {
	s := openFixtureStore(t, "sample")
	ctx := context.Background()

	buf := []byte("color")
	value, err := s.ConfigGet(ctx, string(buf))
	require.NoError(t, err)
	copy(buf, "xxxxx")

	assert.Equal(t, "blue", value)
	value, err = s.ConfigGet(ctx, "color")
	require.NoError(t, err)
	assert.Equal(t, "blue", value)
}

func TestConfigGet_CanceledContext(t *testing.T) {
	s := openFixtureStore(t, "sample")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	value, err := s.ConfigGet(ctx, "color")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrKeyMissing))
	assert.True(t, IsKind(err, ExecutionFailure))
	assert.Empty(t, value)
}

func TestConfigSet_InsertAndReplace(t *testing.T) {
	s := openFixtureStore(t, "sample")
	ctx := context.Background()

	require.NoError(t, s.ConfigSet(ctx, "font", "mono"))
	value, err := s.ConfigGet(ctx, "font")
	require.NoError(t, err)
	assert.Equal(t, "mono", value)

	require.NoError(t, s.ConfigSet(ctx, "color", "red"))
	value, err = s.ConfigGet(ctx, "color")
	require.NoError(t, err)
	assert.Equal(t, "red", value)
}

func TestConfigSet_CollapsesDuplicates(t *testing.T) {
	s := openFixtureStore(t, "sample")
	ctx := context.Background()

	require.NoError(t, s.ConfigSet(ctx, "theme", "solarized"))

	entries, err := s.ConfigEntries(ctx)
	require.NoError(t, err)

	var themes []string
	for _, e := range entries {
		if e.Key == "theme" {
			themes = append(themes, e.Value)
		}
	}
	assert.Equal(t, []string{"solarized"}, themes)
}

func TestConfigSet_PersistsAcrossHandles(t *testing.T) {
	path := openFixtureStore(t, "sample").Path()
	ctx := context.Background()

	s1 := openTestStore(t, path)
	require.NoError(t, s1.ConfigSet(ctx, "color", "green"))
	require.NoError(t, s1.Close())

	s2 := openTestStore(t, path)
	value, err := s2.ConfigGet(ctx, "color")
	require.NoError(t, err)
	assert.Equal(t, "green", value)
}

func TestConfigEntries_Sorted(t *testing.T) {
	s := openFixtureStore(t, "sample")

	entries, err := s.ConfigEntries(context.Background())
	require.NoError(t, err)

	want := []ConfigEntry{
		{Key: "color", Value: "blue"},
		{Key: "theme", Value: "dark"},
		{Key: "theme", Value: "light"},
		{Key: "version", Value: "2"},
		{Key: "viewport_w", Value: "800"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ConfigEntries() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigEntries_EmptyNotNil(t *testing.T) {
	s := openFixtureStore(t, "empty")

	entries, err := s.ConfigEntries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestConfigEntries_SkipsNullValues(t *testing.T) {
	s := openFixtureStore(t, "null_value")

	entries, err := s.ConfigEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ConfigEntry{{Key: "color", Value: "blue"}}, entries)
}
