package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/registry"
)

func TestRegisterAndGet(t *testing.T) {
	r := registry.New()

	entry, err := r.Register("component", "cache", 42, registry.RegisterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "cache", entry.Name)

	v, err := r.Get("cache", "component")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRegisterDuplicateFailsWithoutReplace(t *testing.T) {
	r := registry.New()

	_, err := r.Register("component", "cache", 1, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = r.Register("component", "cache", 2, registry.RegisterOptions{})
	require.Error(t, err)

	v, _ := r.Get("cache", "component")
	assert.Equal(t, 1, v, "failed registration must leave state unchanged")
}

func TestRegisterReplaceOverwrites(t *testing.T) {
	r := registry.New()

	_, err := r.Register("component", "cache", 1, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = r.Register("component", "cache", 2, registry.RegisterOptions{Replace: true})
	require.NoError(t, err)

	v, _ := r.Get("cache", "component")
	assert.Equal(t, 2, v)
}

func TestAliasCannotCollideWithPrimaryName(t *testing.T) {
	r := registry.New()

	_, err := r.Register("component", "cache", 1, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = r.Register("component", "db", 2, registry.RegisterOptions{Aliases: []string{"cache"}})
	assert.Error(t, err)
}

func TestAliasResolves(t *testing.T) {
	r := registry.New()

	_, err := r.Register("component", "cache", 1, registry.RegisterOptions{Aliases: []string{"redis"}})
	require.NoError(t, err)

	v, err := r.Get("redis", "component")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestGetWithoutDimensionIsAmbiguousOnMultipleHits(t *testing.T) {
	r := registry.New()
	_, err := r.Register("component", "x", 1, registry.RegisterOptions{})
	require.NoError(t, err)
	_, err = r.Register("command", "x", 2, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = r.Get("x", "")
	assert.Error(t, err)
}

func TestGetWithoutDimensionResolvesUniqueName(t *testing.T) {
	r := registry.New()
	_, err := r.Register("component", "unique", 1, registry.RegisterOptions{})
	require.NoError(t, err)

	v, err := r.Get("unique", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := registry.New()
	r.Remove("missing", "component")
	r.Remove("missing", "component")

	_, err := r.Register("component", "cache", 1, registry.RegisterOptions{})
	require.NoError(t, err)
	r.Remove("cache", "component")
	r.Remove("cache", "component")

	v, _ := r.Get("cache", "component")
	assert.Nil(t, v)
}

func TestClearDimensionVsAll(t *testing.T) {
	r := registry.New()
	_, _ = r.Register("component", "a", 1, registry.RegisterOptions{})
	_, _ = r.Register("command", "b", 2, registry.RegisterOptions{})

	r.Clear("component")
	assert.Empty(t, r.ListDimension("component"))
	assert.NotEmpty(t, r.ListDimension("command"))

	r.Clear("")
	assert.Empty(t, r.ListDimension("command"))
}

func TestListDimensionPreservesInsertionOrder(t *testing.T) {
	r := registry.New()
	for _, name := range []string{"c", "a", "b"} {
		_, err := r.Register("component", name, name, registry.RegisterOptions{})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"c", "a", "b"}, r.ListDimension("component"))
}

func TestSnapshotYieldsEachEntryExactlyOnce(t *testing.T) {
	r := registry.New()
	_, _ = r.Register("component", "a", 1, registry.RegisterOptions{})
	_, _ = r.Register("component", "b", 2, registry.RegisterOptions{})
	_, _ = r.Register("command", "c", 3, registry.RegisterOptions{})

	entries := r.Snapshot()
	assert.Len(t, entries, 3)

	seen := make(map[string]bool)
	for _, e := range entries {
		key := e.Dimension + "/" + e.Name
		assert.False(t, seen[key], "duplicate entry in snapshot: %s", key)
		seen[key] = true
	}
}

func TestRegisterFailureLeavesNoPartialState(t *testing.T) {
	r := registry.New()
	_, err := r.Register("component", "cache", 1, registry.RegisterOptions{Aliases: []string{"existing"}})
	require.NoError(t, err)

	_, err = r.Register("component", "other", 2, registry.RegisterOptions{Aliases: []string{"existing"}})
	require.Error(t, err)

	_, err = r.Get("other", "component")
	require.NoError(t, err)
	v, _ := r.Get("other", "component")
	assert.Nil(t, v, "the failed registration must not have created a partial entry")
}
