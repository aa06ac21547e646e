package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/config"
)

func appSchema() config.Schema {
	return config.Schema{
		{Name: "port", EnvVar: "APP_PORT", Default: 8000, Converter: config.IntConverter},
		{Name: "token", EnvVar: "APP_TOKEN", Default: "", Sensitive: true},
	}
}

func TestManagerGetBeforeLoadReturnsDefaults(t *testing.T) {
	m := config.NewManager()
	m.Register("app", appSchema(), func() (*config.Snapshot, error) {
		return config.Load(appSchema(), fakeEnv(nil))
	})

	snap, err := m.Get("app")
	require.NoError(t, err)
	assert.Equal(t, 8000, snap.GetInt("port"))
}

func TestManagerUpdateProducesNewSnapshotAndNotifies(t *testing.T) {
	m := config.NewManager()
	m.Register("app", appSchema(), nil)

	before, err := m.Get("app")
	require.NoError(t, err)

	var gotChanged map[string]bool
	require.NoError(t, m.Subscribe("app", func(old, new *config.Snapshot, changed map[string]bool) {
		gotChanged = changed
	}))

	require.NoError(t, m.Update("app", map[string]any{"port": 9090}))

	after, err := m.Get("app")
	require.NoError(t, err)
	assert.Equal(t, 9090, after.GetInt("port"))
	assert.Equal(t, config.SourceRuntime, after.Source("port"))
	assert.True(t, gotChanged["port"])

	// The old snapshot is untouched.
	assert.Equal(t, 8000, before.GetInt("port"))
}

func TestManagerResetRestoresDefaults(t *testing.T) {
	m := config.NewManager()
	m.Register("app", appSchema(), nil)
	require.NoError(t, m.Update("app", map[string]any{"port": 9090}))

	require.NoError(t, m.Reset("app"))

	snap, err := m.Get("app")
	require.NoError(t, err)
	assert.Equal(t, 8000, snap.GetInt("port"))
	assert.Equal(t, config.SourceDefault, snap.Source("port"))
}

func TestManagerExportOmitsSensitive(t *testing.T) {
	m := config.NewManager()
	m.Register("app", appSchema(), nil)
	require.NoError(t, m.Update("app", map[string]any{"token": "hunter2"}))

	exported, err := m.Export("app", false)
	require.NoError(t, err)
	_, present := exported["token"]
	assert.False(t, present)

	withSensitive, err := m.Export("app", true)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", withSensitive["token"])
}

func TestManagerExportReimportRoundTrip(t *testing.T) {
	m := config.NewManager()
	m.Register("app", appSchema(), nil)
	require.NoError(t, m.Update("app", map[string]any{"port": 9191}))

	exported, err := m.Export("app", true)
	require.NoError(t, err)

	m2 := config.NewManager()
	m2.Register("app", appSchema(), nil)
	require.NoError(t, m2.Update("app", exported))

	snap, err := m2.Get("app")
	require.NoError(t, err)
	assert.Equal(t, 9191, snap.GetInt("port"))
	assert.Equal(t, config.SourceRuntime, snap.Source("port"))
}

func TestManagerUnknownNameFails(t *testing.T) {
	m := config.NewManager()
	_, err := m.Get("nope")
	assert.Error(t, err)
}
