package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/config"
)

func fakeEnv(values map[string]string) config.EnvLookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	schema := config.Schema{
		{Name: "port", EnvVar: "APP_PORT", Default: 8000, Converter: config.IntConverter},
	}

	snap, err := config.Load(schema, fakeEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, 8000, snap.GetInt("port"))
	assert.Equal(t, config.SourceDefault, snap.Source("port"))
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	schema := config.Schema{
		{Name: "port", EnvVar: "APP_PORT", Default: 8000, Converter: config.IntConverter},
	}

	snap, err := config.Load(schema, fakeEnv(map[string]string{"APP_PORT": "7000"}))
	require.NoError(t, err)
	assert.Equal(t, 7000, snap.GetInt("port"))
	assert.Equal(t, config.SourceEnv, snap.Source("port"))
}

func TestLoadConverterFailureIsFatal(t *testing.T) {
	schema := config.Schema{
		{Name: "port", EnvVar: "APP_PORT", Default: 8000, Converter: config.IntConverter},
	}

	_, err := config.Load(schema, fakeEnv(map[string]string{"APP_PORT": "not-a-number"}))
	assert.Error(t, err)
}

func TestSecretFileIndirection(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(secretPath, []byte("  s3cret\n"), 0o600))

	schema := config.Schema{
		{Name: "token", EnvVar: "APP_TOKEN", Default: ""},
	}

	snap, err := config.Load(schema, fakeEnv(map[string]string{"APP_TOKEN": "file://" + secretPath}))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", snap.GetString("token"), "secret content must be trimmed")
}

func TestSecretFileIndirectionOneLevelRecursion(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner")
	outer := filepath.Join(dir, "outer")
	require.NoError(t, os.WriteFile(inner, []byte("deep"), 0o600))
	require.NoError(t, os.WriteFile(outer, []byte("file://"+inner), 0o600))

	schema := config.Schema{{Name: "token", EnvVar: "APP_TOKEN", Default: ""}}

	snap, err := config.Load(schema, fakeEnv(map[string]string{"APP_TOKEN": "file://" + outer}))
	require.NoError(t, err)
	assert.Equal(t, "deep", snap.GetString("token"))
}

func TestMissingSecretFileUsesDefaultWhenNotRequired(t *testing.T) {
	schema := config.Schema{
		{Name: "token", EnvVar: "APP_TOKEN", Default: "fallback"},
	}

	snap, err := config.Load(schema, fakeEnv(map[string]string{"APP_TOKEN": "file:///no/such/path"}))
	require.NoError(t, err)
	assert.Equal(t, "fallback", snap.GetString("token"))
	assert.Equal(t, config.SourceDefault, snap.Source("token"))
}

func TestRequiredFieldWithoutValueFails(t *testing.T) {
	schema := config.Schema{
		{Name: "token", EnvVar: "APP_TOKEN", Default: config.NoDefault},
	}

	_, err := config.Load(schema, fakeEnv(nil))
	assert.Error(t, err)

	snap, err := config.Load(schema, fakeEnv(map[string]string{"APP_TOKEN": "present"}))
	require.NoError(t, err)
	assert.Equal(t, "present", snap.GetString("token"))
}

func TestMissingSecretFileFatalWhenRequired(t *testing.T) {
	schema := config.Schema{
		{Name: "token", EnvVar: "APP_TOKEN", Default: config.NoDefault},
	}

	_, err := config.Load(schema, fakeEnv(map[string]string{"APP_TOKEN": "file:///no/such/path"}))
	assert.Error(t, err)
}

func TestLoadAsyncResolvesSecretsInParallel(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("v-"+name), 0o600))
	}

	schema := config.Schema{
		{Name: "a", EnvVar: "SECRET_A", Default: ""},
		{Name: "b", EnvVar: "SECRET_B", Default: ""},
		{Name: "c", EnvVar: "SECRET_C", Default: ""},
	}

	snap, err := config.LoadAsync(schema, fakeEnv(map[string]string{
		"SECRET_A": "file://" + filepath.Join(dir, "a"),
		"SECRET_B": "file://" + filepath.Join(dir, "b"),
		"SECRET_C": "file://" + filepath.Join(dir, "c"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "v-a", snap.GetString("a"))
	assert.Equal(t, "v-b", snap.GetString("b"))
	assert.Equal(t, "v-c", snap.GetString("c"))
}

func TestSourcePrecedenceDefaultFileEnv(t *testing.T) {
	schema := config.Schema{
		{Name: "port", EnvVar: "PROVIDE_PORT", Default: 8000, Converter: config.IntConverter},
	}

	loader := config.MultiSourceLoader{Sources: []config.SourceLoader{
		config.DictLoader{Values: map[string]string{"port": "9000"}, SourceTag: config.SourceFile},
		config.EnvSourceLoader{Lookup: fakeEnv(map[string]string{"PROVIDE_PORT": "7000"})},
	}}

	snap, err := loader.Load(schema)
	require.NoError(t, err)
	assert.Equal(t, 7000, snap.GetInt("port"))
	assert.Equal(t, config.SourceEnv, snap.Source("port"))
}

func TestMultiSourceLowerPrioritySourceCannotOverride(t *testing.T) {
	schema := config.Schema{
		{Name: "port", EnvVar: "PROVIDE_PORT", Default: 8000, Converter: config.IntConverter},
	}

	// Env listed first, file second: the file's lower precedence loses
	// even though it loads later.
	loader := config.MultiSourceLoader{Sources: []config.SourceLoader{
		config.EnvSourceLoader{Lookup: fakeEnv(map[string]string{"PROVIDE_PORT": "7000"})},
		config.DictLoader{Values: map[string]string{"port": "9000"}, SourceTag: config.SourceFile},
	}}

	snap, err := loader.Load(schema)
	require.NoError(t, err)
	assert.Equal(t, 7000, snap.GetInt("port"))
	assert.Equal(t, config.SourceEnv, snap.Source("port"))
}

func TestChainedLoaderFallsBackToFirstSuccess(t *testing.T) {
	schema := config.Schema{
		{Name: "port", EnvVar: "PROVIDE_PORT", Default: 8000, Converter: config.IntConverter},
	}

	loader := config.ChainedLoader{Sources: []config.SourceLoader{
		config.FileSourceLoader{Path: "/no/such/file.yaml"},
		config.DictLoader{Values: map[string]string{"port": "9000"}, SourceTag: config.SourceFile},
	}}

	snap, err := loader.Load(schema)
	require.NoError(t, err)
	assert.Equal(t, 9000, snap.GetInt("port"))
}

func TestValidatorRejectsValue(t *testing.T) {
	min := 1.0
	schema := config.Schema{
		{Name: "workers", EnvVar: "APP_WORKERS", Default: 4, Converter: config.IntConverter, MinValue: &min},
	}

	_, err := config.Load(schema, fakeEnv(map[string]string{"APP_WORKERS": "0"}))
	assert.Error(t, err)
}

func TestChoicesEnforced(t *testing.T) {
	schema := config.Schema{
		{Name: "mode", EnvVar: "APP_MODE", Default: "fast", Choices: []string{"fast", "safe"}},
	}

	_, err := config.Load(schema, fakeEnv(map[string]string{"APP_MODE": "yolo"}))
	assert.Error(t, err)
}
