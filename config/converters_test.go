package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/config"
)

func TestBoolConverterWords(t *testing.T) {
	for _, raw := range []string{"true", "YES", "On", "1"} {
		v, err := config.BoolConverter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, true, v, raw)
	}
	for _, raw := range []string{"false", "No", "OFF", "0"} {
		v, err := config.BoolConverter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, false, v, raw)
	}
	_, err := config.BoolConverter("maybe")
	assert.Error(t, err)
}

func TestLogLevelConverterCaseInsensitive(t *testing.T) {
	v, err := config.LogLevelConverter("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", v)

	_, err = config.LogLevelConverter("loud")
	assert.Error(t, err)
}

func TestModuleLevelsConverter(t *testing.T) {
	v, err := config.ModuleLevelsConverter("app.db:DEBUG, app.http:error")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"app.db": "DEBUG", "app.http": "ERROR"}, v)

	_, err = config.ModuleLevelsConverter("app.db")
	assert.Error(t, err)
}

func TestRateLimitsConverter(t *testing.T) {
	v, err := config.RateLimitsConverter("app:1.5:10,worker:2:5")
	require.NoError(t, err)
	limits := v.(map[string]config.RateLimit)
	assert.Equal(t, config.RateLimit{RatePerSecond: 1.5, Capacity: 10}, limits["app"])
	assert.Equal(t, config.RateLimit{RatePerSecond: 2, Capacity: 5}, limits["worker"])

	_, err = config.RateLimitsConverter("app:fast:10")
	assert.Error(t, err)
}

func TestCommaSeparatedListConverter(t *testing.T) {
	v, err := config.CommaSeparatedListConverter(" http, database ,, task ")
	require.NoError(t, err)
	assert.Equal(t, []string{"http", "database", "task"}, v)
}

func TestFloatInRange(t *testing.T) {
	conv := config.FloatInRange(0, 1)

	v, err := conv("0.25")
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	_, err = conv("1.5")
	assert.Error(t, err)
}
