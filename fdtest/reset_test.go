package fdtest_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/config"
	"github.com/provide-io/foundation-go/eventset"
	"github.com/provide-io/foundation-go/fdtest"
	"github.com/provide-io/foundation-go/hub"
	"github.com/provide-io/foundation-go/logging"
)

func TestResetAllTearsDownInOrder(t *testing.T) {
	logCfg := &config.LoggingConfig{DefaultLevel: "INFO", ConsoleFormatter: "json"}
	telCfg := &config.TelemetryConfig{LoggingConfig: *logCfg, ServiceName: "reset-test", TraceSampleRate: 1.0}

	h := hub.Get()
	require.NoError(t, h.InitializeFoundation(logCfg, telCfg))
	_, err := h.AddComponent("v", "thing", "", nil)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	logging.SetLogStream(buf)
	logging.GetLogger("app").Info("before_reset")
	require.NotEmpty(t, buf.String())

	fdtest.ResetAll()

	// The logger is back to uninitialized and the stream is stderr again.
	assert.False(t, logging.Initialized())
	assert.False(t, eventset.InReset(), "the in-reset flag must be cleared at the end")

	// The process hub is fresh: previous registrations are gone.
	fresh := hub.Get()
	v, err := fresh.GetComponent("thing", hub.DimensionComponent)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.False(t, fresh.Initialized())
}

func TestResetAllIsIdempotent(t *testing.T) {
	fdtest.ResetAll()
	fdtest.ResetAll()

	assert.False(t, logging.Initialized())
	assert.False(t, eventset.InReset())
}
