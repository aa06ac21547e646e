package console_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/console"
)

func TestPrintPlain(t *testing.T) {
	buf := &bytes.Buffer{}
	w := console.NewWriter(buf)

	w.Print("hello %s", "world")
	assert.Equal(t, "hello world\n", buf.String())
}

func TestPrintJSONMode(t *testing.T) {
	buf := &bytes.Buffer{}
	w := console.NewWriter(buf)
	w.SetJSONMode(true)

	w.Print("hello")

	var record map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["message"])
}

func TestErrorJSONMode(t *testing.T) {
	buf := &bytes.Buffer{}
	w := console.NewWriter(buf)
	w.SetJSONMode(true)

	w.Error("bad thing")

	var record map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "bad thing", record["error"])
}

func TestColorDisabledForNonFileWriters(t *testing.T) {
	w := console.NewWriter(&bytes.Buffer{})
	assert.False(t, w.ColorEnabled())
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "plain", console.Colorize(console.Red, "plain", false))
	assert.Equal(t, console.Red+"loud"+console.Reset, console.Colorize(console.Red, "loud", true))
}
