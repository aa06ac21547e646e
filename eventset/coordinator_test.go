package eventset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/foundation-go/eventset"
)

func TestEnrichExactMatch(t *testing.T) {
	c := eventset.NewCoordinator([]string{"http"})

	event := map[string]any{"http_method": "GET"}
	c.Enrich(event)

	assert.Equal(t, "📥", event[eventset.EmojiKey])
	assert.Equal(t, "GET", event[eventset.LabelKey])
}

func TestEnrichPrefixWildcard(t *testing.T) {
	c := eventset.NewCoordinator([]string{"http"})

	event := map[string]any{"http_status": 503}
	c.Enrich(event)

	assert.Equal(t, "🔥", event[eventset.EmojiKey])
	assert.Equal(t, "server error", event[eventset.LabelKey])
}

func TestEnrichConcatenatesAcrossRules(t *testing.T) {
	c := eventset.NewCoordinator([]string{"http"})

	event := map[string]any{"http_method": "GET", "http_status": 200}
	c.Enrich(event)

	assert.Equal(t, "📥✅", event[eventset.EmojiKey])
	assert.Equal(t, "GET | ok", event[eventset.LabelKey])
}

func TestEnrichExtraFieldsOnlyWhenAbsent(t *testing.T) {
	c := eventset.NewCoordinator([]string{"database"})

	event := map[string]any{"db_error": "timeout", "outcome": "already-set"}
	c.Enrich(event)

	assert.Equal(t, "already-set", event["outcome"], "existing fields must not be overwritten")

	fresh := map[string]any{"db_error": "timeout"}
	c.Enrich(fresh)
	assert.Equal(t, "failure", fresh["outcome"])
}

func TestRegisteredSetOverridesBuiltinByName(t *testing.T) {
	c := eventset.NewCoordinator([]string{"http"})
	c.RegisterSet(eventset.Set{
		Name: "http",
		Rules: []eventset.Rule{
			{FieldName: "http_method", ValuePattern: "GET", Emoji: "🙂", Label: "get"},
		},
	})

	event := map[string]any{"http_method": "GET"}
	c.Enrich(event)

	assert.Equal(t, "🙂", event[eventset.EmojiKey])
}

func TestDisabledSetDoesNotApply(t *testing.T) {
	c := eventset.NewCoordinator(nil)

	event := map[string]any{"http_method": "GET"}
	c.Enrich(event)

	_, present := event[eventset.EmojiKey]
	assert.False(t, present)
}

func TestEnrichSkippedDuringReset(t *testing.T) {
	c := eventset.NewCoordinator([]string{"http"})

	eventset.EnterReset()
	defer eventset.ExitReset()

	event := map[string]any{"http_method": "GET"}
	c.Enrich(event)

	_, present := event[eventset.EmojiKey]
	assert.False(t, present)
}

func TestResetInvalidatesCacheThenReinitializes(t *testing.T) {
	c := eventset.NewCoordinator([]string{"http"})

	event := map[string]any{"http_method": "GET"}
	c.Enrich(event)
	require.Equal(t, "📥", event[eventset.EmojiKey])

	c.Reset()

	again := map[string]any{"http_method": "POST"}
	c.Enrich(again)
	assert.Equal(t, "📤", again[eventset.EmojiKey])
}

func TestParseSets(t *testing.T) {
	doc := []byte(`
- name: custom
  rules:
    - field: queue
      pattern: "*"
      emoji: "📦"
      label: queued
      extra_fields:
        subsystem: queueing
`)
	sets, err := eventset.ParseSets(doc)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "custom", sets[0].Name)
	require.Len(t, sets[0].Rules, 1)
	assert.Equal(t, "queue", sets[0].Rules[0].FieldName)
	assert.Equal(t, map[string]any{"subsystem": "queueing"}, sets[0].Rules[0].ExtraFields)
}

func TestParseSetsRejectsMissingName(t *testing.T) {
	_, err := eventset.ParseSets([]byte("- rules: []\n"))
	assert.Error(t, err)
}
