package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("anything"))
}

func TestJSONOutputCarriesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	ctx := WithCorrelationID(context.Background(), "corr-123")
	log.InfoContext(ctx, "command handled", "action", "SIT")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "command handled", record["msg"])
	assert.Equal(t, "corr-123", record["correlation_id"])
	assert.Equal(t, "SIT", record["action"])
}

func TestNoCorrelationIDWithoutContextValue(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.InfoContext(context.Background(), "startup")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	_, present := record["correlation_id"]
	assert.False(t, present)
}

func TestWithCorrelationIDEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithCorrelationID(ctx, ""))
	assert.Empty(t, CorrelationID(ctx))
}

func TestNewCorrelationIDUnique(t *testing.T) {
	assert.NotEqual(t, NewCorrelationID(), NewCorrelationID())
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must not write anywhere visible.
	Nop().Info("ignored")
}
