package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("production", &buf)

	l.Debug().Msg("hidden")
	l.Info().Str("campaign", "camp-reef").Msg("polled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "polled", entry["message"])
	assert.Equal(t, "camp-reef", entry["campaign"])
	assert.Equal(t, "kanyini", entry["app"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewWithWriter_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("development", &buf)

	l.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
