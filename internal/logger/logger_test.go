package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "error", Production: true, Output: &buf})

	L().Error().Err(errors.New("boom")).Msg("an error occurred")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "an error occurred", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, serviceName, entry["service"])
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Production: false, Output: &buf})

	L().Info().Msg("this should be ignored")
	L().Warn().Msg("this should appear")

	out := buf.String()
	assert.NotContains(t, out, "this should be ignored")
	assert.Contains(t, out, "this should appear")
}

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Production: true, Output: &buf})

	log := Component("fanout")
	log.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fanout", entry["component"])
}
