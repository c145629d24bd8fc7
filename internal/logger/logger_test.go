package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", &buf)

	log.Info().Int64("account_id", 7).Msg("signed in")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "signed in", entry["message"])
	assert.Equal(t, "auth-service", entry["service"])
	assert.Equal(t, float64(7), entry["account_id"])
	assert.Contains(t, entry, "time")
}

func TestNew_ProductionSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", &buf)

	log.Debug().Msg("noise")

	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("development", &buf)

	log.Debug().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}
