package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "production", "debug")

	logger.Info().Str("image_id", "abc.png").Msg("uploaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "media", line["service"])
	assert.Equal(t, "abc.png", line["image_id"])
	assert.Equal(t, "uploaded", line["message"])
}

func TestLevelParsing(t *testing.T) {
	var buf bytes.Buffer

	logger := newWithWriter(&buf, "production", "warn")
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = newWithWriter(&buf, "production", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = newWithWriter(&buf, "production", "")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestDevelopmentIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "development", "info")

	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}
