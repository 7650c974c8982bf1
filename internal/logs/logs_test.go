package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/AnshRaj112/mindnest-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{Environment: "production", LogLevel: "info"})

	logger.Debug("hidden")
	logger.Info("booked", slog.String("slot", "10:00"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booked", line["msg"])
	assert.Equal(t, "10:00", line["slot"])
}

func TestDevelopmentLogsText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{Environment: "development", LogLevel: "debug"})

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
