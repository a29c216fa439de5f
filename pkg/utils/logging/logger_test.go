package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/vigia/pkg/utils/logging"
)

func TestParseLogLevel(t *testing.T) {
	gt.Equal(t, logging.ParseLogLevel("debug"), slog.LevelDebug)
	gt.Equal(t, logging.ParseLogLevel("WARNING"), slog.LevelWarn)
	gt.Equal(t, logging.ParseLogLevel("error"), slog.LevelError)
	gt.Equal(t, logging.ParseLogLevel(""), slog.LevelInfo)
	gt.Equal(t, logging.ParseLogLevel("verbose"), slog.LevelInfo)
}

func TestParseFormat(t *testing.T) {
	f, err := logging.ParseFormat("json")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatJSON)

	f, err = logging.ParseFormat("")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatAuto)

	_, err = logging.ParseFormat("xml")
	gt.Error(t, err)
}

func TestAutoFormatUsesJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithFormat(slog.LevelInfo, &buf, logging.FormatAuto)
	logger.Info("hello", "key", "value")

	var entry map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	gt.Equal(t, entry["msg"], any("hello"))
	gt.Equal(t, entry["key"], any("value"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithFormat(slog.LevelWarn, &buf, logging.FormatJSON)
	logger.Info("dropped")
	gt.Equal(t, buf.Len(), 0)
	logger.Warn("kept")
	gt.True(t, buf.Len() > 0)
}
