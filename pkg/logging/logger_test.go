/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for the logging system. Covers configuration validation, the three
output formats, file output and the pipeline-specific helpers.
*/

package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/fuzz-report/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerCreation tests logger creation with default and custom configurations
func TestLoggerCreation(t *testing.T) {
	logger, err := logging.NewLogger(nil, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, logrus.InfoLevel, logger.GetLogger().GetLevel())
	assert.NoError(t, logger.Close())

	logger, err = logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelDebug,
		Format: logging.LogFormatJSON,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLogger().GetLevel())
	assert.NoError(t, logger.Close())
}

// TestLoggerConfigValidate tests rejection of unknown levels and formats
func TestLoggerConfigValidate(t *testing.T) {
	_, err := logging.NewLogger(&logging.LoggerConfig{Level: "loud", Format: logging.LogFormatText}, nil)
	assert.Error(t, err)

	_, err = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "xml"}, nil)
	assert.Error(t, err)
}

// TestLogFormats tests that every format writes the message and fields
func TestLogFormats(t *testing.T) {
	formats := []logging.LogFormat{
		logging.LogFormatText,
		logging.LogFormatJSON,
		logging.LogFormatCustom,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := logging.NewLogger(&logging.LoggerConfig{
				Level:  logging.LogLevelInfo,
				Format: format,
			}, &buf)
			require.NoError(t, err)
			defer logger.Close()

			logger.LogStep("coverage", map[string]interface{}{"coverage": "80.00%"})

			out := buf.String()
			assert.Contains(t, out, "Pipeline step completed")
			assert.Contains(t, out, "80.00%")
		})
	}
}

// TestJSONFormatFields tests the JSON output carries the step field
func TestJSONFormatFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelInfo,
		Format: logging.LogFormatJSON,
	}, &buf)
	require.NoError(t, err)

	logger.LogStep("stats", map[string]interface{}{"cores": 4})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stats", entry["step"])
	assert.Equal(t, float64(4), entry["cores"])
	assert.Equal(t, "info", entry["level"])
}

// TestLogSend tests success and failure lines of the mail step
func TestLogSend(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LogLevelInfo,
		Format: logging.LogFormatCustom,
	}, &buf)
	require.NoError(t, err)

	logger.LogSend("0100018b-abcd", 2, nil)
	logger.LogSend("", 2, errors.New("Email address is not verified."))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO Email sent")
	assert.Contains(t, lines[0], "message_id=0100018b-abcd")
	assert.Contains(t, lines[1], "ERROR Email not sent")
	assert.Contains(t, lines[1], `error="Email address is not verified."`)
}

// TestFileOutput tests the log is teed into a timestamped file
func TestFileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatText,
		OutputDir: dir,
	}, &buf)
	require.NoError(t, err)

	logger.LogStep("metadata", nil)
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "fuzz-report_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "step=metadata")
	assert.Contains(t, buf.String(), "step=metadata")
}

// TestCustomFormatter tests the custom formatter layout without colors
func TestCustomFormatter(t *testing.T) {
	formatter := &logging.CustomFormatter{Timestamp: false, Colors: false}
	entry := &logrus.Entry{
		Time:    time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "Pipeline step completed",
		Data: logrus.Fields{
			"step":     "assemble",
			"fields":   17,
			"task_dir": "/srv/fuzz task",
			"elapsed":  1500 * time.Millisecond,
		},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)
	assert.Equal(t,
		"INFO [ASSEMBLE] Pipeline step completed elapsed=1.5s fields=17 task_dir=\"/srv/fuzz task\"\n",
		string(out))
}
