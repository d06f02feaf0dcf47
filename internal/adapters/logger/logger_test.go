package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestLogger_Pretty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	l.Info("expanded 3 jobs")
	l.Warn("cache save failed")

	out := buf.String()
	assert.Contains(t, out, "expanded 3 jobs\n")
	assert.Contains(t, out, "! cache save failed\n")
}

func TestLogger_ErrorChain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	inner := zerr.With(zerr.New("exit status 1"), "exit_code", 1)
	l.Error(zerr.With(zerr.Wrap(inner, "step failed"), "step", "Run tests"))

	out := buf.String()
	assert.Contains(t, out, "Error: step failed")
	assert.Contains(t, out, "step: Run tests")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ exit status 1")
	assert.Contains(t, out, "exit_code: 1")
}

func TestLogger_ErrorNil(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	l.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)
	l.SetJSON(true)

	l.Info("run finished")
	l.Error(errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "run finished", first["msg"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "boom", second["error"])
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "three entries",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "metadata sorted",
			entries: []logger.ErrorEntry{{
				Message:  "error",
				Metadata: map[string]any{"job": "3.9, ubuntu-latest", "axis": "os"},
			}},
			want: "Error: error\n       axis: os\n       job: 3.9, ubuntu-latest",
		},
		{
			name:    "multiline cause",
			entries: []logger.ErrorEntry{{Message: "main"}, {Message: "cause line1\ncause line2"}},
			want:    "Error: main\n\n  Caused by:\n    → cause line1\n      cause line2",
		},
		{
			name:    "empty",
			entries: []logger.ErrorEntry{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntriesExported(tt.entries))
		})
	}
}

func TestCollectErrorEntries(t *testing.T) {
	err := zerr.Wrap(zerr.Wrap(errors.New("root cause"), "middle layer"), "outer layer")

	entries := logger.CollectErrorEntriesExported(err)
	require.Len(t, entries, 3)
	assert.Equal(t, "outer layer", entries[0].Message)
	assert.Equal(t, "middle layer", entries[1].Message)
	assert.Equal(t, "root cause", entries[2].Message)
	assert.Nil(t, entries[2].Metadata)

	assert.Empty(t, logger.CollectErrorEntriesExported(nil))
}
