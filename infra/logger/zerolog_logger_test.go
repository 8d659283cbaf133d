package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("scheduler", Options{Format: "json", Output: &buf})
	l.Infow("placed", map[string]any{"line_id": 3})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler", entry["component"])
	assert.Equal(t, "placed", entry["message"])
	assert.EqualValues(t, 3, entry["line_id"])
}

func TestZerologLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("staffing", Options{Output: &buf})
	l.Warnf("dropped %d tasks", 2)
	if !strings.Contains(buf.String(), "dropped 2 tasks") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
