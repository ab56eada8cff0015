package training

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopHooks(t *testing.T) {
	var sink Sink = NopSink{}
	var progress Progress = NopProgress{}

	assert.NotPanics(t, func() {
		sink.Scalar(MetricWinRate, 0.5, 10)
		progress.Status(1, 2, "halfway")
	})
}

func TestLogProgressCadence(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogProgress(zerolog.New(&buf), 10)

	for step := 1; step <= 25; step++ {
		p.Status(step, 25, "episode")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "steps 10, 20 and the final step 25")

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, float64(25), last["step"])
	assert.Equal(t, "progress", last["component"])
	assert.Equal(t, "episode", last["message"])
}

func TestLogProgressNonPositiveEvery(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogProgress(zerolog.New(&buf), 0)
	p.Status(1, 3, "a")
	p.Status(2, 3, "b")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}
