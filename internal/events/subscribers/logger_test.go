package subscribers_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/events"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/events/subscribers"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())
	assert.True(t, logSub.InterestedIn(events.TypeMetricScalar))
	assert.True(t, logSub.InterestedIn(events.TypeProgressStatus))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name:  "MetricScalarEvent",
			event: events.NewMetricScalarEvent("run-1", "win_rate", 0.75, 100),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "win_rate", logLine["name"])
				assert.Equal(t, 0.75, logLine["value"])
				assert.Equal(t, float64(100), logLine["step"])
			},
		},
		{
			name:  "ProgressStatusEvent",
			event: events.NewProgressStatusEvent("run-1", 4, 10, "partition 12 converged"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(4), logLine["step"])
				assert.Equal(t, float64(10), logLine["total"])
				assert.Equal(t, "partition 12 converged", logLine["status"])
			},
		},
		{
			name:  "TableSavedEvent",
			event: events.NewTableSavedEvent("run-1", "policy", "/tmp/run/policy.bin"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "policy", logLine["kind"])
				assert.Equal(t, "/tmp/run/policy.bin", logLine["path"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logSub := subscribers.NewLoggerSubscriber("event-logger", zerolog.New(&buf), zerolog.InfoLevel)

			logSub.HandleEvent(tc.event)

			lines := decodeLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Equal(t, "Training event", lines[0]["message"])
			assert.Equal(t, "info", lines[0]["level"])
			assert.Equal(t, "run-1", lines[0]["run_id"])
			assert.Equal(t, tc.event.Type(), lines[0]["event_type"])
			tc.check(t, lines[0])
		})
	}
}

func TestLoggerSubscriberFilterAndDevMode(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("filtered", zerolog.New(&buf), zerolog.DebugLevel)
	logSub.SetEventFilter([]string{events.TypeTableSaved})
	logSub.SetDevMode(true)

	assert.False(t, logSub.InterestedIn(events.TypeMetricScalar))
	assert.True(t, logSub.InterestedIn(events.TypeTableSaved))

	bus := events.NewEventBus(zerolog.Nop())
	require.NoError(t, bus.Subscribe(logSub))
	bus.Publish(events.NewMetricScalarEvent("run-2", "delta", 0.01, 1))
	bus.Publish(events.NewTableSavedEvent("run-2", "q", "/tmp/q.bin"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
	data, ok := lines[0]["event_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "q", data["kind"])
	assert.Equal(t, "run-2", data["run_id"])

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeMetricScalar))
}
