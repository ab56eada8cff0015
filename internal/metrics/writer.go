// Package metrics records training scalars to CSV.
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/events"
)

// FileName is the name of the metrics file inside a run directory
const FileName = "metrics.csv"

var header = []string{"step", "name", "value"}

// CSVWriter is an event subscriber that appends metric.scalar events to a
// CSV file as step,name,value rows
type CSVWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
	err    error
	logger zerolog.Logger
}

// NewCSVWriter creates dir/metrics.csv, writing the header if the file is new
func NewCSVWriter(dir string, logger zerolog.Logger) (*CSVWriter, error) {
	path := filepath.Join(dir, FileName)
	info, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}

	w := &CSVWriter{
		path:   path,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With().Str("component", "metrics_csv").Str("path", path).Logger(),
	}
	if fresh {
		if err := w.writer.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write metrics header: %w", err)
		}
		w.writer.Flush()
		if err := w.writer.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write metrics header: %w", err)
		}
	}
	return w, nil
}

// ID implements events.Subscriber
func (w *CSVWriter) ID() string {
	return "metrics_csv"
}

// InterestedIn implements events.Subscriber
func (w *CSVWriter) InterestedIn(eventType string) bool {
	return eventType == events.TypeMetricScalar
}

// HandleEvent appends one row per metric event. The first write error is
// kept and reported by Err and Close.
func (w *CSVWriter) HandleEvent(event events.Event) {
	e, ok := event.(*events.MetricScalarEvent)
	if !ok {
		return
	}
	if err := w.Write(e.Step, e.Name, e.Value); err != nil {
		w.logger.Error().Err(err).Str("metric", e.Name).Msg("Failed to record metric")
	}
}

// Write appends a single row and flushes it
func (w *CSVWriter) Write(step int, name string, value float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	row := []string{
		strconv.Itoa(step),
		name,
		strconv.FormatFloat(value, 'g', -1, 64),
	}
	if err := w.writer.Write(row); err != nil {
		w.err = fmt.Errorf("failed to write metric row: %w", err)
		return w.err
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.err = fmt.Errorf("failed to flush metric row: %w", err)
		return w.err
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written since the writer was opened
func (w *CSVWriter) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Path returns the metrics file path
func (w *CSVWriter) Path() string {
	return w.path
}

// Err returns the first write error, if any
func (w *CSVWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close flushes and closes the file
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	flushErr := w.writer.Error()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close metrics file: %w", err)
	}
	if flushErr != nil {
		return fmt.Errorf("failed to flush metrics file: %w", flushErr)
	}
	return w.err
}
