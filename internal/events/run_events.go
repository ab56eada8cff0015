package events

import (
	"time"
)

// Event type constants
const (
	TypeMetricScalar   = "metric.scalar"
	TypeProgressStatus = "progress.status"
	TypeTableSaved     = "table.saved"
)

// MetricScalarEvent carries one (name, value, step) triple
type MetricScalarEvent struct {
	BaseEvent
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Step  int     `json:"step"`
}

// NewMetricScalarEvent creates a new metric event
func NewMetricScalarEvent(runID, name string, value float64, step int) *MetricScalarEvent {
	return &MetricScalarEvent{
		BaseEvent: BaseEvent{
			EventType: TypeMetricScalar,
			Time:      time.Now(),
			Run:       runID,
		},
		Name:  name,
		Value: value,
		Step:  step,
	}
}

// ProgressStatusEvent reports how far a run has got
type ProgressStatusEvent struct {
	BaseEvent
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// NewProgressStatusEvent creates a new progress event
func NewProgressStatusEvent(runID string, step, total int, message string) *ProgressStatusEvent {
	return &ProgressStatusEvent{
		BaseEvent: BaseEvent{
			EventType: TypeProgressStatus,
			Time:      time.Now(),
			Run:       runID,
		},
		Step:    step,
		Total:   total,
		Message: message,
	}
}

// TableSavedEvent is published after a table has been written to disk
type TableSavedEvent struct {
	BaseEvent
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// NewTableSavedEvent creates a new table saved event
func NewTableSavedEvent(runID, kind, path string) *TableSavedEvent {
	return &TableSavedEvent{
		BaseEvent: BaseEvent{
			EventType: TypeTableSaved,
			Time:      time.Now(),
			Run:       runID,
		},
		Kind: kind,
		Path: path,
	}
}
