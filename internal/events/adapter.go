package events

// SinkAdapter turns metric and progress callbacks from the trainers into
// events on a bus. It satisfies training.Sink and training.Progress.
type SinkAdapter struct {
	bus   Publisher
	runID string
}

// NewSinkAdapter creates a new adapter publishing events tagged with runID
func NewSinkAdapter(bus Publisher, runID string) *SinkAdapter {
	return &SinkAdapter{bus: bus, runID: runID}
}

// Scalar publishes a metric.scalar event
func (a *SinkAdapter) Scalar(name string, value float64, step int) {
	a.bus.Publish(NewMetricScalarEvent(a.runID, name, value, step))
}

// Status publishes a progress.status event
func (a *SinkAdapter) Status(step, total int, msg string) {
	a.bus.Publish(NewProgressStatusEvent(a.runID, step, total, msg))
}

// TableSaved publishes a table.saved event
func (a *SinkAdapter) TableSaved(kind, path string) {
	a.bus.Publish(NewTableSavedEvent(a.runID, kind, path))
}

// RunID returns the run the adapter tags events with
func (a *SinkAdapter) RunID() string {
	return a.runID
}
