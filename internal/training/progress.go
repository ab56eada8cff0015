package training

import (
	"github.com/rs/zerolog"
)

// LogProgress writes every Nth status to a zerolog logger
type LogProgress struct {
	logger zerolog.Logger
	every  int
}

// NewLogProgress logs one status out of every `every` steps. The final step
// is always logged.
func NewLogProgress(logger zerolog.Logger, every int) *LogProgress {
	if every <= 0 {
		every = 1
	}
	return &LogProgress{
		logger: logger.With().Str("component", "progress").Logger(),
		every:  every,
	}
}

// Status implements Progress
func (p *LogProgress) Status(step, total int, msg string) {
	if step%p.every != 0 && step != total {
		return
	}
	p.logger.Info().
		Int("step", step).
		Int("total", total).
		Msg(msg)
}
