package events

import "github.com/mitchelldurbincs/PigReinforcementLearning/internal/training"

var (
	_ training.Sink     = (*SinkAdapter)(nil)
	_ training.Progress = (*SinkAdapter)(nil)
)
