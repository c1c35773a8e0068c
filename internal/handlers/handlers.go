package handlers

import (
	"time"

	"gallery-player/internal/engine"
	"gallery-player/internal/startup"
)

// Handlers carries the dependencies of the HTTP control surface.
type Handlers struct {
	engine    *engine.Engine
	sourceID  string
	startTime time.Time
}

// New creates the handler set for the given engine.
func New(e *engine.Engine, sourceID string, _ *startup.Config) *Handlers {
	return &Handlers{
		engine:    e,
		sourceID:  sourceID,
		startTime: time.Now(),
	}
}
