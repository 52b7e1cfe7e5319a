package ports

import (
	"context"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

// EntityProvider runs one synchronisation cycle per call. Callers guarantee at
// most one concurrent Tick per instance.
type EntityProvider interface {
	Name() string
	Tick(ctx context.Context) domain.TickResult
}

// TickRecorder observes finished ticks.
type TickRecorder interface {
	ObserveTick(result domain.TickResult)
}
