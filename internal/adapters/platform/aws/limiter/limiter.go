package limiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
)

const (
	DefaultRPS = 20
	minRPS     = 1
	maxRPS     = 100
)

// Limiter throttles calls made by one inventory client. Each client owns its
// own limiter, so providers never contend for a shared budget.
type Limiter struct {
	limiter *rate.Limiter
	rps     int
	logger  ports.Logger
}

// New clamps rps into the supported range. Zero selects DefaultRPS.
func New(rps int, logger ports.Logger) *Limiter {
	value := DefaultRPS
	switch {
	case rps >= minRPS && rps <= maxRPS:
		value = rps
	case rps != 0:
		logger.Warnf(context.Background(), "Invalid AWS API RPS configured (%d), using default %d RPS. Valid range: %d-%d.", rps, DefaultRPS, minRPS, maxRPS)
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(value), value),
		rps:     value,
		logger:  logger,
	}
}

func (l *Limiter) RPS() int {
	return l.rps
}

func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			l.logger.Warnf(ctx, "Error waiting for AWS API rate limiter: %v", err)
		}
		return err
	}
	return nil
}
