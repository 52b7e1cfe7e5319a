package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
)

// RunOnce ticks each provider a single time. Providers run in parallel since
// they share no state; results come back in the order given. A positive
// timeout bounds each tick separately.
func RunOnce(ctx context.Context, providers []ports.EntityProvider, timeout time.Duration) []domain.TickResult {
	results := make([]domain.TickResult, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			tickCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				tickCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			results[i] = p.Tick(tickCtx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed reports whether any result did not succeed.
func Failed(results []domain.TickResult) bool {
	for _, r := range results {
		if r.Status != domain.TickSucceeded {
			return true
		}
	}
	return false
}
