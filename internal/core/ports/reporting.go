package ports

import (
	"context"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, results []domain.TickResult) error
}
