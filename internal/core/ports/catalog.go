package ports

import (
	"context"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

// CatalogSink is the host catalog's ingestion API. Implementations must be
// safe to call from several providers; each provider calls it at most once at
// a time.
type CatalogSink interface {
	Type() string
	ApplyMutation(ctx context.Context, mutation domain.Mutation) error
}

// CatalogReader is implemented by sinks that can list what they hold.
type CatalogReader interface {
	ListEntities(ctx context.Context, provider string) ([]domain.Entity, error)
}
