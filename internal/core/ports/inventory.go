package ports

import (
	"context"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

// InventoryClient returns the raw records one account exposes. Failures are
// ApiErrors; the client does not retry or cache.
type InventoryClient interface {
	Type() string
	ListRecords(ctx context.Context, account domain.Account) ([]domain.SourcedRecord, error)
}

// AccountSource supplies the accounts a provider polls.
type AccountSource interface {
	Accounts(ctx context.Context) ([]domain.Account, error)
}
