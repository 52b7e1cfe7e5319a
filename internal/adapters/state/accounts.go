package state

import (
	"context"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

// StaticSource serves accounts loaded from configuration.
type StaticSource struct {
	accounts []domain.Account
}

func NewStaticSource(accounts []domain.Account) *StaticSource {
	return &StaticSource{accounts: append([]domain.Account(nil), accounts...)}
}

func (s *StaticSource) Accounts(context.Context) ([]domain.Account, error) {
	return append([]domain.Account(nil), s.accounts...), nil
}

// MergedSource concatenates a primary source with discovered ones. The first
// occurrence of an account id wins, so static entries override discovery.
type MergedSource struct {
	sources []ports.AccountSource
}

func NewMergedSource(primary ports.AccountSource, discovered ...ports.AccountSource) *MergedSource {
	return &MergedSource{sources: append([]ports.AccountSource{primary}, discovered...)}
}

func (m *MergedSource) Accounts(ctx context.Context) ([]domain.Account, error) {
	seen := make(map[string]bool)
	var out []domain.Account
	for _, src := range m.sources {
		accounts, err := src.Accounts(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeAccountSourceError, "failed to load accounts")
		}
		for _, a := range accounts {
			if seen[a.AccountID] {
				continue
			}
			seen[a.AccountID] = true
			out = append(out, a)
		}
	}
	return out, nil
}
