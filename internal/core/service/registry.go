package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

// ProviderRegistry holds the providers built from configuration, keyed by name.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]ports.EntityProvider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]ports.EntityProvider)}
}

func (r *ProviderRegistry) Register(provider ports.EntityProvider) error {
	if provider == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil provider")
	}
	name := provider.Name()
	if name == "" {
		return errors.New(errors.CodeInternal, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return errors.New(errors.CodeConfigValidation, fmt.Sprintf("provider '%s' already registered", name))
	}
	r.providers[name] = provider
	return nil
}

func (r *ProviderRegistry) Get(name string) (ports.EntityProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("provider '%s' not found", name),
			fmt.Sprintf("Known providers: %v", r.namesLocked()))
	}
	return provider, nil
}

// Names returns registered provider names in sorted order.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *ProviderRegistry) namesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves names to providers, preserving the requested order. An
// empty selection returns every provider sorted by name.
func (r *ProviderRegistry) Select(names []string) ([]ports.EntityProvider, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	seen := make(map[string]bool, len(names))
	selected := make([]ports.EntityProvider, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, p)
	}
	return selected, nil
}
