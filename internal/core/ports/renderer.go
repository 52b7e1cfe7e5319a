package ports

import "github.com/olusolaa/catalog-entity-provider/internal/core/domain"

// Renderer turns one raw record into exactly one entity. It must be pure:
// the same record and context always produce the same entity.
type Renderer interface {
	Render(record domain.RawRecord, rc domain.RenderContext) (domain.Entity, error)
}
