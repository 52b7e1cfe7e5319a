package service

import (
	"sort"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

type refSet map[domain.EntityRef]struct{}

func newRefSet(refs ...domain.EntityRef) refSet {
	s := make(refSet, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

func (s refSet) sorted() []domain.EntityRef {
	out := make([]domain.EntityRef, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	SortRefs(out)
	return out
}

// Diff computes the full-replace delta between the refs submitted on the last
// successful tick and the entities rendered now. Every current entity is an
// upsert; every previous ref missing from current is removed.
func Diff(previous refSet, current []domain.Entity) (upsert []domain.Entity, removed []domain.EntityRef) {
	currentRefs := make(refSet, len(current))
	for _, e := range current {
		currentRefs[e.Ref()] = struct{}{}
	}

	for r := range previous {
		if _, ok := currentRefs[r]; !ok {
			removed = append(removed, r)
		}
	}
	SortRefs(removed)

	upsert = append([]domain.Entity(nil), current...)
	SortEntities(upsert)
	return upsert, removed
}

func SortRefs(refs []domain.EntityRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
}

func SortEntities(entities []domain.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Ref().String() < entities[j].Ref().String()
	})
}

func refsOf(entities []domain.Entity) []domain.EntityRef {
	out := make([]domain.EntityRef, len(entities))
	for i, e := range entities {
		out[i] = e.Ref()
	}
	return out
}
