package render

import (
	"fmt"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

// StepFunc applies one block of the document. The first step of a pipeline
// builds the skeleton, later steps override or extend it.
type StepFunc func(e *domain.Entity, rec domain.RawRecord, rc domain.RenderContext) error

type Step struct {
	Name  string
	Apply StepFunc
}

// Pipeline is a base step followed by named overrides applied in order.
type Pipeline struct {
	base      Step
	overrides []Step
}

func NewPipeline(base Step, overrides ...Step) *Pipeline {
	return &Pipeline{base: base, overrides: append([]Step(nil), overrides...)}
}

// Derive returns a new pipeline sharing this one's steps with extra
// overrides appended. The receiver is not modified.
func (p *Pipeline) Derive(overrides ...Step) *Pipeline {
	steps := make([]Step, 0, len(p.overrides)+len(overrides))
	steps = append(steps, p.overrides...)
	steps = append(steps, overrides...)
	return &Pipeline{base: p.base, overrides: steps}
}

func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.overrides)+1)
	names = append(names, p.base.Name)
	for _, s := range p.overrides {
		names = append(names, s.Name)
	}
	return names
}

// Render runs every step against a fresh entity. Any step failure is a
// RenderError naming the step, wrapping the step's own error.
func (p *Pipeline) Render(rec domain.RawRecord, rc domain.RenderContext) (domain.Entity, error) {
	if rec == nil {
		return domain.Entity{}, errors.New(errors.CodeRenderError, "record is nil")
	}
	var e domain.Entity
	if err := p.apply(p.base, &e, rec, rc); err != nil {
		return domain.Entity{}, err
	}
	for _, s := range p.overrides {
		if err := p.apply(s, &e, rec, rc); err != nil {
			return domain.Entity{}, err
		}
	}
	if e.Metadata.Name == "" {
		return domain.Entity{}, errors.New(errors.CodeRenderError, "rendered entity has no metadata.name")
	}
	return e, nil
}

func (p *Pipeline) apply(s Step, e *domain.Entity, rec domain.RawRecord, rc domain.RenderContext) error {
	if err := s.Apply(e, rec, rc); err != nil {
		return errors.Rewrap(err, errors.CodeRenderError, fmt.Sprintf("render step %q failed", s.Name))
	}
	return nil
}
