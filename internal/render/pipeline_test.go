package render

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

func namedStep(name string) Step {
	return Step{Name: name, Apply: func(e *domain.Entity, _ domain.RawRecord, _ domain.RenderContext) error {
		e.Metadata.Name = name
		e.SetAnnotation("order", e.Metadata.Annotations["order"]+name)
		return nil
	}}
}

func TestPipeline_OverridesApplyInOrder(t *testing.T) {
	p := NewPipeline(namedStep("a"), namedStep("b"), namedStep("c"))
	e, err := p.Render(domain.RawRecord{}, domain.RenderContext{})
	require.NoError(t, err)
	assert.Equal(t, "c", e.Metadata.Name)
	assert.Equal(t, "abc", e.Metadata.Annotations["order"])
}

func TestPipeline_DeriveLeavesParentUntouched(t *testing.T) {
	parent := NewPipeline(namedStep("base"), namedStep("x"))
	child := parent.Derive(namedStep("y"))

	assert.Equal(t, []string{"base", "x"}, parent.StepNames())
	assert.Equal(t, []string{"base", "x", "y"}, child.StepNames())
}

func TestPipeline_StepErrorBecomesRenderError(t *testing.T) {
	failing := Step{Name: "boom", Apply: func(*domain.Entity, domain.RawRecord, domain.RenderContext) error {
		return fmt.Errorf("kaput")
	}}
	p := NewPipeline(namedStep("base"), failing)

	_, err := p.Render(domain.RawRecord{}, domain.RenderContext{})
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.Contains(t, err.Error(), `render step "boom" failed`)
}

func TestPipeline_EmptyNameRejected(t *testing.T) {
	noop := Step{Name: "noop", Apply: func(*domain.Entity, domain.RawRecord, domain.RenderContext) error { return nil }}
	_, err := NewPipeline(noop).Render(domain.RawRecord{}, domain.RenderContext{})
	assert.True(t, errors.IsRenderError(err))
}
