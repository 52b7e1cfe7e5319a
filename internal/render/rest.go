package render

import (
	"sort"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/pkg/convert"
)

// RecordOptions map fields of an arbitrary JSON record onto an entity.
// Field values are dotted paths into the record.
type RecordOptions struct {
	Source           string
	Kind             domain.EntityKind
	Type             string
	Owner            string
	Lifecycle        string
	NameField        string
	TitleField       string
	DescriptionField string
	AnnotationFields map[string]string
	SpecFields       map[string]string
	Annotations      map[string]string
}

// NewRecordRenderer builds a pipeline for generic REST inventories.
func NewRecordRenderer(opts RecordOptions) (*Pipeline, error) {
	kind := opts.Kind
	if kind == "" {
		kind = domain.KindResource
	}
	nameField := opts.NameField
	if nameField == "" {
		nameField = domain.FieldName
	}

	p := NewPipeline(
		BaseStep(BaseOptions{
			Kind:      kind,
			Type:      opts.Type,
			Owner:     opts.Owner,
			Lifecycle: opts.Lifecycle,
			Source:    opts.Source,
		}),
		recordIdentityStep(nameField, opts.TitleField, opts.DescriptionField),
		fieldMappingStep("annotation-fields", opts.AnnotationFields, func(e *domain.Entity, k, v string) { e.SetAnnotation(k, v) }),
		fieldMappingStep("spec-fields", opts.SpecFields, func(e *domain.Entity, k, v string) { e.SetSpec(k, v) }),
	)
	if len(opts.Annotations) == 0 {
		return p, nil
	}
	tmpl, err := AnnotationTemplatesStep(opts.Annotations)
	if err != nil {
		return nil, err
	}
	return p.Derive(tmpl), nil
}

func recordIdentityStep(nameField, titleField, descField string) Step {
	return Step{Name: "identity", Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		name, err := requiredString(rec, nameField)
		if err != nil {
			return err
		}
		e.Metadata.Name = Sanitize(name)
		if titleField != "" {
			if title, ok := convert.LookupString(rec, titleField); ok {
				e.Metadata.Title = title
			}
		}
		if descField != "" {
			if desc, ok := convert.LookupString(rec, descField); ok {
				e.Metadata.Description = desc
			}
		}
		return nil
	}}
}

func fieldMappingStep(name string, fields map[string]string, set func(e *domain.Entity, key, value string)) Step {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Step{Name: name, Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		for _, k := range keys {
			if v, ok := convert.LookupString(rec, fields[k]); ok {
				set(e, k, v)
			}
		}
		return nil
	}}
}
