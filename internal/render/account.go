package render

import (
	"sort"
	"strings"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/pkg/convert"
)

type AccountOptions struct {
	Owner       string
	Lifecycle   string
	Annotations map[string]string
}

// NewAccountRenderer renders one aws-account resource per account record.
func NewAccountRenderer(opts AccountOptions) (*Pipeline, error) {
	p := NewPipeline(
		BaseStep(BaseOptions{
			Kind:       domain.KindResource,
			Type:       domain.TypeAWSAccount,
			Owner:      opts.Owner,
			Lifecycle:  opts.Lifecycle,
			Source:     "aws-account",
			AWSContext: true,
		}),
		accountIdentityStep(),
		accountRegionsStep(),
		TagsToLabelsStep(domain.FieldTags),
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

func accountIdentityStep() Step {
	return Step{Name: "identity", Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		id, err := requiredString(rec, domain.FieldAccountID)
		if err != nil {
			return err
		}
		e.Metadata.Name = Sanitize("aws-account-" + id)
		e.Metadata.Title = id
		if alias, ok := convert.LookupString(rec, domain.FieldName); ok {
			e.Metadata.Title = alias
		}
		if arn, ok := convert.LookupString(rec, domain.FieldARN); ok {
			e.SetAnnotation(domain.AnnotationARN, arn)
		}
		return nil
	}}
}

func accountRegionsStep() Step {
	return Step{Name: "regions", Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		raw, ok := convert.Lookup(rec, domain.FieldRegions)
		if !ok {
			return nil
		}
		regions, err := convert.ToSliceOfString(raw)
		if err != nil {
			return errors.Rewrap(err, errors.CodeRenderError, "field \"regions\" is not a list")
		}
		if len(regions) == 0 {
			return nil
		}
		sorted := append([]string(nil), regions...)
		sort.Strings(sorted)
		e.SetAnnotation(domain.AnnotationEnabledRegions, strings.Join(sorted, ","))
		e.SetSpec("regions", sorted)
		return nil
	}}
}
