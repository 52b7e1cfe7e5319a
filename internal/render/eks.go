package render

import (
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/pkg/convert"
)

type EKSOptions struct {
	Owner       string
	Lifecycle   string
	Annotations map[string]string
}

// NewEKSRenderer renders EKS cluster records. The cluster name comes from the
// record's name field, falling back to the short name of its ARN; when the
// record has no name the title block is left out.
func NewEKSRenderer(opts EKSOptions) (*Pipeline, error) {
	p := NewPipeline(
		BaseStep(BaseOptions{
			Kind:       domain.KindResource,
			Type:       domain.TypeKubernetesCluster,
			TypeField:  domain.FieldClusterTypeValue,
			Owner:      opts.Owner,
			Lifecycle:  opts.Lifecycle,
			Source:     "aws-eks",
			AWSContext: true,
		}),
		eksIdentityStep(),
		eksAnnotationsStep(),
		eksSpecStep(),
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

func eksIdentityStep() Step {
	return Step{Name: "identity", Apply: func(e *domain.Entity, rec domain.RawRecord, rc domain.RenderContext) error {
		name, hasName := convert.LookupString(rec, domain.FieldName)
		if !hasName {
			arn, hasARN := convert.LookupString(rec, domain.FieldARN)
			if !hasARN {
				return errors.New(errors.CodeRenderError, "cluster record has neither name nor arn")
			}
			name = ARNToName(arn)
		}
		e.Metadata.Name = Sanitize(rc.AccountID + "-" + rc.Region + "-" + name)
		if hasName {
			e.Metadata.Title = name
		}
		return nil
	}}
}

func eksAnnotationsStep() Step {
	return Step{Name: "eks", Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		if name, ok := convert.LookupString(rec, domain.FieldName); ok {
			e.SetAnnotation(domain.AnnotationK8sAWSID, name)
		}
		e.SetAnnotation(domain.AnnotationK8sAuthProvider, "aws")
		if arn, ok := convert.LookupString(rec, domain.FieldARN); ok {
			e.SetAnnotation(domain.AnnotationARN, arn)
			e.SetAnnotation(domain.AnnotationEKSClusterName, ARNToName(arn))
		}
		if endpoint, ok := convert.LookupString(rec, domain.FieldEndpoint); ok {
			e.SetAnnotation(domain.AnnotationK8sAPIServer, endpoint)
		}
		if role, ok := convert.LookupString(rec, domain.FieldRoleARN); ok {
			e.SetAnnotation(domain.AnnotationK8sAWSAssumeRole, role)
		}
		return nil
	}}
}

func eksSpecStep() Step {
	return Step{Name: "spec", Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		for _, f := range []string{domain.FieldVersion, domain.FieldStatus, domain.FieldPlatformVersion} {
			if v, ok := convert.LookupString(rec, f); ok {
				e.SetSpec(f, v)
			}
		}
		return nil
	}}
}
