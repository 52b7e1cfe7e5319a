package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/pkg/convert"
)

const ManagedByValue = "catalog-provider"

// BaseOptions describe the skeleton every pipeline starts from.
type BaseOptions struct {
	Kind       domain.EntityKind
	Type       string
	TypeField  string // record field overriding Type when present
	Owner      string
	Lifecycle  string
	Namespace  string
	Source     string
	// AWSContext adds the account and region annotations. Only pipelines
	// fed by AWS inventories set it.
	AWSContext bool
}

// BaseStep sets apiVersion, kind, namespace, the ownership block and, for
// AWS sources, the account/region annotations.
func BaseStep(opts BaseOptions) Step {
	return Step{Name: "base", Apply: func(e *domain.Entity, rec domain.RawRecord, rc domain.RenderContext) error {
		e.APIVersion = domain.DefaultAPIVersion
		e.Kind = opts.Kind
		e.Metadata.Namespace = opts.Namespace
		if e.Metadata.Namespace == "" {
			e.Metadata.Namespace = domain.DefaultNamespace
		}

		e.SetAnnotation(domain.AnnotationManagedBy, ManagedByValue)
		if opts.Source != "" {
			e.SetAnnotation(domain.AnnotationSource, opts.Source)
		}
		if opts.AWSContext && rc.AccountID != "" {
			e.SetAnnotation(domain.AnnotationAccountID, rc.AccountID)
		}
		if opts.AWSContext && rc.Region != "" {
			e.SetAnnotation(domain.AnnotationRegion, rc.Region)
		}

		if opts.Kind == domain.KindUser || opts.Kind == domain.KindGroup {
			return nil
		}

		specType := opts.Type
		if opts.TypeField != "" {
			if v, ok := convert.LookupString(rec, opts.TypeField); ok {
				specType = v
			}
		}
		if specType != "" {
			e.SetSpec("type", specType)
		}
		if opts.Owner != "" {
			e.SetSpec("owner", opts.Owner)
		}
		if opts.Lifecycle != "" {
			e.SetSpec("lifecycle", opts.Lifecycle)
		}
		return nil
	}}
}

// TagsToLabelsStep copies a string map field of the record into
// metadata.labels, sanitizing keys and values.
func TagsToLabelsStep(field string) Step {
	return Step{Name: "tags", Apply: func(e *domain.Entity, rec domain.RawRecord, _ domain.RenderContext) error {
		raw, ok := convert.Lookup(rec, field)
		if !ok || raw == nil {
			return nil
		}
		tags, err := convert.ToStringMap(raw)
		if err != nil {
			return errors.Rewrap(err, errors.CodeRenderError, fmt.Sprintf("field %q is not a string map", field))
		}
		for k, v := range tags {
			key, val := Sanitize(k), Sanitize(v)
			if key == "" {
				continue
			}
			e.SetLabel(key, val)
		}
		return nil
	}}
}

type templateData struct {
	Record    domain.RawRecord
	AccountID string
	Region    string
	Name      string
}

// AnnotationTemplatesStep evaluates one Go template per annotation key against
// the record. Templates that render empty, or reference missing fields, are
// skipped.
func AnnotationTemplatesStep(templates map[string]string) (Step, error) {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	compiled := make(map[string]*template.Template, len(templates))
	for _, k := range keys {
		t, err := template.New(k).Funcs(FuncMap()).Parse(templates[k])
		if err != nil {
			return Step{}, errors.WrapUserFacing(err, errors.CodeConfigValidation,
				fmt.Sprintf("annotation template %q does not parse", k), "Check the template syntax in the provider configuration.")
		}
		compiled[k] = t
	}

	return Step{Name: "annotations", Apply: func(e *domain.Entity, rec domain.RawRecord, rc domain.RenderContext) error {
		data := templateData{Record: rec, AccountID: rc.AccountID, Region: rc.Region, Name: e.Metadata.Name}
		for _, k := range keys {
			var buf bytes.Buffer
			if err := compiled[k].Execute(&buf, data); err != nil {
				return errors.Rewrap(err, errors.CodeRenderError, fmt.Sprintf("annotation template %q failed", k))
			}
			out := strings.TrimSpace(buf.String())
			if out == "" || strings.Contains(out, "<no value>") {
				continue
			}
			e.SetAnnotation(k, out)
		}
		return nil
	}}, nil
}

func requiredString(rec domain.RawRecord, field string) (string, error) {
	v, ok := convert.LookupString(rec, field)
	if !ok {
		return "", errors.Newf(errors.CodeRenderError, "required field %q is missing", field)
	}
	return v, nil
}
