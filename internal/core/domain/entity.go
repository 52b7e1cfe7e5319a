package domain

import (
	"fmt"
	"strings"
)

// EntityMetadata is the metadata block of a catalog entity.
type EntityMetadata struct {
	Name        string            `json:"name" yaml:"name"`
	Namespace   string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Entity is one catalog document. Ownership passes to the catalog sink once
// it is submitted.
type Entity struct {
	APIVersion string         `json:"apiVersion" yaml:"apiVersion"`
	Kind       EntityKind     `json:"kind" yaml:"kind"`
	Metadata   EntityMetadata `json:"metadata" yaml:"metadata"`
	Spec       map[string]any `json:"spec,omitempty" yaml:"spec,omitempty"`
}

func (e Entity) Ref() EntityRef {
	ns := e.Metadata.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return EntityRef{Kind: e.Kind, Namespace: ns, Name: e.Metadata.Name}
}

// SetAnnotation initialises the annotation map on first use.
func (e *Entity) SetAnnotation(key, value string) {
	if e.Metadata.Annotations == nil {
		e.Metadata.Annotations = make(map[string]string)
	}
	e.Metadata.Annotations[key] = value
}

func (e *Entity) SetLabel(key, value string) {
	if e.Metadata.Labels == nil {
		e.Metadata.Labels = make(map[string]string)
	}
	e.Metadata.Labels[key] = value
}

func (e *Entity) SetSpec(key string, value any) {
	if e.Spec == nil {
		e.Spec = make(map[string]any)
	}
	e.Spec[key] = value
}

// EntityRef identifies an entity in the catalog.
type EntityRef struct {
	Kind      EntityKind
	Namespace string
	Name      string
}

// String renders the canonical "kind:namespace/name" form with a lower-case kind.
func (r EntityRef) String() string {
	ns := r.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return fmt.Sprintf("%s:%s/%s", strings.ToLower(string(r.Kind)), ns, r.Name)
}

// ParseEntityRef parses "kind:namespace/name" or "kind:name".
func ParseEntityRef(s string) (EntityRef, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || kind == "" || rest == "" {
		return EntityRef{}, fmt.Errorf("entity ref %q: expected kind:[namespace/]name", s)
	}
	ns, name, hasNS := strings.Cut(rest, "/")
	if !hasNS {
		name = rest
		ns = DefaultNamespace
	}
	if name == "" || ns == "" {
		return EntityRef{}, fmt.Errorf("entity ref %q: empty name or namespace", s)
	}
	return EntityRef{Kind: EntityKind(canonicalKind(kind)), Namespace: ns, Name: name}, nil
}

var knownKinds = []EntityKind{KindResource, KindComponent, KindUser, KindGroup, KindSystem}

func canonicalKind(k string) string {
	for _, known := range knownKinds {
		if strings.EqualFold(string(known), k) {
			return string(known)
		}
	}
	return k
}
