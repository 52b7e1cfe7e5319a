package render

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

// Marshal encodes an entity as a YAML document. Map keys are emitted in
// sorted order, so equal entities always encode to identical bytes.
func Marshal(e domain.Entity) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return nil, errors.Rewrap(err, errors.CodeRenderError, "failed to encode entity as YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Rewrap(err, errors.CodeRenderError, "failed to encode entity as YAML")
	}
	return buf.Bytes(), nil
}

// MarshalAll encodes entities as a multi-document YAML stream. No entities
// encode to an empty stream.
func MarshalAll(entities []domain.Entity) ([]byte, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, e := range entities {
		if err := enc.Encode(e); err != nil {
			return nil, errors.Rewrap(err, errors.CodeRenderError, "failed to encode entities as YAML")
		}
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Rewrap(err, errors.CodeRenderError, "failed to encode entities as YAML")
	}
	return buf.Bytes(), nil
}

// RenderYAML renders one record straight to its YAML text.
func RenderYAML(r ports.Renderer, rec domain.RawRecord, rc domain.RenderContext) ([]byte, error) {
	e, err := r.Render(rec, rc)
	if err != nil {
		return nil, err
	}
	return Marshal(e)
}

// Unmarshal decodes a YAML entity document.
func Unmarshal(data []byte) (domain.Entity, error) {
	var e domain.Entity
	if err := yaml.Unmarshal(data, &e); err != nil {
		return domain.Entity{}, errors.Rewrap(err, errors.CodeInternal, "failed to decode entity YAML")
	}
	return e, nil
}
