package stdout

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/internal/render"
)

const SinkType = "stdout"

// Sink writes each mutation as a YAML stream, preceded by comment lines
// naming the provider and the removed refs. Useful for dry runs.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

func New(out io.Writer) *Sink {
	return &Sink{out: out}
}

func (s *Sink) Type() string { return SinkType }

func (s *Sink) ApplyMutation(_ context.Context, m domain.Mutation) error {
	docs, err := render.MarshalAll(m.Upsert)
	if err != nil {
		return errors.Rewrap(err, errors.CodeSubmissionError, "failed to encode mutation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.out, "# provider: %s upserted: %d removed: %d\n", m.Provider, len(m.Upsert), len(m.Removed)); err != nil {
		return errors.Rewrap(err, errors.CodeSubmissionError, "failed to write mutation")
	}
	for _, r := range m.Removed {
		if _, err := fmt.Fprintf(s.out, "# removed: %s\n", r); err != nil {
			return errors.Rewrap(err, errors.CodeSubmissionError, "failed to write mutation")
		}
	}
	if len(m.Upsert) > 0 {
		if _, err := fmt.Fprint(s.out, "---\n"); err != nil {
			return errors.Rewrap(err, errors.CodeSubmissionError, "failed to write mutation")
		}
		if _, err := s.out.Write(docs); err != nil {
			return errors.Rewrap(err, errors.CodeSubmissionError, "failed to write mutation")
		}
	}
	return nil
}
