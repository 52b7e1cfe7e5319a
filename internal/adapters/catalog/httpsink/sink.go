package httpsink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const SinkType = "http"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	URL          string
	Token        string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	Logger       ports.Logger
}

// Sink posts each mutation as a delta document to the portal's catalog
// ingestion endpoint. Transient failures are retried by the HTTP client;
// what remains after retries is a submission error.
type Sink struct {
	url    string
	token  string
	client *retryablehttp.Client
	logger ports.Logger

	mu     sync.Mutex
	synced map[string]bool
}

type addedEntity struct {
	Entity      domain.Entity `json:"entity"`
	LocationKey string        `json:"locationKey"`
}

type removedEntity struct {
	EntityRef string `json:"entityRef"`
}

type deltaPayload struct {
	Type     string          `json:"type"`
	Provider string          `json:"provider"`
	Added    []addedEntity   `json:"added"`
	Removed  []removedEntity `json:"removed"`
}

// fullPayload replaces everything the catalog holds under the provider's
// location key.
type fullPayload struct {
	Type     string        `json:"type"`
	Provider string        `json:"provider"`
	Entities []addedEntity `json:"entities"`
}

func New(opts Options) (*Sink, error) {
	if opts.URL == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "http catalog sink requires a url", "Set catalog.http.url.")
	}
	if opts.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "http catalog sink requires a logger")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	logger := opts.Logger.WithFields(map[string]any{"component": "catalog_http_sink"})
	client.Logger = &leveledLogger{logger: logger}

	return &Sink{url: opts.URL, token: opts.Token, client: client, logger: logger, synced: make(map[string]bool)}, nil
}

func (s *Sink) Type() string { return SinkType }

func LocationKey(provider string) string {
	return "catalog-provider:" + provider
}

// ApplyMutation posts the mutation to the ingestion endpoint. A provider's
// first submission through this sink is sent as a full replacement, so
// entities left behind by an earlier process are dropped by the catalog.
func (s *Sink) ApplyMutation(ctx context.Context, m domain.Mutation) error {
	full := !s.isSynced(m.Provider)
	body, err := encodeMutation(m, full)
	if err != nil {
		return errors.Rewrap(err, errors.CodeSubmissionError, "failed to encode mutation")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, body)
	if err != nil {
		return errors.Rewrap(err, errors.CodeSubmissionError, "failed to build catalog request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Rewrap(err, errors.CodeSubmissionError, fmt.Sprintf("catalog ingestion request to %s failed", s.url))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		appErr := errors.Newf(errors.CodeSubmissionError, "catalog rejected mutation for %s: HTTP %d", m.Provider, resp.StatusCode)
		appErr.InternalDetails = string(detail)
		return appErr
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	s.markSynced(m.Provider)
	if full {
		s.logger.Debugf(ctx, "Applied full mutation for %s: %d entities", m.Provider, len(m.Upsert))
		return nil
	}
	s.logger.Debugf(ctx, "Applied mutation for %s: %d added, %d removed", m.Provider, len(m.Upsert), len(m.Removed))
	return nil
}

func encodeMutation(m domain.Mutation, full bool) ([]byte, error) {
	added := make([]addedEntity, 0, len(m.Upsert))
	for _, e := range m.Upsert {
		added = append(added, addedEntity{Entity: e, LocationKey: LocationKey(m.Provider)})
	}
	if full {
		return json.Marshal(fullPayload{Type: "full", Provider: m.Provider, Entities: added})
	}
	removed := make([]removedEntity, 0, len(m.Removed))
	for _, r := range m.Removed {
		removed = append(removed, removedEntity{EntityRef: r.String()})
	}
	return json.Marshal(deltaPayload{Type: "delta", Provider: m.Provider, Added: added, Removed: removed})
}

func (s *Sink) isSynced(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced[provider]
}

func (s *Sink) markSynced(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[provider] = true
}

// leveledLogger routes retryablehttp's logging into the application logger.
type leveledLogger struct {
	logger ports.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorf(context.Background(), nil, "%s %v", msg, keysAndValues)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugf(context.Background(), "%s %v", msg, keysAndValues)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugf(context.Background(), "%s %v", msg, keysAndValues)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnf(context.Background(), "%s %v", msg, keysAndValues)
}
