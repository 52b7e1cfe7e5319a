package rest

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const defaultTimeout = 30 * time.Second

// ProxyResolver turns a proxy sub-path into an absolute URL.
type ProxyResolver interface {
	ProxyURL(subPath string) (string, error)
}

type Config struct {
	Name       string
	URL        string
	ProxyPath  string
	Token      string
	AuthScheme string
	ItemsPath  string
	Headers    map[string]string
	Timeout    time.Duration
}

// Client fetches a JSON document with one authenticated GET and returns the
// objects found under ItemsPath as records.
type Client struct {
	name      string
	url       string
	itemsPath string
	http      *resty.Client
	logger    ports.Logger
}

func NewClient(cfg Config, resolver ProxyResolver, logger ports.Logger) (*Client, error) {
	target := cfg.URL
	if cfg.ProxyPath != "" {
		if resolver == nil {
			return nil, errors.Newf(errors.CodeConfigValidation, "rest source '%s': proxy_path set but no discovery configured", cfg.Name)
		}
		u, err := resolver.ProxyURL(cfg.ProxyPath)
		if err != nil {
			return nil, err
		}
		target = u
	}
	if target == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("rest source '%s' has no url", cfg.Name),
			"Set either url or proxy_path for the source.")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.Headers)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
		if cfg.AuthScheme != "" {
			client.SetAuthScheme(cfg.AuthScheme)
		}
	}

	return &Client{
		name:      cfg.Name,
		url:       target,
		itemsPath: cfg.ItemsPath,
		http:      client,
		logger:    logger.WithFields(map[string]any{"component": "rest", "source": cfg.Name}),
	}, nil
}

func (c *Client) Type() string {
	return "rest:" + c.name
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) ListRecords(ctx context.Context, account domain.Account) ([]domain.SourcedRecord, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, classifyTransportError(ctx, c.name, err)
	}
	if err := classifyStatus(c.name, resp.StatusCode()); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, errors.Newf(errors.CodeAPIError, "rest source '%s' returned invalid JSON", c.name)
	}
	result := gjson.ParseBytes(body)
	if c.itemsPath != "" {
		result = result.Get(c.itemsPath)
	}
	if !result.IsArray() {
		return nil, errors.Newf(errors.CodeAPIError, "rest source '%s': items path %q does not select an array", c.name, c.itemsPath)
	}

	rc := domain.RenderContext{AccountID: account.AccountID, Region: account.DefaultRegion}
	items := result.Array()
	records := make([]domain.SourcedRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.Value().(map[string]any)
		if !ok {
			c.logger.Warnf(ctx, "Skipping item %d: not a JSON object", i)
			continue
		}
		records = append(records, domain.SourcedRecord{Record: domain.RawRecord(obj), Context: rc})
	}
	c.logger.Debugf(ctx, "Fetched %d records", len(records))
	return records, nil
}

func classifyTransportError(ctx context.Context, name string, err error) error {
	if ctx.Err() != nil || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Rewrap(err, errors.CodeTimeout, fmt.Sprintf("rest source '%s' request cancelled or timed out", name))
	}
	var netErr net.Error
	if stderrs.As(err, &netErr) {
		return errors.Rewrap(err, errors.CodeAPINetworkError, fmt.Sprintf("rest source '%s' unreachable", name))
	}
	return errors.Rewrap(err, errors.CodeAPIError, fmt.Sprintf("rest source '%s' request failed", name))
}

func classifyStatus(name string, status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Newf(errors.CodeAPIAuthError, "rest source '%s' rejected credentials (HTTP %d)", name, status)
	case status == http.StatusTooManyRequests:
		return errors.Newf(errors.CodeAPIRateLimit, "rest source '%s' rate limited the request", name)
	case status == http.StatusNotFound:
		return errors.Newf(errors.CodeAPINotFound, "rest source '%s' endpoint not found", name)
	default:
		return errors.Newf(errors.CodeAPIError, "rest source '%s' returned HTTP %d", name, status)
	}
}
