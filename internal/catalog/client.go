package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("catalog base url is required")
	errLoggerRequired  = errors.New("catalog logger is required")
)

// TokenSource yields the bearer credential attached to authenticated calls.
// An empty string means the request goes out anonymous.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) string

func (fn TokenSourceFunc) AccessToken(ctx context.Context) string { return fn(ctx) }

// Client is a thin typed wrapper over the external catalog REST service with
// centralized auth, logging, and error mapping. Single attempt, fail-fast:
// retry policy belongs to callers, none is implemented here.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	logger         *logger.Logger
	pageSize       int
	searchPageSize int
}

// NewClient validates the configuration and builds the catalog wrapper.
func NewClient(cfg config.CatalogConfig, tokens TokenSource, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	searchPageSize := cfg.SearchPageSize
	if searchPageSize <= 0 {
		searchPageSize = 50
	}
	return &Client{
		baseURL:        baseURL,
		http:           &http.Client{Timeout: cfg.Timeout},
		tokens:         tokens,
		logger:         logg,
		pageSize:       pageSize,
		searchPageSize: searchPageSize,
	}, nil
}

// PageSize reports the default listing page size.
func (c *Client) PageSize() int {
	if c == nil {
		return 0
	}
	return c.pageSize
}

// SearchPageSize reports the bounded page size used for category and search
// fetches.
func (c *Client) SearchPageSize() int {
	if c == nil {
		return 0
	}
	return c.searchPageSize
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode %s request", op))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", op))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.AccessToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("catalog %s failed", op))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode})
		return pkgerrors.FromHTTPStatus(resp.StatusCode, fmt.Sprintf("catalog %s failed", op))
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("catalog %s", op))
	default:
		c.logger.Info(ctx, fmt.Sprintf("catalog %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"password", "token", "secret", "email"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
