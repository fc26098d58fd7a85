package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/dsplineage/internal/config"
	"github.com/dbsmedya/dsplineage/internal/logger"
	"github.com/dbsmedya/dsplineage/internal/types"
)

const (
	spacesPath        = "/dwaas-core/api/v1/spaces"
	spaceNamesPath    = "/dwaas-core/repository/spaces"
	designObjectsPath = "/deepsea/repository/%s/designObjects"
	dependenciesPath  = "/deepsea/repository/dependencies/"

	maxErrorBody = 512
)

// Compile-time interface checks.
var (
	_ Gateway       = (*HTTPClient)(nil)
	_ BusinessNamer = (*HTTPClient)(nil)
)

// HTTPClient implements Gateway over the repository REST API.
type HTTPClient struct {
	baseURL        string
	token          string
	http           *http.Client
	timeout        time.Duration
	lineageTimeout time.Duration
	maxRetries     int
	backoff        time.Duration
	log            *logger.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// WithTimeouts sets the per-request timeouts for listing and dependency calls.
func WithTimeouts(listing, lineage time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.timeout = listing
		c.lineageTimeout = lineage
	}
}

// WithRetry sets how many times a transient failure is retried and the
// initial backoff, which doubles after every attempt.
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.log = log
	}
}

// NewHTTPClient creates a client for the tenant at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		timeout:        30 * time.Second,
		lineageTimeout: 60 * time.Second,
		maxRetries:     3,
		backoff:        time.Second,
		log:            logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the api section of the configuration.
func NewFromConfig(cfg config.APIConfig, log *logger.Logger) *HTTPClient {
	return NewHTTPClient(cfg.Host,
		WithToken(cfg.Token),
		WithTimeouts(cfg.Timeout(), cfg.LineageTimeout()),
		WithRetry(cfg.MaxRetries, cfg.Backoff()),
		WithLogger(log),
	)
}

// ListSpaces returns every space visible to the caller.
func (c *HTTPClient) ListSpaces(ctx context.Context) ([]types.Space, error) {
	raw, err := c.get(ctx, spacesPath, nil, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	spaces, err := parseSpaces(raw)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return spaces, nil
}

// SpaceBusinessNames maps space ids to their business names.
func (c *HTTPClient) SpaceBusinessNames(ctx context.Context) (map[string]string, error) {
	q := url.Values{}
	q.Set("inSpaceManagement", "true")
	q.Set("details", "id,name,business_name")

	raw, err := c.get(ctx, spaceNamesPath, q, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("space business names: %w", err)
	}
	names, err := parseBusinessNames(raw)
	if err != nil {
		return nil, fmt.Errorf("space business names: %w", err)
	}
	return names, nil
}

// ListObjects returns the design objects of one space.
func (c *HTTPClient) ListObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error) {
	path := fmt.Sprintf(designObjectsPath, url.PathEscape(spaceID))
	raw, err := c.get(ctx, path, nil, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("list objects of space %s: %w", spaceID, err)
	}
	objects, err := parseObjects(raw, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list objects of space %s: %w", spaceID, err)
	}
	return objects, nil
}

// GetDependencies returns the raw dependency payload for objectID.
// The payload shape is not interpreted here.
func (c *HTTPClient) GetDependencies(ctx context.Context, objectID string, opts DependencyOptions) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("ids", objectID)
	q.Set("recursive", strconv.FormatBool(opts.Recursive))
	q.Set("impact", strconv.FormatBool(opts.Impact))
	q.Set("lineage", strconv.FormatBool(opts.Lineage))
	if len(opts.DependencyTypes) > 0 {
		q.Set("dependencyTypes", strings.Join(opts.DependencyTypes, ","))
	}

	raw, err := c.get(ctx, dependenciesPath, q, c.lineageTimeout)
	if err != nil {
		return nil, fmt.Errorf("dependencies of %s: %w", objectID, err)
	}
	return raw, nil
}

// get performs a GET with exponential backoff on transient failures.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, timeout time.Duration) (json.RawMessage, error) {
	attempts := c.maxRetries + 1
	backoff := c.backoff
	var lastErr error

	for i := 0; i < attempts; i++ {
		body, err := c.do(ctx, path, query, timeout)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err

		if i < attempts-1 {
			c.log.Debugw("Request failed, retrying",
				"path", path,
				"attempt", i+1,
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, &UnreachableError{Path: path, Attempts: attempts, Err: lastErr}
}

func (c *HTTPClient) do(ctx context.Context, path string, query url.Values, timeout time.Duration) (json.RawMessage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return json.RawMessage(body), nil
}
