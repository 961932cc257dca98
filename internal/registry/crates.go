// SPDX-License-Identifier: MPL-2.0

// Package registry queries the crates.io API for published package versions.
// Calls are serialized through a rate limiter so that a full workspace scan
// stays within the crawler policy of the registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/emanate/emanate/pkg/version"
)

const (
	// DefaultBaseURL is the crates.io API host.
	DefaultBaseURL = "https://crates.io"

	// DefaultInterval is the minimum delay between two registry calls.
	DefaultInterval = time.Second

	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

type (
	// Client queries the registry for the versions of a package.
	Client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
		limiter    *rate.Limiter
		logger     *log.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// crateResponse is the JSON wire format of GET /api/v1/crates/{name}.
	crateResponse struct {
		Versions []crateVersion `json:"versions"`
	}

	crateVersion struct {
		Num    string `json:"num"`
		Yanked bool   `json:"yanked"`
	}
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *Client) {
		r.httpClient = c
	}
}

// WithBaseURL overrides the registry base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(r *Client) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
// crates.io rejects requests without one.
func WithUserAgent(ua string) ClientOption {
	return func(r *Client) {
		r.userAgent = ua
	}
}

// WithInterval sets the minimum delay between two calls. Zero disables
// rate limiting.
func WithInterval(d time.Duration) ClientOption {
	return func(r *Client) {
		if d <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(r *Client) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewClient creates a Client with sensible defaults.
// Defaults: baseURL=DefaultBaseURL, userAgent="emanate/dev",
// one call per DefaultInterval, httpClient=http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "emanate/dev",
		limiter:    rate.NewLimiter(rate.Every(DefaultInterval), 1),
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Versions returns every non-yanked version of name in ascending order.
// Versions that do not parse as semantic versions are ignored.
func (c *Client) Versions(ctx context.Context, name string) ([]version.Version, error) {
	vs, err := c.fetch(ctx, name)
	if err != nil {
		return nil, &Error{Package: name, Err: err}
	}
	return vs, nil
}

// LatestVersion returns the highest non-yanked version, pre-releases included.
func (c *Client) LatestVersion(ctx context.Context, name string) (version.Version, error) {
	return c.latest(ctx, name, func(version.Version) bool { return true })
}

// LatestStableVersion returns the highest non-yanked version without a
// pre-release suffix.
func (c *Client) LatestStableVersion(ctx context.Context, name string) (version.Version, error) {
	return c.latest(ctx, name, func(v version.Version) bool { return !v.IsPrerelease() })
}

func (c *Client) latest(ctx context.Context, name string, keep func(version.Version) bool) (version.Version, error) {
	vs, err := c.fetch(ctx, name)
	if err != nil {
		return version.Version{}, &Error{Package: name, Err: err}
	}
	vs = slices.DeleteFunc(vs, func(v version.Version) bool { return !keep(v) })
	latest, ok := version.Max(vs)
	if !ok {
		return version.Version{}, &Error{Package: name, Err: ErrNoVersions}
	}
	return latest, nil
}

func (c *Client) fetch(ctx context.Context, name string) ([]version.Version, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/crates/%s", c.baseURL, url.PathEscape(name))
	c.logger.Debug("querying registry", "package", name, "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &HTTPError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	var body crateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	vs := make([]version.Version, 0, len(body.Versions))
	for _, cv := range body.Versions {
		if cv.Yanked {
			continue
		}
		v, err := version.Parse(cv.Num)
		if err != nil {
			c.logger.Debug("ignoring unparseable registry version", "package", name, "version", cv.Num)
			continue
		}
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return nil, ErrNoVersions
	}
	slices.SortFunc(vs, version.Version.Compare)
	return vs, nil
}
