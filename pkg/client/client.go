// Package client provides the HTTP client for the Star Wars API (SWAPI).
//
// The client issues a single GET per call: no retries, no circuit breaking.
// Failures are mapped to apperr external source errors carrying the
// upstream status, 504 for timeouts, or 502 for transport failures.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/pagination"
)

// Prometheus metrics for SWAPI client operations.
var (
	swapiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_requests_total",
		Help: "Total SWAPI requests by resource and status",
	}, []string{"resource", "status"})

	swapiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swapi_request_duration_seconds",
		Help:    "SWAPI request duration in seconds by resource",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"resource"})

	swapiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_errors_total",
		Help: "Total SWAPI errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public SWAPI root.
	DefaultBaseURL = "https://swapi.dev/api"

	// DefaultTimeout applies when neither the call nor the config sets one.
	DefaultTimeout = 30 * time.Second

	// SourcePageSize is the fixed page size SWAPI uses for collections.
	SourcePageSize = 10
)

// Client is the SWAPI client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://swapi.dev/api"
	BaseURL string

	// UserAgent sent with every request
	UserAgent string

	// Timeout is the default per-request timeout
	Timeout time.Duration
}

// DefaultConfig returns a configuration pointing at the public SWAPI.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   DefaultTimeout,
	}
}

// New creates a new SWAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		// Timeouts are applied per request through the context.
		httpClient: &http.Client{},
		config:     cfg,
		logger:     log.With().Str("component", "swapi-client").Logger(),
	}, nil
}

// RequestOption customizes a single GET.
type RequestOption func(*requestOptions)

type requestOptions struct {
	timeout time.Duration
	headers map[string]string
	query   url.Values
}

// WithTimeout overrides the client default timeout for one call.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Set(key, value)
	}
}

// BaseURL returns the configured API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// ResourceURL joins the API root with path segments and a trailing slash,
// the canonical SWAPI form: ResourceURL("people", "1") -> ".../people/1/".
func (c *Client) ResourceURL(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.config.BaseURL)
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(s)
	}
	b.WriteByte('/')
	return b.String()
}

// Get fetches rawURL and returns the JSON body. rawURL may be absolute or
// a path relative to BaseURL.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (json.RawMessage, error) {
	o := requestOptions{timeout: c.config.Timeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = c.config.Timeout
	}

	target, err := c.resolve(rawURL, o.query)
	if err != nil {
		swapiErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
		return nil, apperr.ExternalSource("invalid request url", http.StatusBadGateway, err)
	}
	resource := resourceLabel(target.Path)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		swapiErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
		return nil, apperr.ExternalSource("create request", http.StatusBadGateway, err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	startTime := time.Now()
	defer func() {
		swapiRequestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("url", target.String()).
		Dur("timeout", o.timeout).
		Msg("Executing SWAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := classifyTransport(err)
		swapiErrorsTotal.WithLabelValues(string(class)).Inc()
		swapiRequestsTotal.WithLabelValues(resource, string(class)).Inc()
		c.logger.Error().Err(err).
			Str("url", target.String()).
			Str("error_class", string(class)).
			Msg("SWAPI request failed")
		if class == ErrorClassTimeout {
			return nil, apperr.ExternalSource("SWAPI request timed out", statusForClass(class), err)
		}
		return nil, apperr.ExternalSource("SWAPI request failed", statusForClass(class), err)
	}
	defer resp.Body.Close()

	swapiRequestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		swapiErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("url", target.String()).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("SWAPI request error")
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperr.ExternalSource(fmt.Sprintf("SWAPI returned %s", resp.Status), resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		class := classifyTransport(err)
		swapiErrorsTotal.WithLabelValues(string(class)).Inc()
		return nil, apperr.ExternalSource("read SWAPI response", statusForClass(class), err)
	}
	if !json.Valid(body) {
		swapiErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, apperr.ExternalSource("SWAPI returned invalid JSON", http.StatusBadGateway, nil)
	}

	return json.RawMessage(body), nil
}

// Post always fails with ErrNotSupported.
func (c *Client) Post(_ context.Context, _ string, _ any) (json.RawMessage, error) {
	return nil, ErrNotSupported
}

// collectionPage is the envelope SWAPI wraps list responses in.
type collectionPage struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// FetchPage fetches one page of a collection and reports the total number
// of pages. It implements pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, endpoint string, pageNum int) ([]byte, int, error) {
	body, err := c.Get(ctx, endpoint, WithQuery("page", strconv.Itoa(pageNum)))
	if err != nil {
		return nil, 0, err
	}

	var page collectionPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, 0, apperr.ExternalSource("decode collection page", http.StatusBadGateway, err)
	}

	totalPages := pagination.TotalPages(page.Count, SourcePageSize)
	if totalPages == 0 {
		totalPages = 1
	}
	return body, totalPages, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) resolve(rawURL string, query url.Values) (*url.URL, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = c.config.BaseURL + "/" + strings.TrimLeft(rawURL, "/")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// resourceLabel reduces a path to its collection name to keep metric
// cardinality bounded: "/api/people/1/" -> "people".
func resourceLabel(path string) string {
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		switch seg {
		case "people", "films", "planets", "starships", "species", "vehicles":
			return seg
		}
	}
	return "other"
}
