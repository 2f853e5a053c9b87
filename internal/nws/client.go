// Package nws is a client for the National Weather Service API
// (https://api.weather.gov). It covers the endpoints the weather tools
// need: active alerts by state and gridpoint forecasts by coordinate.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public NWS API endpoint.
	DefaultBaseURL = "https://api.weather.gov"
	// DefaultUserAgent identifies this app to the NWS, which requires a
	// User-Agent on every request.
	DefaultUserAgent = "weather-app/1.0"
	// DefaultTimeout bounds each API request.
	DefaultTimeout = 30 * time.Second
)

var stateRe = regexp.MustCompile(`^[A-Z]{2}$`)

// Cache is an optional read-through cache for raw API responses, keyed by URL.
// Implementations decide expiry. A nil cache disables caching.
type Cache interface {
	Get(url string) ([]byte, bool)
	Put(url string, body []byte)
}

// Client is a client for the NWS API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      Cache
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      Cache
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a Client with the given options. With no options it talks to
// the public API with the default user agent and timeout.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	userAgent := cfg.userAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = DefaultTimeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		cache:      cfg.cache,
		logger:     logger,
	}, nil
}

// WithBaseURL overrides the API endpoint (tests point this at httptest).
func WithBaseURL(u string) Option {
	return func(cfg *clientConfig) error {
		if u == "" {
			return fmt.Errorf("nws: base URL must not be empty")
		}
		cfg.baseURL = u
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cfg *clientConfig) error {
		cfg.userAgent = ua
		return nil
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithCache attaches a response cache.
func WithCache(c Cache) Option {
	return func(cfg *clientConfig) error {
		cfg.cache = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// ActiveAlerts returns the active alerts for a US state or territory.
// The state code is upcased and must be two letters (e.g. "CA", "NY").
func (c *Client) ActiveAlerts(ctx context.Context, state string) (*AlertCollection, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if !stateRe.MatchString(state) {
		return nil, fmt.Errorf("nws: invalid state code %q (want two letters, e.g. CA)", state)
	}
	u := fmt.Sprintf("%s/alerts/active/area/%s", c.baseURL, state)
	var ac AlertCollection
	if err := c.getJSON(ctx, u, "get active alerts", &ac); err != nil {
		return nil, err
	}
	return &ac, nil
}

// Lookup resolves a coordinate to its NWS gridpoint. Coordinates are
// truncated to four decimal places; the API redirects longer ones.
func (c *Client) Lookup(ctx context.Context, lat, lon float64) (*Point, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("nws: latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("nws: longitude %v out of range [-180, 180]", lon)
	}
	u := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)
	var p Point
	if err := c.getJSON(ctx, u, "lookup gridpoint", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Forecast returns the periodic forecast for a coordinate. It resolves the
// gridpoint first, then follows the forecast URL from the point response.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	p, err := c.Lookup(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return c.ForecastByURL(ctx, p.Properties.Forecast)
}

// HourlyForecast returns the hourly forecast for a coordinate.
func (c *Client) HourlyForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	p, err := c.Lookup(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return c.ForecastByURL(ctx, p.Properties.ForecastHourly)
}

// ForecastByURL fetches a forecast product at the URL a point response
// advertised. Callers that already hold a Point use this to avoid a second
// gridpoint lookup.
func (c *Client) ForecastByURL(ctx context.Context, url string) (*Forecast, error) {
	if url == "" {
		return nil, fmt.Errorf("get forecast: point response has no forecast URL")
	}
	var f Forecast
	if err := c.getJSON(ctx, url, "get forecast", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// getJSON fetches a URL and decodes the geo+json response into dst.
// Responses are served from the cache when present; cache failures are
// advisory and never fail the fetch. Error responses decode the NWS
// problem+json body into an *APIError.
func (c *Client) getJSON(ctx context.Context, url, operation string, dst any) error {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			c.logger.DebugContext(ctx, "cache hit", "operation", operation, "url", url)
			if err := json.Unmarshal(body, dst); err == nil {
				return nil
			}
			// Corrupt cache entry: fall through to a live fetch.
			c.logger.WarnContext(ctx, "cached response undecodable, refetching", "url", url)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	c.logger.InfoContext(ctx, "API request", "operation", operation, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "API response", "operation", operation, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var prob struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &prob) == nil && prob.Title != "" {
			return newAPIError(operation, resp.StatusCode, prob.Title, prob.Detail)
		}
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = resp.Status
		}
		return newAPIError(operation, resp.StatusCode, msg, "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	if c.cache != nil {
		c.cache.Put(url, body)
	}
	return nil
}
