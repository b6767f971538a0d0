// Package weather proxies the OpenWeatherMap current-weather API. It is
// the one externally time-bounded call in the system, so it runs behind
// a bounded timeout and a circuit breaker.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"shop-api/circuitbreaker"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// DefaultCity is used when the caller does not pass ?city=.
const DefaultCity = "London"

var (
	// ErrMissingAPIKey is a configuration error, not an upstream one.
	ErrMissingAPIKey = errors.New("WEATHER_API_KEY is not configured on the server")
	// ErrUpstreamTimeout marks a request the upstream did not answer in time.
	ErrUpstreamTimeout = errors.New("weather API request timed out")
)

// UpstreamError carries a non-2xx upstream answer so the handler can
// relay its status and body.
type UpstreamError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather API returned status %d", e.StatusCode)
}

// Report is the trimmed response shape, with the raw upstream payload
// attached for callers that want the rest.
type Report struct {
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Temperature float64         `json:"temperature"`
	FeelsLike   float64         `json:"feelsLike"`
	Description string          `json:"description"`
	Humidity    int             `json:"humidity"`
	WindSpeed   float64         `json:"windSpeed"`
	Raw         json.RawMessage `json:"raw"`
}

type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

type Option func(*Client)

// WithBaseURL points the client at a different upstream, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func NewClient(apiKey string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    circuitbreaker.New(5, 30*time.Second),
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current fetches the current weather for a city in metric units.
func (c *Client) Current(ctx context.Context, city string) (*Report, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if city == "" {
		city = DefaultCity
	}

	var report *Report
	err := c.breaker.Execute(ctx, func() error {
		var err error
		report, err = c.fetch(ctx, city)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Client) fetch(ctx context.Context, city string) (*Report, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("failed to reach weather API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	var payload struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather API response: %w", err)
	}

	report := &Report{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Raw:         body,
	}
	if len(payload.Weather) > 0 {
		report.Description = payload.Weather[0].Description
	}
	return report, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
