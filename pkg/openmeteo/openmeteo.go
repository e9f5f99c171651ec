// Package openmeteo is a client for the Open-Meteo geocoding and forecast APIs.
// Neither API needs a key.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"
	DefaultForecastURL  = "https://api.open-meteo.com/v1"

	maxBodyBytes = 1 << 20
)

type Config struct {
	GeocodingURL string        `split_words:"true" default:"https://geocoding-api.open-meteo.com/v1"`
	ForecastURL  string        `split_words:"true" default:"https://api.open-meteo.com/v1"`
	Language     string        `split_words:"true" default:"en"`
	Count        int           `split_words:"true" default:"3"`
	Timeout      time.Duration `split_words:"true" default:"8s"`
	Retries      int           `split_words:"true" default:"1"`
	RetryBackoff time.Duration `split_words:"true" default:"350ms"`
}

type Client struct {
	geocodingURL string
	forecastURL  string
	language     string
	count        int
	retries      int
	backoff      time.Duration
	httpClient   *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	geocodingURL := strings.TrimSpace(cfg.GeocodingURL)
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	forecastURL := strings.TrimSpace(cfg.ForecastURL)
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	for _, raw := range []string{geocodingURL, forecastURL} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, fmt.Errorf("open-meteo: invalid url %q: %w", raw, err)
		}
	}
	if cfg.Retries < 0 {
		return nil, errors.New("open-meteo: retries must not be negative")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	count := cfg.Count
	if count <= 0 {
		count = 3
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}

	return &Client{
		geocodingURL: strings.TrimRight(geocodingURL, "/"),
		forecastURL:  strings.TrimRight(forecastURL, "/"),
		language:     language,
		count:        count,
		retries:      cfg.Retries,
		backoff:      cfg.RetryBackoff,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// StatusError is a non-2xx answer from Open-Meteo.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("open-meteo: status %d: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("open-meteo: status %d", e.Code)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// getJSON issues a GET and decodes the body into out, retrying network errors,
// 429 and 5xx answers up to c.retries times.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	full := endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			log.Debug().Err(lastErr).Int("attempt", attempt+1).Str("url", endpoint).Msg("retrying open-meteo request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := c.do(ctx, full, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, full string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return fmt.Errorf("open-meteo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open-meteo: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("open-meteo: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return &StatusError{Code: resp.StatusCode, Reason: apiErr.Reason}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("open-meteo: decode body: %w", err)
	}
	return nil
}
