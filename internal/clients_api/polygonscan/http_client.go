package polygonscan

// Package polygonscan contains the client for the Polygonscan account API.
// This file contains the base HTTP client - rate limiting, circuit breaker
// and retries live here; endpoint methods are in accounts.go.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"polymarket-alert/internal/infra/config"
	"polymarket-alert/internal/infra/log"
	"polymarket-alert/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Polygonscan endpoint.
const DefaultBaseURL = "https://api.polygonscan.com/api"

// Client is the Polygonscan API client. All requests go through the rate
// limiter and circuit breaker; 429/5xx responses are retried with backoff.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
	maxRetries      int
}

// NewClient builds a client from configuration. Polygonscan's free tier
// allows 5 requests per second, so the limiter stays under that.
func NewClient(cfg config.PolygonscanConfig, maxResponseSize int64) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxResponseSize <= 0 {
		maxResponseSize = 10 * 1024 * 1024
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PolygonscanAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:         baseURL,
		apiKey:          cfg.APIKey,
		rateLimiter:     rate.NewLimiter(rate.Limit(4), 4),
		circuitBreaker:  circuitBreaker,
		maxResponseSize: maxResponseSize,
		maxRetries:      cfg.MaxRetries,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
		},
	}
}

// MakeRequest performs a GET with the given query parameters, applying the
// rate limiter, circuit breaker and retry policy. The api key is attached
// here so endpoint methods never handle it.
func (c *Client) MakeRequest(ctx context.Context, params url.Values) ([]byte, error) {
	requestID := log.GenerateRequestID()
	startTime := time.Now()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	params.Set("apikey", c.apiKey)
	endpoint := "?module=" + params.Get("module") + "&action=" + params.Get("action")

	var respBody []byte
	err := retry.Do(ctx, retry.Options{
		MaxRetries: c.maxRetries,
		BaseDelay:  300 * time.Millisecond,
		MaxDelay:   3 * time.Second,
	}, func() error {
		var err error
		if c.circuitBreaker != nil {
			_, err = c.circuitBreaker.Execute(func() (interface{}, error) {
				body, reqErr := c.doRequest(ctx, requestID, params, startTime)
				if reqErr != nil {
					return nil, reqErr
				}
				respBody = body
				return body, nil
			})
		} else {
			respBody, err = c.doRequest(ctx, requestID, params, startTime)
		}
		return err
	})
	if err != nil {
		log.LogError("Polygonscan request failed",
			zap.String("request_id", requestID),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, err
	}

	return respBody, nil
}

func (c *Client) doRequest(ctx context.Context, requestID string, params url.Values, startTime time.Time) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	endpoint := "?module=" + params.Get("module") + "&action=" + params.Get("action")
	log.LogRequest(requestID, http.MethodGet, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(startTime).Milliseconds()
		log.LogResponse(requestID, 0, duration, zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, c.maxResponseSize)
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		duration := time.Since(startTime).Milliseconds()
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	duration := time.Since(startTime).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint))
	return respBody, nil
}
