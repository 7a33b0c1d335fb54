// Package httpclient performs JSON GET requests against REST APIs with retry
// on throttling and server errors.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"slices"
	"time"
)

// StatusError is returned when the response status is not one of the accepted ones.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, http.StatusText(e.Code))
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Retry controls how failed requests are repeated. The zero value disables retries.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// Requester issues GET requests. The zero value uses http.DefaultClient and no retries.
type Requester struct {
	Client *http.Client
	Retry  Retry
}

// Get fetches baseURL+endpoint with query and returns the raw body.
// Statuses outside okStatuses yield a *StatusError.
func (r *Requester) Get(ctx context.Context, baseURL, endpoint string, query url.Values, okStatuses []int) ([]byte, error) {
	var lastErr error
	backoff := r.Retry.Backoff

	for attempt := 0; attempt <= r.Retry.Attempts; attempt++ {
		if attempt > 0 {
			wait := backoff/2 + time.Duration(rand.Int64N(int64(backoff)+1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}

		body, err := r.do(ctx, baseURL, endpoint, query, okStatuses)
		if err == nil {
			return body, nil
		}
		lastErr = err

		statusErr, ok := err.(*StatusError)
		if !ok || !statusErr.Retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (r *Requester) do(ctx context.Context, baseURL, endpoint string, query url.Values, okStatuses []int) ([]byte, error) {
	fullURL := baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if !slices.Contains(okStatuses, resp.StatusCode) {
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}

	return body, nil
}

// GetResource fetches endpoint and decodes the JSON body into T.
func GetResource[T any](ctx context.Context, r *Requester, baseURL, endpoint string, query url.Values, okStatuses []int) (T, error) {
	var res T

	body, err := r.Get(ctx, baseURL, endpoint, query, okStatuses)
	if err != nil {
		return res, err
	}

	if err := json.Unmarshal(body, &res); err != nil {
		return res, fmt.Errorf("couldn't decode %s: %w", endpoint, err)
	}

	return res, nil
}
