// Package upstream performs outbound JSON requests to the external providers.
// Every call runs through a per-provider circuit breaker and fails with *Error,
// which names the logical purpose of the call and never the request URL.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"movie-aggregator-service/internal/metrics"
)

const maxErrorBody = 256

// Error reports a failed call to an external provider.
type Error struct {
	Purpose string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: provider returned status %d: %v", e.Purpose, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Purpose, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is, or wraps, an upstream *Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return e.body }

// Fetcher issues GET requests against one provider.
type Fetcher struct {
	name string
	http *http.Client
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
//
// Circuit breaker configuration:
// - Max 3 requests in half-open state
// - 1 minute measurement window
// - 30 second cool-down before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewFetcher(name string, timeout time.Duration) *Fetcher {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				slog.Warn("opening circuit breaker", "upstream", name, "failures", counts.TotalFailures, "failure_ratio", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change", "upstream", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Fetcher{
		name: name,
		http: &http.Client{Timeout: timeout},
		cb:   cb,
	}
}

// Name returns the provider name used for logs and metrics.
func (f *Fetcher) Name() string { return f.name }

// State returns the current circuit breaker state.
func (f *Fetcher) State() gobreaker.State { return f.cb.State() }

// GetJSON fetches rawURL and decodes the JSON body into out.
// Transport failures, non-2xx statuses and malformed bodies all count
// against the circuit breaker and surface as *Error.
func (f *Fetcher) GetJSON(ctx context.Context, purpose, rawURL string, header http.Header, out any) error {
	start := time.Now()
	_, err := f.cb.Execute(func() (struct{}, error) {
		return struct{}{}, f.fetch(ctx, rawURL, header, out)
	})
	metrics.UpstreamDuration.WithLabelValues(f.name).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.UpstreamRequests.WithLabelValues(f.name, "rejected").Inc()
	} else {
		metrics.UpstreamRequests.WithLabelValues(f.name, "failure").Inc()
	}

	uerr := &Error{Purpose: purpose, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		uerr.Status = se.code
	}
	return uerr
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", stripURL(err))
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// stripURL drops the request URL from transport errors; it carries API keys.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
