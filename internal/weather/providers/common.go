package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weatherlab/internal/observability"
)

// resultCount is how many candidates are requested from the geocoding endpoints.
const resultCount = 5

// HTTPClientConfig bundles the shared HTTP client and instrumentation.
type HTTPClientConfig struct {
	Client  *http.Client
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// endpoint is one provider URL guarded by its own circuit breaker.
type endpoint struct {
	name    string
	baseURL string
	circuit *gobreaker.CircuitBreaker
}

func newEndpoint(name, baseURL string) endpoint {
	return endpoint{
		name:    name,
		baseURL: baseURL,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         name,
			MaxRequests:  5,
			Interval:     1 * time.Minute,
			Timeout:      2 * time.Minute,
			IsSuccessful: countsAsSuccess,
		}),
	}
}

// countsAsSuccess keeps caller cancellations and client-side rejections from
// tripping the breaker; only transport failures, 429s and 5xx count.
func countsAsSuccess(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, errUnexpected):
		return true
	default:
		return false
	}
}

// getJSON issues a single GET (no retries) through the endpoint's circuit
// breaker and decodes the JSON body into target.
func getJSON(ctx context.Context, cfg HTTPClientConfig, ep endpoint, values url.Values, target any) error {
	if cfg.Client == nil {
		return errNoHTTPClient
	}

	u := fmt.Sprintf("%s?%s", ep.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", ep.name, err)
	}

	start := time.Now()
	result, err := ep.circuit.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		// Handle rate limiting and server errors explicitly.
		if resp.StatusCode == http.StatusTooManyRequests {
			drain(resp)
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			drain(resp)
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, body)
		}

		return resp, nil
	})
	cfg.observe(ep.name, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s: %w: %v", ep.name, errCircuitOpen, err)
		}
		return fmt.Errorf("%s request: %w", ep.name, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", ep.name, err)
	}
	return nil
}

func (cfg HTTPClientConfig) observe(name string, elapsed time.Duration, err error) {
	if cfg.Logger != nil {
		cfg.Logger.Debug("provider request", "endpoint", name, "duration", elapsed, "error", err)
	}
	if cfg.Metrics == nil {
		return
	}

	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "circuit_open"
	case err != nil:
		outcome = "error"
	}
	cfg.Metrics.ProviderRequests.WithLabelValues(name, outcome).Inc()
	cfg.Metrics.ProviderDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%f", v)
}

// numberOrNil keeps only JSON numbers; anything else becomes nil, never zero.
func numberOrNil(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func firstNumber(values []any) *float64 {
	if len(values) == 0 {
		return nil
	}
	return numberOrNil(values[0])
}
