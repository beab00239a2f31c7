package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/pkg/config"
	xhttp "SwingDesk/pkg/http"
)

var (
	// ErrNotConfigured means the provider has no API key and is skipped.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrNoData means the provider answered but had no usable bars.
	ErrNoData = errors.New("no data")
)

const (
	defaultAttempts = 3
	userAgent       = "Mozilla/5.0 (compatible; SwingDesk/1.0)"
)

// providerBase centralizes HTTP client construction, rate limiting and retries
// for the REST market-data providers.
type providerBase struct {
	name    string
	baseURL string
	apiKey  string
	client  *xhttp.Client

	limiter  *ratelimit.Limiter
	rps      float64
	burst    float64
	attempts int
}

func newProviderBase(name, defaultURL string, cfg config.Provider, limiter *ratelimit.Limiter) providerBase {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	burst := float64(cfg.Burst)
	if burst < 1 {
		burst = 1
	}
	return providerBase{
		name:     name,
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(userAgent)),
		limiter:  limiter,
		rps:      cfg.RequestsPerSecond,
		burst:    burst,
		attempts: defaultAttempts,
	}
}

func (b *providerBase) Name() string { return b.name }

// getJSON waits for a rate-limit token and GETs baseURL+path.
func (b *providerBase) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if b.limiter != nil && b.rps > 0 {
		if err := b.limiter.Wait(ctx, b.name, b.burst, b.rps); err != nil {
			return fmt.Errorf("%s rate limit: %w", b.name, err)
		}
	}
	if err := b.client.GetJSON(ctx, b.baseURL+path, query, dest); err != nil {
		return fmt.Errorf("%s get %s: %w", b.name, path, err)
	}
	return nil
}

// getJSONWithRetry retries transient failures with linear backoff.
func (b *providerBase) getJSONWithRetry(ctx context.Context, path string, query url.Values, dest interface{}) error {
	var err error
	for i := 1; i <= b.attempts; i++ {
		err = b.getJSON(ctx, path, query, dest)
		if err == nil || !retryable(err) {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * 100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// transport errors
	return true
}
