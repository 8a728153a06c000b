// Package resilience provides an HTTP client with a circuit breaker and
// bounded exponential-backoff retries for calls to external hosts. The service
// uses it for the one-off download of a remote model artifact at startup.
package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// ReadyToTrip decides when to open. Nil means DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// DefaultReadyToTrip trips once at least 5 requests were made and half of
// them failed.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// Config holds configuration for the resilient HTTP client.
type Config struct {
	// Name identifies the client in logs and in the breaker.
	Name string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retrying.
	MaxRetries uint64

	// InitialInterval and MaxInterval bound the exponential backoff.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	Breaker BreakerConfig

	Logger zerolog.Logger

	// Metrics is optional.
	Metrics *Metrics
}

// DefaultClientConfig returns the configuration used for artifact downloads.
func DefaultClientConfig(name string) Config {
	return Config{
		Name:            name,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests: 1,
			Timeout:     60 * time.Second,
			ReadyToTrip: DefaultReadyToTrip,
		},
		Logger: zerolog.Nop(),
	}
}

// Client is a resilient HTTP client.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	cfg        Config
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.Breaker.ReadyToTrip == nil {
		cfg.Breaker.ReadyToTrip = DefaultReadyToTrip
	}

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{ //nolint:bodyclose // type param, not response
		Name:        cfg.Name,
		MaxRequests: cfg.Breaker.MaxRequests,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: cfg.Breaker.ReadyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		cfg:        cfg,
	}
}

// Do executes req through the breaker, retrying network errors and 5xx
// responses. 4xx responses are returned as-is without retrying. When retries
// are exhausted on a 5xx, the last response is returned with a nil error.
func (c *Client) Do(req *http.Request) (resp *http.Response, err error) {
	ctx := req.Context()
	start := time.Now()
	defer func() {
		c.cfg.Metrics.RecordRequest(ctx, c.cfg.Name, time.Since(start), err)
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var lastResp *http.Response
	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if lastResp != nil {
				_ = lastResp.Body.Close()
			}
			lastResp = resp
			return err
		}

		lastResp = resp
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.cfg.Metrics.RecordRetry(ctx, c.cfg.Name)
		c.cfg.Logger.Warn().
			Err(err).
			Str("client", c.cfg.Name).
			Str("url", req.URL.Redacted()).
			Dur("retry_in", wait).
			Msg("request failed, retrying")
	}

	if retryErr := backoff.RetryNotify(operation, policy, notify); retryErr != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, retryErr
	}
	return lastResp, nil
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// State returns the current circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
