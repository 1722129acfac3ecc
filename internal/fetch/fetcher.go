package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fortuna/scoretree/internal/logging"
	"github.com/fortuna/scoretree/internal/metrics"
)

// ErrStatus marks a response with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// Options configures an HTTPFetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// RatePerSecond <= 0 disables pacing.
	RatePerSecond float64
	Burst         int

	// Retries are transport-level only; the pipeline itself never retries.
	Retries int

	// BreakerFailures consecutive failures trip an endpoint's breaker; 0 disables breakers.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	Metrics *metrics.Metrics
	Logger  logrus.FieldLogger
}

// HTTPFetcher issues GET requests with resty. Repeated URLs are always
// re-fetched; nothing is cached or deduplicated.
type HTTPFetcher struct {
	http    *resty.Client
	limiter *rate.Limiter
	opts    Options
	log     logrus.FieldLogger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates an HTTPFetcher.
func New(opts Options) *HTTPFetcher {
	f := &HTTPFetcher{
		opts:     opts,
		log:      logging.Component(opts.Logger, "fetch"),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}

	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept", "application/json")
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries)
	}

	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return f.limiter.Wait(req.Context())
		})
	}

	f.http = client
	return f
}

// Get fetches url and returns the body. endpoint labels metrics and selects
// the circuit breaker.
func (f *HTTPFetcher) Get(ctx context.Context, endpoint, url string) ([]byte, error) {
	start := time.Now()

	body, err := f.execute(endpoint, func() ([]byte, error) {
		return f.do(ctx, url)
	})

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeRejected
	case err != nil:
		outcome = metrics.OutcomeError
	}
	f.opts.Metrics.ObserveRequest(endpoint, outcome, time.Since(start))

	if err != nil {
		f.log.WithFields(logrus.Fields{
			"endpoint":       endpoint,
			logging.FieldURL: url,
		}).WithError(err).Debug("request failed")
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) do(ctx context.Context, url string) ([]byte, error) {
	res, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %d from %s", ErrStatus, res.StatusCode(), url)
	}

	f.log.WithFields(logrus.Fields{
		logging.FieldURL: url,
		"status":         res.StatusCode(),
		"bytes":          len(res.Body()),
	}).Debug("request succeeded")
	return res.Body(), nil
}

func (f *HTTPFetcher) execute(endpoint string, fn func() ([]byte, error)) ([]byte, error) {
	cb := f.breaker(endpoint)
	if cb == nil {
		return fn()
	}

	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (f *HTTPFetcher) breaker(endpoint string) *gobreaker.CircuitBreaker {
	if f.opts.BreakerFailures == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[endpoint]; ok {
		return cb
	}

	threshold := f.opts.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Timeout:     f.opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			f.log.WithFields(logrus.Fields{
				"endpoint": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	f.breakers[endpoint] = cb
	return cb
}

// BreakerState reports the breaker state of an endpoint; closed when disabled.
func (f *HTTPFetcher) BreakerState(endpoint string) gobreaker.State {
	if cb := f.breaker(endpoint); cb != nil {
		return cb.State()
	}
	return gobreaker.StateClosed
}
