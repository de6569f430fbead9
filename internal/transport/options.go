package transport

import (
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one fetch, retries included.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval paces size polling of sources that do not push
	// changes.
	DefaultPollInterval = 5 * time.Second

	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the connector logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Connector) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout bounds every fetch. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetry retries failed fetches with an exponential backoff starting at
// initial and giving up after maxElapsed. A zero maxElapsed disables retries.
func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(c *Connector) {
		c.newBackOff = func() backoff.BackOff {
			if maxElapsed <= 0 {
				return &backoff.StopBackOff{}
			}
			return newExponentialBackOff(initial, maxElapsed)
		}
	}
}

// WithRateLimit caps remote calls to perSecond with bursts of burst. A non
// positive rate removes the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Connector) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithErrorHandler is called with fetch errors that survived all retries.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Connector) {
		c.onError = fn
	}
}

func newExponentialBackOff(initial, maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if initial > 0 {
		b.InitialInterval = initial
	}
	b.MaxInterval = max(defaultMaxInterval, b.InitialInterval)
	b.MaxElapsedTime = maxElapsed
	b.Reset()
	return b
}
