package datasource

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures a RemoteDataSource.
type Option func(*options)

type options struct {
	strategy       CacheStrategy
	log            logrus.FieldLogger
	requestTimeout time.Duration
	assertions     bool
	size           int
	now            func() time.Time
}

func defaultOptions() options {
	return options{
		strategy: NewDefaultStrategy(),
		log:      logrus.StandardLogger(),
		size:     SizeUnknown,
		now:      time.Now,
	}
}

// WithStrategy sets the initial cache strategy.
func WithStrategy(s CacheStrategy) Option {
	return func(o *options) {
		if s != nil {
			o.strategy = s
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRequestTimeout abandons a fetch that has not delivered after d.
// Zero disables the deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.requestTimeout = d
	}
}

// WithAssertions makes strategy contract violations panic instead of being
// logged.
func WithAssertions(on bool) Option {
	return func(o *options) {
		o.assertions = on
	}
}

// WithInitialSize sets the initial size estimate.
func WithInitialSize(n int) Option {
	return func(o *options) {
		o.size = n
	}
}

// WithClock overrides the clock used to time round trips.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
