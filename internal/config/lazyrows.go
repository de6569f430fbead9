package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/transport"
	"github.com/sirupsen/logrus"
)

// Default values
const (
	DefaultAPITimeout        = 30 * time.Second
	DefaultRequestTimeout    = 45 * time.Second
	DefaultRetryInterval     = 250 * time.Millisecond
	DefaultRetryMaxElapsed   = 30 * time.Second
	DefaultSlowFetch         = 500 * time.Millisecond
	DefaultPageSize          = 100
	DefaultMaxAdaptiveFactor = 8.0
	DefaultKind              = "mem/rows"
	DefaultSeed              = 100_000
)

// LazyRows represents the lazyrows global configuration.
type LazyRows struct {
	RefreshRate    float32        `yaml:"refreshRate"`
	APITimeout     string         `yaml:"apiTimeout"`
	RequestTimeout string         `yaml:"requestTimeout"`
	PageSize       int            `yaml:"pageSize"`
	Cache          data.Cache     `yaml:"cache"`
	Retry          data.Retry     `yaml:"retry"`
	RateLimit      data.RateLimit `yaml:"rateLimit"`
	Source         data.Source    `yaml:"source"`
	Logger         data.Logger    `yaml:"logger"`

	mx sync.RWMutex
}

// NewLazyRows creates a LazyRows with default settings.
func NewLazyRows() *LazyRows {
	l := LazyRows{}
	l.Validate()

	return &l
}

// Validate replaces missing or invalid settings with their defaults.
func (l *LazyRows) Validate() {
	l.mx.Lock()
	defer l.mx.Unlock()

	if l.RefreshRate <= 0 {
		l.RefreshRate = DefaultRefreshRate
	}
	l.APITimeout = validDuration(l.APITimeout, DefaultAPITimeout)
	l.RequestTimeout = validDuration(l.RequestTimeout, DefaultRequestTimeout)
	if l.PageSize <= 0 {
		l.PageSize = DefaultPageSize
	}

	if l.Cache.MinFactor <= 0 {
		l.Cache.MinFactor = datasource.DefaultMinFactor
	}
	if l.Cache.MaxFactor < l.Cache.MinFactor {
		l.Cache.MaxFactor = max(datasource.DefaultMaxFactor, l.Cache.MinFactor)
	}
	if l.Cache.MaxAdaptiveFactor <= 0 {
		l.Cache.MaxAdaptiveFactor = DefaultMaxAdaptiveFactor
	}
	l.Cache.SlowFetch = validDuration(l.Cache.SlowFetch, DefaultSlowFetch)

	l.Retry.InitialInterval = validDuration(l.Retry.InitialInterval, DefaultRetryInterval)
	l.Retry.MaxElapsed = validDuration(l.Retry.MaxElapsed, DefaultRetryMaxElapsed)

	if l.RateLimit.PerSecond < 0 {
		l.RateLimit.PerSecond = 0
	}
	if l.RateLimit.PerSecond > 0 && l.RateLimit.Burst <= 0 {
		l.RateLimit.Burst = 1
	}

	if l.Source.Kind == "" {
		l.Source.Kind = DefaultKind
	}
	if l.Source.Seed <= 0 {
		l.Source.Seed = DefaultSeed
	}
	if l.Source.Churn != "" {
		l.Source.Churn = validDuration(l.Source.Churn, 0)
	}
	if l.Logger.Level == "" {
		l.Logger.Level = DefaultLogLevel
	}
}

func validDuration(s string, def time.Duration) string {
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return s
	}
	return def.String()
}

// Override applies CLI flag overrides to the configuration.
func (l *LazyRows) Override(flags *data.Flags) {
	if flags == nil {
		return
	}

	l.mx.Lock()
	defer l.mx.Unlock()

	if flags.RefreshRate != nil && *flags.RefreshRate > 0 {
		l.RefreshRate = *flags.RefreshRate
	}
	if IsStringSet(flags.LogLevel) {
		l.Logger.Level = *flags.LogLevel
	}
	if IsStringSet(flags.LogFile) {
		l.Logger.File = *flags.LogFile
	}
	if flags.PageSize != nil && *flags.PageSize > 0 {
		l.PageSize = *flags.PageSize
	}
	if IsBoolSet(flags.Adaptive) {
		l.Cache.Adaptive = true
	}
	if flags.Columns != nil && len(*flags.Columns) > 0 {
		l.Source.Columns = *flags.Columns
	}

	for _, o := range []struct {
		flag *string
		dst  *string
	}{
		{flags.Kind, &l.Source.Kind},
		{flags.Path, &l.Source.Path},
		{flags.Table, &l.Source.Table},
		{flags.Bucket, &l.Source.Bucket},
		{flags.Prefix, &l.Source.Prefix},
		{flags.ResourceType, &l.Source.ResourceType},
		{flags.Profile, &l.Source.Profile},
		{flags.Region, &l.Source.Region},
		{flags.Churn, &l.Source.Churn},
	} {
		if IsStringSet(o.flag) {
			*o.dst = *o.flag
		}
	}
}

// GetAPITimeout returns the deadline of one remote call.
func (l *LazyRows) GetAPITimeout() (time.Duration, error) {
	l.mx.RLock()
	defer l.mx.RUnlock()

	return parseDuration("API timeout", l.APITimeout)
}

// GetRequestTimeout returns how long a row request may stay unanswered
// before it is sent again.
func (l *LazyRows) GetRequestTimeout() (time.Duration, error) {
	l.mx.RLock()
	defer l.mx.RUnlock()

	return parseDuration("request timeout", l.RequestTimeout)
}

// GetRetry returns the first backoff interval and the max retry time.
func (l *LazyRows) GetRetry() (time.Duration, time.Duration, error) {
	l.mx.RLock()
	defer l.mx.RUnlock()

	initial, err := parseDuration("retry interval", l.Retry.InitialInterval)
	if err != nil {
		return 0, 0, err
	}
	maxElapsed, err := parseDuration("max retry time", l.Retry.MaxElapsed)
	if err != nil {
		return 0, 0, err
	}

	return initial, maxElapsed, nil
}

// RefreshInterval returns the poll interval of sources without change
// notifications.
func (l *LazyRows) RefreshInterval() time.Duration {
	l.mx.RLock()
	defer l.mx.RUnlock()

	return time.Duration(float64(l.RefreshRate) * float64(time.Second))
}

// ChurnInterval returns how often memory sources simulate a change, zero
// when they stay still.
func (l *LazyRows) ChurnInterval() time.Duration {
	l.mx.RLock()
	defer l.mx.RUnlock()

	if l.Source.Churn == "" {
		return 0
	}
	d, err := time.ParseDuration(l.Source.Churn)
	if err != nil {
		return 0
	}
	return d
}

func parseDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

// Strategy returns the configured cache strategy.
func (l *LazyRows) Strategy() datasource.CacheStrategy {
	l.mx.RLock()
	adaptive := l.Cache.Adaptive
	l.mx.RUnlock()

	if adaptive {
		return l.AdaptiveStrategy()
	}
	return l.SymmetricStrategy()
}

// StrategyNamed returns the strategy called name, the configured one when
// name is empty or unknown.
func (l *LazyRows) StrategyNamed(name string) datasource.CacheStrategy {
	switch name {
	case data.StrategySymmetric:
		return l.SymmetricStrategy()
	case data.StrategyAdaptive:
		return l.AdaptiveStrategy()
	default:
		return l.Strategy()
	}
}

// SymmetricStrategy returns a fixed window around the viewport.
func (l *LazyRows) SymmetricStrategy() *datasource.SymmetricStrategy {
	l.mx.RLock()
	defer l.mx.RUnlock()

	return &datasource.SymmetricStrategy{MinFactor: l.Cache.MinFactor, MaxFactor: l.Cache.MaxFactor}
}

// AdaptiveStrategy returns a window growing while fetches are slow.
func (l *LazyRows) AdaptiveStrategy() *datasource.AdaptiveStrategy {
	l.mx.RLock()
	defer l.mx.RUnlock()

	slow, err := time.ParseDuration(l.Cache.SlowFetch)
	if err != nil {
		slow = DefaultSlowFetch
	}
	s := datasource.NewAdaptiveStrategy(slow, l.Cache.MaxAdaptiveFactor)
	s.Base = datasource.SymmetricStrategy{MinFactor: l.Cache.MinFactor, MaxFactor: l.Cache.MaxFactor}

	return s
}

// Locator returns the location of the configured source.
func (l *LazyRows) Locator() dao.Locator {
	l.mx.RLock()
	defer l.mx.RUnlock()

	return dao.Locator{
		Path:      l.Source.Path,
		Table:     l.Source.Table,
		OrderBy:   l.Source.OrderBy,
		KeyColumn: l.Source.KeyColumn,
		Bucket:    l.Source.Bucket,
		Prefix:    l.Source.Prefix,
		TypeName:  l.Source.ResourceType,
		Region:    l.Source.Region,
		PageSize:  l.PageSize,
		Seed:      l.Source.Seed,
	}
}

// TransportOptions returns the connector settings.
func (l *LazyRows) TransportOptions(log logrus.FieldLogger) ([]transport.Option, error) {
	timeout, err := l.GetAPITimeout()
	if err != nil {
		return nil, err
	}
	initial, maxElapsed, err := l.GetRetry()
	if err != nil {
		return nil, err
	}

	l.mx.RLock()
	defer l.mx.RUnlock()

	return []transport.Option{
		transport.WithLogger(log),
		transport.WithTimeout(timeout),
		transport.WithRetry(initial, maxElapsed),
		transport.WithRateLimit(l.RateLimit.PerSecond, l.RateLimit.Burst),
	}, nil
}

// SourceOptions returns the cache settings of a table model.
func (l *LazyRows) SourceOptions(s datasource.CacheStrategy) ([]datasource.Option, error) {
	timeout, err := l.GetRequestTimeout()
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = l.Strategy()
	}

	return []datasource.Option{
		datasource.WithStrategy(s),
		datasource.WithRequestTimeout(timeout),
	}, nil
}
