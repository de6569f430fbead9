package datasource

import (
	"math"
	"time"
)

const (
	// DefaultMinFactor is the number of displayed pages kept on each side.
	DefaultMinFactor = 3

	// DefaultMaxFactor is the number of displayed pages tolerated on each side
	// before rows are evicted.
	DefaultMaxFactor = 4
)

// CacheStrategy decides which rows must be cached and which may be.
//
// Both results must be subsets of estimated and, when displayed lies inside
// estimated, supersets of displayed. Missing rows of the min range are
// fetched; cached rows outside the max range are evicted.
type CacheStrategy interface {
	// MinCacheRange returns the rows that must be cached.
	MinCacheRange(displayed, cached, estimated Range) Range

	// MaxCacheRange returns the rows that may stay cached.
	MaxCacheRange(displayed, cached, estimated Range) Range

	// OnDataArrive reports the round trip of a solicited fetch.
	OnDataArrive(roundTrip time.Duration, rowCount int)
}

// SymmetricStrategy expands the displayed range by a multiple of its own
// length on both sides.
type SymmetricStrategy struct {
	MinFactor float64
	MaxFactor float64
}

// NewDefaultStrategy returns a symmetric strategy keeping three displayed
// pages around the viewport and evicting past four.
func NewDefaultStrategy() *SymmetricStrategy {
	return &SymmetricStrategy{MinFactor: DefaultMinFactor, MaxFactor: DefaultMaxFactor}
}

// MinCacheRange implements CacheStrategy.
func (s *SymmetricStrategy) MinCacheRange(displayed, _, estimated Range) Range {
	return expandBy(displayed, estimated, s.MinFactor)
}

// MaxCacheRange implements CacheStrategy.
func (s *SymmetricStrategy) MaxCacheRange(displayed, _, estimated Range) Range {
	return expandBy(displayed, estimated, max(s.MaxFactor, s.MinFactor))
}

// OnDataArrive implements CacheStrategy.
func (*SymmetricStrategy) OnDataArrive(time.Duration, int) {}

func expandBy(displayed, estimated Range, factor float64) Range {
	n := int(math.Ceil(float64(displayed.Length()) * factor))
	return displayed.Expand(n, n).RestrictTo(estimated)
}

// AdaptiveStrategy widens a symmetric strategy while fetches are slow.
// The boost follows an exponentially weighted average of the observed round
// trips: every multiple of Slow above Slow adds one page on each side, up to
// Ceiling pages. It must only be used from the scheduler thread.
type AdaptiveStrategy struct {
	Base    SymmetricStrategy
	Slow    time.Duration
	Ceiling float64

	avg   time.Duration
	boost float64
}

// NewAdaptiveStrategy returns an adaptive strategy around the default factors.
func NewAdaptiveStrategy(slow time.Duration, ceiling float64) *AdaptiveStrategy {
	return &AdaptiveStrategy{
		Base:    SymmetricStrategy{MinFactor: DefaultMinFactor, MaxFactor: DefaultMaxFactor},
		Slow:    slow,
		Ceiling: ceiling,
	}
}

// Boost returns the number of extra pages currently added on each side.
func (a *AdaptiveStrategy) Boost() float64 {
	return a.boost
}

// MinCacheRange implements CacheStrategy.
func (a *AdaptiveStrategy) MinCacheRange(displayed, _, estimated Range) Range {
	return expandBy(displayed, estimated, a.Base.MinFactor+a.boost)
}

// MaxCacheRange implements CacheStrategy.
func (a *AdaptiveStrategy) MaxCacheRange(displayed, _, estimated Range) Range {
	return expandBy(displayed, estimated, max(a.Base.MaxFactor, a.Base.MinFactor)+a.boost)
}

// OnDataArrive implements CacheStrategy.
func (a *AdaptiveStrategy) OnDataArrive(roundTrip time.Duration, _ int) {
	if a.avg == 0 {
		a.avg = roundTrip
	} else {
		a.avg = (3*a.avg + roundTrip) / 4
	}
	if a.Slow <= 0 {
		return
	}
	limit := max(a.Ceiling-max(a.Base.MaxFactor, a.Base.MinFactor), 0)
	a.boost = min(max(math.Floor(float64(a.avg)/float64(a.Slow))-1, 0), limit)
}

// StrategyFuncs adapts a pair of functions to a CacheStrategy. Arrival
// reports are ignored unless Arrive is set.
type StrategyFuncs struct {
	Min    func(displayed, cached, estimated Range) Range
	Max    func(displayed, cached, estimated Range) Range
	Arrive func(roundTrip time.Duration, rowCount int)
}

// MinCacheRange implements CacheStrategy.
func (s *StrategyFuncs) MinCacheRange(displayed, cached, estimated Range) Range {
	return s.Min(displayed, cached, estimated)
}

// MaxCacheRange implements CacheStrategy.
func (s *StrategyFuncs) MaxCacheRange(displayed, cached, estimated Range) Range {
	return s.Max(displayed, cached, estimated)
}

// OnDataArrive implements CacheStrategy.
func (s *StrategyFuncs) OnDataArrive(roundTrip time.Duration, rowCount int) {
	if s.Arrive != nil {
		s.Arrive(roundTrip, rowCount)
	}
}
