package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SizeUnknown marks a size estimate that is not known yet. The available
// rows are then bounded by the end of the requested range.
const SizeUnknown = -1

const noRequest = -1

// RemoteDataSource caches one contiguous block of remotely backed rows around
// the range a widget displays.
//
// Rows are identified by index for caching and by a caller supplied key for
// pinning. Every method must be called from the goroutine the Scheduler runs
// deferred work on.
type RemoteDataSource[T any, K comparable] struct {
	fetcher    Fetcher
	handler    DataChangeHandler
	strategy   CacheStrategy
	sched      Scheduler
	keyFn      func(T) K
	log        logrus.FieldLogger
	now        func() time.Time
	timeout    time.Duration
	assertions bool

	cached    Range
	rows      map[int]T
	keyIndex  map[K]int
	requested Range
	size      int

	lastRequestStart int
	requestedAt      time.Time
	requestSeq       uint64
	deadline         *time.Timer
	checkPending     bool

	pinned map[K]*pinEntry[T]
}

// New returns a data source pulling rows through f and reporting changes to h.
func New[T any, K comparable](f Fetcher, h DataChangeHandler, keyFn func(T) K, s Scheduler, opts ...Option) (*RemoteDataSource[T, K], error) {
	switch {
	case f == nil:
		return nil, ErrNilFetcher
	case h == nil:
		return nil, ErrNilHandler
	case keyFn == nil:
		return nil, ErrNilKeyFunc
	case s == nil:
		return nil, ErrNilScheduler
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &RemoteDataSource[T, K]{
		fetcher:          f,
		handler:          h,
		strategy:         o.strategy,
		sched:            s,
		keyFn:            keyFn,
		log:              o.log,
		now:              o.now,
		timeout:          o.requestTimeout,
		assertions:       o.assertions,
		rows:             make(map[int]T),
		keyIndex:         make(map[K]int),
		size:             o.size,
		lastRequestStart: noRequest,
		pinned:           make(map[K]*pinEntry[T]),
	}, nil
}

// EnsureAvailability declares the rows the widget displays. Fetching and
// eviction happen in a coverage check deferred to the scheduler.
func (d *RemoteDataSource[T, K]) EnsureAvailability(first, count int) {
	d.requested = RangeWithLength(first, max(count, 0))
	d.ensureCoverageCheck()
}

// Row returns the cached row at index without triggering a fetch.
func (d *RemoteDataSource[T, K]) Row(index int) (T, bool) {
	row, ok := d.rows[index]
	return row, ok
}

// IndexOfKey returns the cached index of the row with the given key.
func (d *RemoteDataSource[T, K]) IndexOfKey(key K) (int, bool) {
	i, ok := d.keyIndex[key]
	return i, ok
}

// EstimatedSize returns the best known row count.
func (d *RemoteDataSource[T, K]) EstimatedSize() int {
	return d.estimatedAvailable().Length()
}

// SizeKnown reports whether the size estimate came from the transport.
func (d *RemoteDataSource[T, K]) SizeKnown() bool {
	return d.size != SizeUnknown
}

// CachedRange returns the indices of the cached rows.
func (d *RemoteDataSource[T, K]) CachedRange() Range {
	return d.cached
}

// RequestedRange returns the range last passed to EnsureAvailability.
func (d *RemoteDataSource[T, K]) RequestedRange() Range {
	return d.requested
}

// IsWaitingForData reports whether a fetch is outstanding.
func (d *RemoteDataSource[T, K]) IsWaitingForData() bool {
	return d.lastRequestStart != noRequest
}

// SetDataChangeHandler replaces the handler. A non empty cache is replayed to
// the new handler right away.
func (d *RemoteDataSource[T, K]) SetDataChangeHandler(h DataChangeHandler) error {
	if h == nil {
		return ErrNilHandler
	}
	d.handler = h
	if !d.cached.IsEmpty() {
		h.DataUpdated(d.cached.Start(), d.cached.Length())
		h.DataAvailable(d.cached.Start(), d.cached.Length())
	}
	return nil
}

// CacheStrategy returns the current cache strategy.
func (d *RemoteDataSource[T, K]) CacheStrategy() CacheStrategy {
	return d.strategy
}

// SetCacheStrategy replaces the cache strategy and checks coverage at once.
// Setting the current strategy again does nothing.
func (d *RemoteDataSource[T, K]) SetCacheStrategy(s CacheStrategy) error {
	if s == nil {
		return ErrNilStrategy
	}
	if s == d.strategy {
		return nil
	}
	d.strategy = s
	d.checkCacheCoverage()
	return nil
}

// SetRowData stores rows fetched at first. Rows falling outside the current
// max cache range are dropped. Empty deliveries release the outstanding
// request without reporting a round trip.
func (d *RemoteDataSource[T, K]) SetRowData(first int, rows []T) {
	received := RangeWithLength(first, len(rows))
	if first == d.lastRequestStart && len(rows) > 0 {
		d.strategy.OnDataArrive(d.now().Sub(d.requestedAt), len(rows))
	}
	d.lastRequestStart = noRequest
	d.stopDeadline()

	for _, row := range rows {
		if e, ok := d.pinned[d.keyFn(row)]; ok {
			e.row = row
		}
	}

	_, maxRange := d.cacheRanges(d.estimatedAvailable())
	kept := received.PartitionWith(maxRange)[1]
	if n := received.Length() - kept.Length(); n > 0 {
		d.log.WithFields(logrus.Fields{
			"range": received.String(),
			"max":   maxRange.String(),
		}).Debugf("Dropping %d rows outside of the cache window", n)
	}

	if !kept.IsEmpty() {
		d.discardStale(maxRange)
		if merged, err := d.cached.CombineWith(kept); err == nil {
			d.cached = merged
		} else {
			d.dropRange(d.cached)
			d.cached = kept
		}
		for i := kept.Start(); i < kept.End(); i++ {
			d.storeRow(i, rows[i-first])
		}
		d.handler.DataUpdated(kept.Start(), kept.Length())
		d.handler.DataAvailable(d.cached.Start(), d.cached.Length())
	}

	d.ensureCoverageCheck()
}

// InsertRowData reports count rows inserted remotely at first.
func (d *RemoteDataSource[T, K]) InsertRowData(first, count int) {
	if count <= 0 {
		return
	}
	if d.size != SizeUnknown {
		d.size += count
	}

	switch {
	case d.cached.IsEmpty():
	case first <= d.cached.Start():
		d.shift(count)
	case d.cached.Contains(first):
		keep, drop := d.cached.SplitAt(first)
		d.dropRange(drop)
		d.cached = keep
	}

	d.handler.DataAdded(first, count)
	d.ensureCoverageCheck()
}

// RemoveRowData reports count rows removed remotely at first.
func (d *RemoteDataSource[T, K]) RemoveRowData(first, count int) {
	if count <= 0 {
		return
	}
	removed := RangeWithLength(first, count)

	if !d.cached.IsEmpty() {
		parts := d.cached.PartitionWith(removed)
		d.dropRange(parts[1])

		rows, keys := make(map[int]T, len(d.rows)), make(map[K]int, len(d.rows))
		for i, row := range d.rows {
			if i >= removed.End() {
				i -= count
			}
			rows[i] = row
			keys[d.keyFn(row)] = i
		}
		d.rows, d.keyIndex = rows, keys

		cached, err := parts[0].CombineWith(parts[2].OffsetBy(-count))
		if err != nil || cached.IsEmpty() {
			cached = Range{}
		}
		d.cached = cached
	}
	if d.size != SizeUnknown {
		d.size = max(d.size-count, 0)
	}

	d.handler.DataRemoved(first, count)
	d.ensureCoverageCheck()
}

// SetEstimatedSize updates the size estimate. Cached rows past the new size
// no longer exist and are dropped; fetching waits for the next coverage check.
func (d *RemoteDataSource[T, K]) SetEstimatedSize(n int) {
	if n < 0 {
		n = SizeUnknown
	}
	d.size = n
	if n != SizeUnknown && d.cached.End() > n {
		keep, drop := d.cached.SplitAt(n)
		d.dropRange(drop)
		d.cached = keep
		if keep.IsEmpty() {
			d.cached = Range{}
		}
	}
}

// ResetDataAndSize discards every cached row, abandons the outstanding fetch
// and restarts from a new size estimate.
func (d *RemoteDataSource[T, K]) ResetDataAndSize(n int) {
	d.clearCache()
	d.lastRequestStart = noRequest
	d.stopDeadline()
	d.SetEstimatedSize(n)
	d.handler.ResetDataAndSize(d.EstimatedSize())
	d.ensureCoverageCheck()
}

func (d *RemoteDataSource[T, K]) estimatedAvailable() Range {
	if d.size == SizeUnknown {
		return NewRange(0, max(d.requested.End(), d.cached.End(), 0))
	}
	return NewRange(0, d.size)
}

func (d *RemoteDataSource[T, K]) ensureCoverageCheck() {
	if d.checkPending {
		return
	}
	d.checkPending = true
	d.sched.Defer(func() {
		d.checkPending = false
		d.checkCacheCoverage()
	})
}

func (d *RemoteDataSource[T, K]) checkCacheCoverage() {
	if d.lastRequestStart != noRequest {
		return
	}

	minRange, maxRange := d.cacheRanges(d.estimatedAvailable())
	if minRange.IsEmpty() {
		d.discardStale(maxRange)
		return
	}

	if d.cached.IsEmpty() || !minRange.Intersects(d.cached) {
		d.clearCache()
		if !maxRange.IsEmpty() {
			d.requestRows(maxRange)
		}
		return
	}

	d.discardStale(maxRange)
	if minRange.IsSubsetOf(d.cached) {
		return
	}

	gaps := maxRange.PartitionWith(d.cached)
	switch {
	case gaps[0].Intersects(minRange):
		d.requestRows(gaps[0])
	case gaps[2].Intersects(minRange):
		d.requestRows(gaps[2])
	}
}

func (d *RemoteDataSource[T, K]) cacheRanges(estimated Range) (Range, Range) {
	minRange := d.strategy.MinCacheRange(d.requested, d.cached, estimated)
	maxRange := d.strategy.MaxCacheRange(d.requested, d.cached, estimated)
	d.assertSubset("min cache range", minRange, estimated)
	d.assertSubset("max cache range", maxRange, estimated)

	return minRange, maxRange
}

func (d *RemoteDataSource[T, K]) assertSubset(name string, r, estimated Range) {
	if r.IsSubsetOf(estimated) {
		return
	}
	msg := fmt.Sprintf("%s %s is not within the available range %s", name, r, estimated)
	if d.assertions {
		panic(msg)
	}
	d.log.Error(msg)
}

func (d *RemoteDataSource[T, K]) requestRows(r Range) {
	d.lastRequestStart = r.Start()
	d.requestedAt = d.now()
	d.requestSeq++
	d.armDeadline(d.requestSeq)

	d.log.WithFields(logrus.Fields{
		"range":   r.String(),
		"request": d.requestSeq,
	}).Debug("Requesting rows")
	d.fetcher.RequestRows(r.Start(), r.Length())
}

func (d *RemoteDataSource[T, K]) armDeadline(seq uint64) {
	d.stopDeadline()
	if d.timeout <= 0 {
		return
	}
	d.deadline = time.AfterFunc(d.timeout, func() {
		d.sched.Defer(func() { d.expireRequest(seq) })
	})
}

func (d *RemoteDataSource[T, K]) stopDeadline() {
	if d.deadline != nil {
		d.deadline.Stop()
		d.deadline = nil
	}
}

func (d *RemoteDataSource[T, K]) expireRequest(seq uint64) {
	if seq != d.requestSeq || d.lastRequestStart == noRequest {
		return
	}
	d.log.WithFields(logrus.Fields{
		"request": seq,
		"start":   d.lastRequestStart,
	}).Warnf("Fetch did not complete within %v", d.timeout)
	d.lastRequestStart = noRequest
	d.deadline = nil
	d.ensureCoverageCheck()
}

// discardStale evicts cached rows outside maxRange.
func (d *RemoteDataSource[T, K]) discardStale(maxRange Range) {
	if d.cached.IsEmpty() {
		return
	}
	parts := d.cached.PartitionWith(maxRange)
	d.dropRange(parts[0])
	d.dropRange(parts[2])
	d.cached = parts[1]
	if d.cached.IsEmpty() {
		d.cached = Range{}
	}
}

func (d *RemoteDataSource[T, K]) storeRow(i int, row T) {
	if old, ok := d.rows[i]; ok {
		d.forgetKey(d.keyFn(old), i)
	}
	d.rows[i] = row
	d.keyIndex[d.keyFn(row)] = i
}

func (d *RemoteDataSource[T, K]) dropRange(r Range) {
	for i := r.Start(); i < r.End(); i++ {
		if row, ok := d.rows[i]; ok {
			d.forgetKey(d.keyFn(row), i)
			delete(d.rows, i)
		}
	}
}

func (d *RemoteDataSource[T, K]) forgetKey(k K, i int) {
	if j, ok := d.keyIndex[k]; ok && j == i {
		delete(d.keyIndex, k)
	}
}

func (d *RemoteDataSource[T, K]) clearCache() {
	d.rows = make(map[int]T)
	d.keyIndex = make(map[K]int)
	d.cached = Range{}
}

func (d *RemoteDataSource[T, K]) shift(delta int) {
	rows := make(map[int]T, len(d.rows))
	for i, row := range d.rows {
		rows[i+delta] = row
	}
	for k, i := range d.keyIndex {
		d.keyIndex[k] = i + delta
	}
	d.rows = rows
	d.cached = d.cached.OffsetBy(delta)
}
