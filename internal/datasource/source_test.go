package datasource

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

type item struct {
	id  string
	rev int
}

func itemKey(it item) string { return it.id }

func items(start, end, rev int) []item {
	ii := make([]item, 0, end-start)
	for i := start; i < end; i++ {
		ii = append(ii, item{id: fmt.Sprintf("r%d", i), rev: rev})
	}
	return ii
}

type manualScheduler struct {
	queue []func()
	mx    sync.Mutex
}

func (m *manualScheduler) Defer(fn func()) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.queue = append(m.queue, fn)
}

func (m *manualScheduler) Flush() {
	for {
		m.mx.Lock()
		q := m.queue
		m.queue = nil
		m.mx.Unlock()
		if len(q) == 0 {
			return
		}
		for _, fn := range q {
			fn()
		}
	}
}

type recorder struct {
	events []string
}

func (r *recorder) DataUpdated(first, count int) {
	r.events = append(r.events, fmt.Sprintf("updated %d %d", first, count))
}

func (r *recorder) DataRemoved(first, count int) {
	r.events = append(r.events, fmt.Sprintf("removed %d %d", first, count))
}

func (r *recorder) DataAdded(first, count int) {
	r.events = append(r.events, fmt.Sprintf("added %d %d", first, count))
}

func (r *recorder) DataAvailable(first, count int) {
	r.events = append(r.events, fmt.Sprintf("available %d %d", first, count))
}

func (r *recorder) ResetDataAndSize(size int) {
	r.events = append(r.events, fmt.Sprintf("reset %d", size))
}

type fetchLog struct {
	calls []Range
}

func (f *fetchLog) RequestRows(first, count int) {
	f.calls = append(f.calls, RangeWithLength(first, count))
}

func (f *fetchLog) last() Range {
	if len(f.calls) == 0 {
		return Range{}
	}
	return f.calls[len(f.calls)-1]
}

type fixture struct {
	src     *RemoteDataSource[item, string]
	sched   *manualScheduler
	handler *recorder
	fetcher *fetchLog
}

func newFixture(t *testing.T, size int, opts ...Option) *fixture {
	t.Helper()

	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	f := fixture{sched: new(manualScheduler), handler: new(recorder), fetcher: new(fetchLog)}
	opts = append([]Option{WithInitialSize(size), WithAssertions(true), WithLogger(l)}, opts...)
	src, err := New[item, string](f.fetcher, f.handler, itemKey, f.sched, opts...)
	if err != nil {
		t.Fatal(err)
	}
	f.src = src

	return &f
}

// exact keeps exactly the displayed rows.
func exact() *StrategyFuncs {
	return &StrategyFuncs{
		Min: func(d, _, e Range) Range { return d.RestrictTo(e) },
		Max: func(d, _, e Range) Range { return d.RestrictTo(e) },
	}
}

// fill caches rows [start, end) through an exact strategy.
func (f *fixture) fill(t *testing.T, start, end int) {
	t.Helper()

	f.src.EnsureAvailability(start, end-start)
	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(start, end); got != want {
		t.Fatalf("fetch mismatch: got %s, want %s", got, want)
	}
	f.src.SetRowData(start, items(start, end, 0))
	f.sched.Flush()
	if got, want := f.src.CachedRange(), NewRange(start, end); got != want {
		t.Fatalf("cached mismatch: got %s, want %s", got, want)
	}
	f.handler.events = nil
}

func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()

	d := f.src
	if !d.cached.IsSubsetOf(d.estimatedAvailable()) {
		t.Fatalf("cached %s escapes %s", d.cached, d.estimatedAvailable())
	}
	if len(d.rows) != d.cached.Length() {
		t.Fatalf("row count %d does not match cached %s", len(d.rows), d.cached)
	}
	for i := range d.rows {
		if !d.cached.Contains(i) {
			t.Fatalf("row %d lies outside cached %s", i, d.cached)
		}
	}
	for k, i := range d.keyIndex {
		if row, ok := d.rows[i]; !ok || itemKey(row) != k {
			t.Fatalf("key %q points at stale index %d", k, i)
		}
	}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	var (
		f = new(fetchLog)
		h = new(recorder)
		s = new(manualScheduler)
	)
	uu := map[string]struct {
		f   Fetcher
		h   DataChangeHandler
		k   func(item) string
		s   Scheduler
		err error
	}{
		"fetcher":   {h: h, k: itemKey, s: s, err: ErrNilFetcher},
		"handler":   {f: f, k: itemKey, s: s, err: ErrNilHandler},
		"key":       {f: f, h: h, s: s, err: ErrNilKeyFunc},
		"scheduler": {f: f, h: h, k: itemKey, err: ErrNilScheduler},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			_, err := New[item, string](u.f, u.h, u.k, u.s)
			if !errors.Is(err, u.err) {
				t.Errorf("error mismatch: got %v, want %v", err, u.err)
			}
		})
	}
}

func TestScrollScenario(t *testing.T) {
	f := newFixture(t, 1000)

	f.src.EnsureAvailability(500, 20)
	if len(f.fetcher.calls) != 0 {
		t.Fatalf("fetch must be deferred, got %v", f.fetcher.calls)
	}
	f.sched.Flush()
	if diff := cmp.Diff([]Range{NewRange(420, 600)}, f.fetcher.calls, cmp.AllowUnexported(Range{})); diff != "" {
		t.Fatalf("fetch mismatch (-want +got):\n%s", diff)
	}
	if !f.src.IsWaitingForData() {
		t.Errorf("expected an outstanding fetch")
	}

	f.src.SetRowData(420, items(420, 600, 0))
	f.sched.Flush()

	if got, want := f.src.CachedRange(), NewRange(420, 600); got != want {
		t.Errorf("cached mismatch: got %s, want %s", got, want)
	}
	if diff := cmp.Diff([]string{"updated 420 180", "available 420 180"}, f.handler.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if f.src.IsWaitingForData() {
		t.Errorf("no fetch should be outstanding")
	}
	if len(f.fetcher.calls) != 1 {
		t.Errorf("covered viewport must not fetch again, got %v", f.fetcher.calls)
	}
	if row, ok := f.src.Row(510); !ok || row.id != "r510" {
		t.Errorf("Row(510) mismatch: got %v %v", row, ok)
	}
	if _, ok := f.src.Row(600); ok {
		t.Errorf("Row(600) should not be cached")
	}
	f.assertInvariants(t)
}

func TestScrollFetchesOneGapAtATime(t *testing.T) {
	f := newFixture(t, 1000)
	f.src.EnsureAvailability(500, 20)
	f.sched.Flush()
	f.src.SetRowData(420, items(420, 600, 0))
	f.sched.Flush()

	f.src.EnsureAvailability(540, 20)
	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(600, 640); got != want {
		t.Fatalf("gap fetch mismatch: got %s, want %s", got, want)
	}
	if got, want := f.src.CachedRange(), NewRange(460, 600); got != want {
		t.Errorf("evicted cache mismatch: got %s, want %s", got, want)
	}

	f.src.SetRowData(600, items(600, 640, 0))
	f.sched.Flush()
	if got, want := f.src.CachedRange(), NewRange(460, 640); got != want {
		t.Errorf("merged cache mismatch: got %s, want %s", got, want)
	}
	if len(f.fetcher.calls) != 2 {
		t.Errorf("fetch count mismatch: got %v", f.fetcher.calls)
	}
	f.assertInvariants(t)
}

func TestAtMostOneOutstandingFetch(t *testing.T) {
	f := newFixture(t, 1000)
	f.src.EnsureAvailability(500, 20)
	f.sched.Flush()
	f.src.EnsureAvailability(0, 20)
	f.sched.Flush()
	f.src.EnsureAvailability(900, 20)
	f.sched.Flush()

	if len(f.fetcher.calls) != 1 {
		t.Fatalf("expected a single fetch, got %v", f.fetcher.calls)
	}

	// The delivery no longer fits the viewport and is dropped.
	f.src.SetRowData(420, items(420, 600, 0))
	if !f.src.CachedRange().IsEmpty() {
		t.Errorf("out of window rows must be dropped, cached %s", f.src.CachedRange())
	}
	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(820, 1000); got != want {
		t.Errorf("follow up fetch mismatch: got %s, want %s", got, want)
	}
	if len(f.fetcher.calls) != 2 {
		t.Errorf("fetch count mismatch: got %v", f.fetcher.calls)
	}
}

func TestInsertBeforeCacheShifts(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 10, 20)

	f.src.InsertRowData(5, 3)

	if got, want := f.src.CachedRange(), NewRange(13, 23); got != want {
		t.Errorf("cached mismatch: got %s, want %s", got, want)
	}
	if row, ok := f.src.Row(13); !ok || row.id != "r10" {
		t.Errorf("Row(13) mismatch: got %v %v", row, ok)
	}
	if i, ok := f.src.IndexOfKey("r19"); !ok || i != 22 {
		t.Errorf("IndexOfKey(r19) mismatch: got %d %v", i, ok)
	}
	if got, want := f.src.EstimatedSize(), 103; got != want {
		t.Errorf("size mismatch: got %d, want %d", got, want)
	}
	if diff := cmp.Diff([]string{"added 5 3"}, f.handler.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	f.assertInvariants(t)

	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(10, 13); got != want {
		t.Errorf("refill mismatch: got %s, want %s", got, want)
	}
	f.assertInvariants(t)
}

func TestInsertInsideCacheTruncates(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 10, 20)

	f.src.InsertRowData(15, 2)

	if got, want := f.src.CachedRange(), NewRange(10, 15); got != want {
		t.Errorf("cached mismatch: got %s, want %s", got, want)
	}
	if _, ok := f.src.IndexOfKey("r16"); ok {
		t.Errorf("r16 should no longer be indexed")
	}
	f.assertInvariants(t)
}

func TestInsertAfterCacheKeepsRows(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 10, 20)

	f.src.InsertRowData(20, 4)

	if got, want := f.src.CachedRange(), NewRange(10, 20); got != want {
		t.Errorf("cached mismatch: got %s, want %s", got, want)
	}
	f.assertInvariants(t)
}

func TestRemoveCompacts(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 0, 10)

	f.src.RemoveRowData(2, 3)

	if got, want := f.src.CachedRange(), NewRange(0, 7); got != want {
		t.Errorf("cached mismatch: got %s, want %s", got, want)
	}
	if row, ok := f.src.Row(2); !ok || row.id != "r5" {
		t.Errorf("Row(2) mismatch: got %v %v", row, ok)
	}
	if _, ok := f.src.IndexOfKey("r3"); ok {
		t.Errorf("removed row r3 is still indexed")
	}
	if got, want := f.src.EstimatedSize(), 97; got != want {
		t.Errorf("size mismatch: got %d, want %d", got, want)
	}
	if diff := cmp.Diff([]string{"removed 2 3"}, f.handler.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	f.assertInvariants(t)
}

func TestRemoveAroundCache(t *testing.T) {
	uu := map[string]struct {
		first, count int
		cached       Range
		at           int
		want         string
	}{
		"before":  {first: 0, count: 3, cached: NewRange(7, 17), at: 7, want: "r10"},
		"after":   {first: 40, count: 3, cached: NewRange(10, 20), at: 10, want: "r10"},
		"covers":  {first: 5, count: 20, cached: NewRange(0, 0)},
		"overlap": {first: 5, count: 10, cached: NewRange(5, 10), at: 5, want: "r15"},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			f := newFixture(t, 100, WithStrategy(exact()))
			f.fill(t, 10, 20)

			f.src.RemoveRowData(u.first, u.count)

			if got := f.src.CachedRange(); got != u.cached {
				t.Errorf("cached mismatch: got %s, want %s", got, u.cached)
			}
			if u.want != "" {
				if row, ok := f.src.Row(u.at); !ok || row.id != u.want {
					t.Errorf("Row(%d) mismatch: got %v %v, want %s", u.at, row, ok, u.want)
				}
			}
			f.assertInvariants(t)
		})
	}
}

func TestSetEstimatedSizeTruncates(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 10, 20)

	f.src.SetEstimatedSize(15)
	if got, want := f.src.CachedRange(), NewRange(10, 15); got != want {
		t.Errorf("cached mismatch: got %s, want %s", got, want)
	}
	if len(f.sched.queue) != 0 {
		t.Errorf("size change must not schedule a coverage check")
	}
	f.assertInvariants(t)

	f.src.SetEstimatedSize(500)
	if got, want := f.src.EstimatedSize(), 500; got != want {
		t.Errorf("size mismatch: got %d, want %d", got, want)
	}
}

func TestUnknownSizeFollowsViewport(t *testing.T) {
	f := newFixture(t, SizeUnknown)
	if f.src.SizeKnown() {
		t.Fatalf("size should be unknown")
	}

	f.src.EnsureAvailability(0, 20)
	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(0, 20); got != want {
		t.Errorf("fetch mismatch: got %s, want %s", got, want)
	}

	f.src.SetEstimatedSize(250)
	f.src.SetRowData(0, items(0, 20, 0))
	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(20, 100); got != want {
		t.Errorf("prefetch mismatch: got %s, want %s", got, want)
	}
	f.assertInvariants(t)
}

func TestResetDataAndSize(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 10, 20)

	f.src.ResetDataAndSize(50)

	if !f.src.CachedRange().IsEmpty() {
		t.Errorf("cache should be empty, got %s", f.src.CachedRange())
	}
	if diff := cmp.Diff([]string{"reset 50"}, f.handler.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	f.sched.Flush()
	if got, want := f.fetcher.last(), NewRange(10, 20); got != want {
		t.Errorf("refetch mismatch: got %s, want %s", got, want)
	}
}

func TestSetDataChangeHandlerReplays(t *testing.T) {
	f := newFixture(t, 1000)
	if err := f.src.SetDataChangeHandler(new(recorder)); err != nil {
		t.Fatal(err)
	}

	f.src.EnsureAvailability(500, 20)
	f.sched.Flush()
	f.src.SetRowData(420, items(420, 600, 0))

	h := new(recorder)
	if err := f.src.SetDataChangeHandler(h); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"updated 420 180", "available 420 180"}, h.events); diff != "" {
		t.Errorf("replay mismatch (-want +got):\n%s", diff)
	}
	if err := f.src.SetDataChangeHandler(nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("error mismatch: got %v, want %v", err, ErrNilHandler)
	}
}

func TestSetCacheStrategy(t *testing.T) {
	f := newFixture(t, 1000)
	f.src.EnsureAvailability(500, 20)

	if err := f.src.SetCacheStrategy(nil); !errors.Is(err, ErrNilStrategy) {
		t.Errorf("error mismatch: got %v, want %v", err, ErrNilStrategy)
	}
	if err := f.src.SetCacheStrategy(f.src.CacheStrategy()); err != nil {
		t.Fatal(err)
	}
	if len(f.fetcher.calls) != 0 {
		t.Errorf("same strategy must not check coverage, got %v", f.fetcher.calls)
	}

	if err := f.src.SetCacheStrategy(exact()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Range{NewRange(500, 520)}, f.fetcher.calls, cmp.AllowUnexported(Range{})); diff != "" {
		t.Errorf("immediate check mismatch (-want +got):\n%s", diff)
	}
}

func TestStrategyViolationPanics(t *testing.T) {
	bad := &StrategyFuncs{
		Min: func(d, _, _ Range) Range { return d },
		Max: func(d, _, _ Range) Range { return d.Expand(0, 50) },
	}
	f := newFixture(t, 10, WithStrategy(bad))
	f.src.EnsureAvailability(0, 5)

	defer func() {
		if recover() == nil {
			t.Errorf("expected an assertion panic")
		}
	}()
	f.sched.Flush()
}

func TestRoundTripReported(t *testing.T) {
	var (
		reports []time.Duration
		now     = time.Unix(1000, 0)
	)
	s := exact()
	s.Arrive = func(rt time.Duration, _ int) { reports = append(reports, rt) }
	f := newFixture(t, 100, WithStrategy(s), WithClock(func() time.Time { return now }))

	f.src.EnsureAvailability(0, 10)
	f.sched.Flush()
	now = now.Add(250 * time.Millisecond)
	f.src.SetRowData(0, items(0, 10, 0))
	f.src.SetRowData(5, items(5, 7, 1))

	if diff := cmp.Diff([]time.Duration{250 * time.Millisecond}, reports); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyDeliveryNotReported(t *testing.T) {
	var reports []time.Duration
	s := exact()
	s.Arrive = func(rt time.Duration, _ int) { reports = append(reports, rt) }
	f := newFixture(t, 100, WithStrategy(s))

	f.src.EnsureAvailability(0, 10)
	f.sched.Flush()
	f.src.SetRowData(0, nil)

	if len(reports) != 0 {
		t.Errorf("empty delivery reported %v", reports)
	}
	if f.src.lastRequestStart != noRequest {
		t.Errorf("request still outstanding at %d", f.src.lastRequestStart)
	}
}

func TestRequestDeadline(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()), WithRequestTimeout(10*time.Millisecond))
	f.src.EnsureAvailability(0, 10)
	f.sched.Flush()

	deadline := time.Now().Add(2 * time.Second)
	for len(f.fetcher.calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		f.sched.Flush()
	}

	if diff := cmp.Diff([]Range{NewRange(0, 10), NewRange(0, 10)}, f.fetcher.calls[:min(2, len(f.fetcher.calls))], cmp.AllowUnexported(Range{})); diff != "" {
		t.Errorf("retry after deadline mismatch (-want +got):\n%s", diff)
	}
}

func TestPinSurvivesEviction(t *testing.T) {
	f := newFixture(t, 1000)
	f.src.EnsureAvailability(500, 20)
	f.sched.Flush()
	f.src.SetRowData(420, items(420, 600, 0))
	f.sched.Flush()

	row, _ := f.src.Row(500)
	h, err := f.src.Handle(row)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Row(); !errors.Is(err, ErrNotPinned) {
		t.Errorf("unpinned access mismatch: got %v, want %v", err, ErrNotPinned)
	}
	h.Pin()

	f.src.EnsureAvailability(900, 20)
	f.sched.Flush()
	if _, ok := f.src.Row(500); ok {
		t.Fatalf("row 500 should be evicted, cached %s", f.src.CachedRange())
	}

	h2, err := f.src.Handle(row)
	if err != nil {
		t.Fatalf("pinned row lost its handle: %v", err)
	}
	got, err := h2.Row()
	if err != nil {
		t.Fatal(err)
	}
	if got.id != "r500" {
		t.Errorf("pinned row mismatch: got %v", got)
	}

	h2.Pin()
	if err := h.Unpin(); err != nil {
		t.Fatal(err)
	}
	if !h.IsPinned() {
		t.Errorf("second reference should keep the pin")
	}
	if err := h2.Unpin(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Row(); !errors.Is(err, ErrNotPinned) {
		t.Errorf("released access mismatch: got %v, want %v", err, ErrNotPinned)
	}
	if err := h.Unpin(); !errors.Is(err, ErrNotPinned) {
		t.Errorf("extra unpin mismatch: got %v, want %v", err, ErrNotPinned)
	}
	if _, err := f.src.Handle(row); !errors.Is(err, ErrRowNotResident) {
		t.Errorf("handle mismatch: got %v, want %v", err, ErrRowNotResident)
	}
}

func TestPinnedRowFollowsKey(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 10, 20)

	row, _ := f.src.Row(12)
	h, err := f.src.Handle(row)
	if err != nil {
		t.Fatal(err)
	}
	h.Pin()

	f.src.RemoveRowData(0, 5)
	f.src.SetRowData(7, []item{{id: "r12", rev: 3}})

	got, err := h.Row()
	if err != nil {
		t.Fatal(err)
	}
	if got.rev != 3 {
		t.Errorf("pinned row was not refreshed: got %v", got)
	}

	f.handler.events = nil
	h.UpdateRow()
	if diff := cmp.Diff([]string{"updated 7 1"}, f.handler.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleErrors(t *testing.T) {
	f := newFixture(t, 100)
	if _, err := f.src.Handle(item{}); !errors.Is(err, ErrNilKey) {
		t.Errorf("error mismatch: got %v, want %v", err, ErrNilKey)
	}
	if _, err := f.src.Handle(item{id: "r1"}); !errors.Is(err, ErrRowNotResident) {
		t.Errorf("error mismatch: got %v, want %v", err, ErrRowNotResident)
	}
}

func TestTransactionPin(t *testing.T) {
	f := newFixture(t, 100, WithStrategy(exact()))
	f.fill(t, 0, 10)

	rows := items(2, 5, 0)
	release, err := f.src.TransactionPin(rows)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := f.src.PinnedCount(), 3; got != want {
		t.Errorf("pinned mismatch: got %d, want %d", got, want)
	}
	release()
	if got := f.src.PinnedCount(); got != 0 {
		t.Errorf("release left %d pins", got)
	}

	if _, err := f.src.TransactionPin(append(rows, item{id: "r77"})); !errors.Is(err, ErrRowNotResident) {
		t.Errorf("error mismatch: got %v, want %v", err, ErrRowNotResident)
	}
	if got := f.src.PinnedCount(); got != 0 {
		t.Errorf("failed transaction left %d pins", got)
	}
}

func TestCacheStaysContiguous(t *testing.T) {
	f := newFixture(t, 500)
	rnd := rand.New(rand.NewSource(42))

	for step := range 2000 {
		size := f.src.EstimatedSize()
		switch op := rnd.Intn(10); {
		case op < 4:
			f.src.EnsureAvailability(rnd.Intn(size+1), 1+rnd.Intn(30))
		case op < 7:
			if f.src.IsWaitingForData() {
				r := f.fetcher.last()
				f.src.SetRowData(r.Start(), items(r.Start(), r.End(), step))
			}
		case op < 8:
			f.src.InsertRowData(rnd.Intn(size+1), 1+rnd.Intn(10))
		case op < 9:
			if size > 20 {
				first := rnd.Intn(size - 10)
				f.src.RemoveRowData(first, 1+rnd.Intn(10))
			}
		default:
			f.sched.Flush()
		}
		f.assertInvariants(t)
	}
}
