package dao

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakePages serves total records in pages that may come back shorter than
// asked, the way remote APIs do.
type fakePages struct {
	total int
	short int
	calls int
	err   error
}

func (f *fakePages) fetch(_ context.Context, token *string, limit int) ([]Object, *string, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	start := 0
	if token != nil {
		start, _ = strconv.Atoi(*token)
	}
	n := limit
	if f.short > 0 {
		n = min(n, f.short)
	}
	var oo []Object
	for i := start; i < min(start+n, f.total); i++ {
		oo = append(oo, obj(fmt.Sprintf("o%d", i), fmt.Sprintf("o%d", i)))
	}
	next := start + len(oo)
	if next >= f.total {
		return oo, nil, nil
	}
	s := strconv.Itoa(next)
	return oo, &s, nil
}

func ids(oo []Object) []string {
	ss := make([]string, 0, len(oo))
	for _, o := range oo {
		ss = append(ss, o.GetID())
	}
	return ss
}

func TestPagedSourceCountEstimate(t *testing.T) {
	f := fakePages{total: 25}
	p := NewPagedSource(MemoryRID, "test", 10, nil, f.fetch)
	ctx := context.Background()

	n, err := p.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 20 || !p.Estimated() {
		t.Errorf("count %d estimated %t, want 20 true", n, p.Estimated())
	}

	if _, err := p.List(ctx, 0, 30); err != nil {
		t.Fatal(err)
	}
	n, _ = p.Count(ctx)
	if n != 25 || p.Estimated() {
		t.Errorf("count %d estimated %t, want 25 false", n, p.Estimated())
	}
}

func TestPagedSourceList(t *testing.T) {
	f := fakePages{total: 23, short: 7}
	p := NewPagedSource(MemoryRID, "test", 10, nil, f.fetch)

	oo, err := p.List(context.Background(), 12, 5)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"o12", "o13", "o14", "o15", "o16"}, ids(oo)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	oo, err = p.List(context.Background(), 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"o20", "o21", "o22"}, ids(oo)); diff != "" {
		t.Errorf("tail mismatch (-want +got):\n%s", diff)
	}
}

func TestPagedSourceCache(t *testing.T) {
	f := fakePages{total: 30}
	p := NewPagedSource(MemoryRID, "test", 10, nil, f.fetch)
	ctx := context.Background()

	for range 3 {
		if _, err := p.List(ctx, 10, 10); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 2 {
		t.Errorf("%d remote calls, want 2", f.calls)
	}

	p.Invalidate()
	if _, err := p.List(ctx, 0, 5); err != nil {
		t.Fatal(err)
	}
	if f.calls != 3 {
		t.Errorf("%d remote calls after invalidate, want 3", f.calls)
	}
}

func TestPagedSourceError(t *testing.T) {
	boom := errors.New("boom")
	f := fakePages{total: 30, err: boom}
	p := NewPagedSource(MemoryRID, "test", 10, nil, f.fetch)

	if _, err := p.List(context.Background(), 0, 5); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
	if _, err := p.Count(context.Background()); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestResourceCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewResourceCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a:1", []Object{obj("x", "x")})
	c.Set("b:1", []Object{obj("y", "y")})
	if _, ok := c.Get("a:1"); !ok {
		t.Error("expected a fresh entry")
	}

	c.InvalidatePrefix("a:")
	if _, ok := c.Get("a:1"); ok {
		t.Error("expected the entry to be invalidated")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("b:1"); ok {
		t.Error("expected the entry to expire")
	}
	if n := len(c.data); n != 0 {
		t.Errorf("%d entries left, want the stale one dropped", n)
	}
}

func TestResourceCacheSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewResourceCache(time.Minute)
	c.now = func() time.Time { return now }

	for i := range 10 {
		c.Set(fmt.Sprintf("p:%d", i), []Object{obj("x", "x")})
	}
	now = now.Add(2 * time.Minute)
	c.Set("p:fresh", []Object{obj("y", "y")})

	if n := len(c.data); n != 1 {
		t.Errorf("%d entries, want only the fresh page", n)
	}
}

func TestPagedSourceKeepsPagesNearListing(t *testing.T) {
	f := fakePages{total: 100_500}
	p := NewPagedSource(MemoryRID, "test", 100, nil, f.fetch)
	ctx := context.Background()

	limit := 4 + 2*KeepPages
	for offset := 0; offset <= 100_000; offset += 240 {
		if _, err := p.List(ctx, offset, 240); err != nil {
			t.Fatal(err)
		}
		if n := len(p.cache.data); n > limit {
			t.Fatalf("%d pages cached at offset %d, want at most %d", n, offset, limit)
		}
	}
	if len(p.cached) != len(p.cache.data) {
		t.Errorf("tracked %d pages, cache holds %d", len(p.cached), len(p.cache.data))
	}

	calls := f.calls
	oo, err := p.List(ctx, 50, 10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"o50", "o51", "o52", "o53", "o54", "o55", "o56", "o57", "o58", "o59"}, ids(oo)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if f.calls != calls+1 {
		t.Errorf("%d remote calls, want an evicted page listed again", f.calls-calls)
	}
}
