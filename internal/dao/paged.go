package dao

import (
	"context"
	"fmt"
	"sync"
)

const (
	// DefaultPageSize bounds one remote listing call.
	DefaultPageSize = 100

	// KeepPages is how many cached pages a PagedSource keeps on each side of
	// the pages it listed last.
	KeepPages = 4
)

// PageFunc lists the page following token. A nil next token ends the listing.
type PageFunc func(ctx context.Context, token *string, limit int) (oo []Object, next *string, err error)

// Estimator is implemented by sources whose Count is a guess.
type Estimator interface {
	Estimated() bool
}

// PagedSource gives positional access to a token paginated listing. It
// remembers where every page it has seen starts and the token leading to it,
// so any known page can be listed again without walking from the start.
// Pages are kept in a TTL cache, and only those near the last listing.
type PagedSource struct {
	rid      ResourceID
	key      string
	fetch    PageFunc
	pageSize int
	cache    *ResourceCache

	tokens []*string
	starts []int
	cached map[int]struct{}
	done   bool
	total  int
	mx     sync.Mutex
}

// NewPagedSource returns a source listing pages through fetch. key scopes the
// cached pages.
func NewPagedSource(rid ResourceID, key string, pageSize int, cache *ResourceCache, fetch PageFunc) *PagedSource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if cache == nil {
		cache = NewResourceCache(DefaultCacheTTL)
	}
	return &PagedSource{
		rid:      rid,
		key:      fmt.Sprintf("%s:%s", rid, key),
		fetch:    fetch,
		pageSize: pageSize,
		cache:    cache,
		tokens:   []*string{nil},
		starts:   []int{0},
		cached:   make(map[int]struct{}),
	}
}

// ResourceID returns the source kind.
func (p *PagedSource) ResourceID() ResourceID {
	return p.rid
}

// Estimated reports whether the listing end has not been reached yet.
func (p *PagedSource) Estimated() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return !p.done
}

// Count returns the exact size once the last page was seen, otherwise the
// records seen so far plus one page.
func (p *PagedSource) Count(ctx context.Context) (int, error) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if len(p.tokens) == 1 && !p.done {
		if _, err := p.page(ctx, 0); err != nil {
			return 0, err
		}
	}
	if p.done {
		return p.total, nil
	}
	return p.starts[len(p.starts)-1] + p.pageSize, nil
}

// List returns limit records starting at offset, walking forward from the
// closest known page.
func (p *PagedSource) List(ctx context.Context, offset, limit int) ([]Object, error) {
	p.mx.Lock()
	defer p.mx.Unlock()

	oo := make([]Object, 0, limit)
	first := p.pageAt(offset)
	last := first
	for i := first; i < len(p.tokens) && len(oo) < limit; i++ {
		page, err := p.page(ctx, i)
		if err != nil {
			return nil, err
		}
		last = i
		start := p.starts[i]
		for j, o := range page {
			if start+j >= offset && len(oo) < limit {
				oo = append(oo, o)
			}
		}
	}
	p.trim(first, last)

	return oo, nil
}

// trim evicts cached pages further than KeepPages from [first, last].
func (p *PagedSource) trim(first, last int) {
	for i := range p.cached {
		if i < first-KeepPages || i > last+KeepPages {
			p.cache.Delete(p.pageKey(i))
			delete(p.cached, i)
		}
	}
}

func (p *PagedSource) pageKey(i int) string {
	return fmt.Sprintf("%s:%d", p.key, i)
}

// Invalidate forgets every page.
func (p *PagedSource) Invalidate() {
	p.mx.Lock()
	defer p.mx.Unlock()

	p.cache.InvalidatePrefix(p.key + ":")
	p.tokens, p.starts = []*string{nil}, []int{0}
	p.cached = make(map[int]struct{})
	p.done, p.total = false, 0
}

func (p *PagedSource) pageAt(offset int) int {
	i := 0
	for i+1 < len(p.starts) && p.starts[i+1] <= offset {
		i++
	}
	return i
}

func (p *PagedSource) page(ctx context.Context, i int) ([]Object, error) {
	key := p.pageKey(i)
	if oo, ok := p.cache.Get(key); ok {
		return oo, nil
	}

	oo, next, err := p.fetch(ctx, p.tokens[i], p.pageSize)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, oo)
	p.cached[i] = struct{}{}

	if i == len(p.tokens)-1 && !p.done {
		if next == nil || *next == "" || len(oo) == 0 {
			p.done, p.total = true, p.starts[i]+len(oo)
		} else {
			p.tokens = append(p.tokens, next)
			p.starts = append(p.starts, p.starts[i]+len(oo))
		}
	}

	return oo, nil
}
