package dao

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/a1s/lazyrows/internal/model1"
)

func init() {
	RegisterSource(MemoryRID, func(_ Factory, loc Locator) (RowSource, error) {
		oo := make([]Object, 0, loc.Seed)
		for _, r := range demoRecords(loc.Seed) {
			oo = append(oo, r.object())
		}
		return NewMemorySource(oo), nil
	})
}

// MemorySource keeps records in natural name order and notifies watchers of
// every change.
type MemorySource struct {
	objects  []Object
	watchers []*watcher
	mx       sync.RWMutex
}

type watcher struct {
	c    chan Change
	done <-chan struct{}
}

// NewMemorySource returns a source serving oo.
func NewMemorySource(oo []Object) *MemorySource {
	m := MemorySource{objects: append([]Object(nil), oo...)}
	sort.SliceStable(m.objects, func(i, j int) bool {
		return less(m.objects[i], m.objects[j])
	})
	return &m
}

func less(a, b Object) bool {
	return model1.Less(false, false, a.GetID(), b.GetID(), a.GetName(), b.GetName())
}

// ResourceID returns the source kind.
func (*MemorySource) ResourceID() ResourceID {
	return MemoryRID
}

// Count returns the number of records.
func (m *MemorySource) Count(context.Context) (int, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.objects), nil
}

// List returns limit records starting at offset.
func (m *MemorySource) List(_ context.Context, offset, limit int) ([]Object, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return append([]Object(nil), window(m.objects, offset, limit)...), nil
}

// Watch streams changes until ctx is done.
func (m *MemorySource) Watch(ctx context.Context) <-chan Change {
	w := watcher{c: make(chan Change, 128), done: ctx.Done()}
	m.mx.Lock()
	m.watchers = append(m.watchers, &w)
	m.mx.Unlock()

	go func() {
		<-ctx.Done()
		m.mx.Lock()
		defer m.mx.Unlock()
		for i, ww := range m.watchers {
			if ww == &w {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		close(w.c)
	}()

	return w.c
}

// Insert adds o at its sorted position.
func (m *MemorySource) Insert(o Object) int {
	m.mx.Lock()
	defer m.mx.Unlock()

	i := sort.Search(len(m.objects), func(i int) bool {
		return !less(m.objects[i], o)
	})
	m.objects = append(m.objects, nil)
	copy(m.objects[i+1:], m.objects[i:])
	m.objects[i] = o
	m.notify(Change{Kind: ChangeInsert, Offset: i, Count: 1})

	return i
}

// Remove deletes the record with the given ID.
func (m *MemorySource) Remove(id string) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	i, ok := m.indexOf(id)
	if !ok {
		return fmt.Errorf("no record %q", id)
	}
	m.objects = append(m.objects[:i], m.objects[i+1:]...)
	m.notify(Change{Kind: ChangeRemove, Offset: i, Count: 1})

	return nil
}

// Update replaces the record sharing o's ID, keeping its position.
func (m *MemorySource) Update(o Object) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	i, ok := m.indexOf(o.GetID())
	if !ok {
		return fmt.Errorf("no record %q", o.GetID())
	}
	m.objects[i] = o
	m.notify(Change{Kind: ChangeUpdate, Offset: i, Count: 1})

	return nil
}

// Reset replaces every record.
func (m *MemorySource) Reset(oo []Object) {
	fresh := NewMemorySource(oo)

	m.mx.Lock()
	defer m.mx.Unlock()
	m.objects = fresh.objects
	m.notify(Change{Kind: ChangeReset, Count: len(m.objects)})
}

// Churn randomly inserts and removes records every tick until ctx is done.
func (m *MemorySource) Churn(ctx context.Context, every time.Duration, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		size, _ := m.Count(ctx)
		if size > 0 && rnd.Intn(2) == 0 {
			oo, _ := m.List(ctx, rnd.Intn(size), 1)
			if len(oo) == 1 {
				_ = m.Remove(oo[0].GetID())
			}
			continue
		}
		now := time.Now()
		id := fmt.Sprintf("live-%d-%d", seed, n)
		m.Insert(&BaseObject{
			ID:        id,
			Name:      fmt.Sprintf("record %d", rnd.Intn(max(size, 1))),
			CreatedAt: &now,
			Attrs:     map[string]string{"id": id, "size": "0"},
		})
	}
}

func (m *MemorySource) indexOf(id string) (int, bool) {
	for i, o := range m.objects {
		if o.GetID() == id {
			return i, true
		}
	}
	return -1, false
}

func (m *MemorySource) notify(c Change) {
	for _, w := range m.watchers {
		select {
		case w.c <- c:
		case <-w.done:
		}
	}
}
