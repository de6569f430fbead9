package datasource

type pinEntry[T any] struct {
	row   T
	count int
}

// RowHandle gives access to one logical row by key, independent of its
// position in the cache. While pinned, the row stays retrievable after it is
// evicted and follows fresh data delivered for the same key.
type RowHandle[T any, K comparable] struct {
	src *RemoteDataSource[T, K]
	key K
	row T
}

// Handle returns a handle for row. Pinned rows share their pin group; other
// rows must be cached.
func (d *RemoteDataSource[T, K]) Handle(row T) (*RowHandle[T, K], error) {
	key := d.keyFn(row)
	var zero K
	if key == zero {
		return nil, ErrNilKey
	}
	if e, ok := d.pinned[key]; ok {
		return &RowHandle[T, K]{src: d, key: key, row: e.row}, nil
	}
	i, ok := d.keyIndex[key]
	if !ok {
		return nil, ErrRowNotResident
	}

	return &RowHandle[T, K]{src: d, key: key, row: d.rows[i]}, nil
}

// TransactionPin pins every row for the duration of a render pass. The
// returned release func unpins them again.
func (d *RemoteDataSource[T, K]) TransactionPin(rows []T) (func(), error) {
	handles := make([]*RowHandle[T, K], 0, len(rows))
	release := func() {
		for _, h := range handles {
			_ = h.Unpin()
		}
	}
	for _, row := range rows {
		h, err := d.Handle(row)
		if err != nil {
			release()
			return nil, err
		}
		h.Pin()
		handles = append(handles, h)
	}

	return release, nil
}

// PinnedCount returns the number of pinned keys.
func (d *RemoteDataSource[T, K]) PinnedCount() int {
	return len(d.pinned)
}

// Key returns the row key.
func (h *RowHandle[T, K]) Key() K {
	return h.key
}

// Pin adds one reference to the row's pin group.
func (h *RowHandle[T, K]) Pin() {
	if e, ok := h.src.pinned[h.key]; ok {
		e.count++
		return
	}
	row := h.row
	if i, ok := h.src.keyIndex[h.key]; ok {
		row = h.src.rows[i]
	}
	h.src.pinned[h.key] = &pinEntry[T]{row: row, count: 1}
}

// Unpin drops one reference. The row is released with its last reference.
func (h *RowHandle[T, K]) Unpin() error {
	e, ok := h.src.pinned[h.key]
	if !ok {
		return ErrNotPinned
	}
	if e.count--; e.count == 0 {
		delete(h.src.pinned, h.key)
	}
	return nil
}

// IsPinned reports whether the key holds at least one pin.
func (h *RowHandle[T, K]) IsPinned() bool {
	_, ok := h.src.pinned[h.key]
	return ok
}

// Row returns the latest known row for the key. It fails unless pinned.
func (h *RowHandle[T, K]) Row() (T, error) {
	e, ok := h.src.pinned[h.key]
	if !ok {
		var zero T
		return zero, ErrNotPinned
	}
	return e.row, nil
}

// UpdateRow tells the handler the row changed locally.
func (h *RowHandle[T, K]) UpdateRow() {
	if i, ok := h.src.keyIndex[h.key]; ok {
		h.src.handler.DataUpdated(i, 1)
	}
}
