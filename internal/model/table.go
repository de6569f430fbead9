package model

import (
	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/sirupsen/logrus"
)

// RowHandle tracks one row by ID regardless of its position.
type RowHandle = datasource.RowHandle[model1.Row, string]

// Table is the model behind a virtual table widget. It keeps a window of
// rendered rows around the viewport in a RemoteDataSource and fans its
// notifications out to listeners.
//
// Every method must be called on the scheduler goroutine.
type Table struct {
	src       *datasource.RemoteDataSource[model1.Row, string]
	renderer  model1.Renderer
	listeners []TableListener
	log       logrus.FieldLogger
	viewport  datasource.Range
}

// NewTable returns a table pulling rows through f.
func NewTable(f datasource.Fetcher, r model1.Renderer, sched datasource.Scheduler, log logrus.FieldLogger, opts ...datasource.Option) (*Table, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := Table{renderer: r, log: log}
	src, err := datasource.New(f, (*handler)(&t), model1.RowKey, sched, append([]datasource.Option{datasource.WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, err
	}
	t.src = src

	return &t, nil
}

// Header returns the table header.
func (t *Table) Header() model1.Header {
	return t.renderer.Header()
}

// Colorer returns the row colorer.
func (t *Table) Colorer() model1.ColorerFunc {
	return t.renderer.ColorerFunc()
}

// Size returns the number of rows the widget should scroll over.
func (t *Table) Size() int {
	return t.src.EstimatedSize()
}

// EnsureVisible declares the rows on screen. Redeclaring the same rows is a
// no-op.
func (t *Table) EnsureVisible(first, count int) {
	vp := datasource.RangeWithLength(first, max(count, 0))
	if vp == t.viewport {
		return
	}
	t.viewport = vp
	t.src.EnsureAvailability(first, count)
}

// RowAt returns the row at index and how it is backed. Rows still loading come
// back as placeholders.
func (t *Table) RowAt(index int) (model1.Row, model1.RowState) {
	row, ok := t.src.Row(index)
	if !ok {
		return model1.PlaceholderRow(len(t.Header())), model1.RowLoading
	}
	state := model1.RowCached
	if h, err := t.src.Handle(row); err == nil && h.IsPinned() {
		state |= model1.RowPinned
	}
	return row, state
}

// IndexOf returns the cached position of the row with the given ID.
func (t *Table) IndexOf(id string) (int, bool) {
	return t.src.IndexOfKey(id)
}

// HandleAt returns an unpinned handle on the cached row at index.
func (t *Table) HandleAt(index int) (*RowHandle, error) {
	row, ok := t.src.Row(index)
	if !ok {
		return nil, datasource.ErrRowNotResident
	}
	return t.src.Handle(row)
}

// Pin pins the row at index and returns its handle.
func (t *Table) Pin(index int) (*RowHandle, error) {
	h, err := t.HandleAt(index)
	if err != nil {
		return nil, err
	}
	h.Pin()

	return h, nil
}

// PinVisible pins the cached rows in [first, first+count) until release is
// called.
func (t *Table) PinVisible(first, count int) (func(), error) {
	rows := make([]model1.Row, 0, count)
	for i := first; i < first+count; i++ {
		if row, ok := t.src.Row(i); ok {
			rows = append(rows, row)
		}
	}
	return t.src.TransactionPin(rows)
}

// Strategy returns the cache strategy.
func (t *Table) Strategy() datasource.CacheStrategy {
	return t.src.CacheStrategy()
}

// SetStrategy swaps the cache strategy.
func (t *Table) SetStrategy(s datasource.CacheStrategy) error {
	return t.src.SetCacheStrategy(s)
}

// Stats returns the cache state.
func (t *Table) Stats() Stats {
	return Stats{
		Size:      t.src.EstimatedSize(),
		SizeKnown: t.src.SizeKnown(),
		Cached:    t.src.CachedRange(),
		Requested: t.src.RequestedRange(),
		Waiting:   t.src.IsWaitingForData(),
		Pinned:    t.src.PinnedCount(),
	}
}

// AddListener registers a table listener.
func (t *Table) AddListener(l TableListener) {
	t.listeners = append(t.listeners, l)
}

// RemoveListener unregisters a table listener.
func (t *Table) RemoveListener(l TableListener) {
	for i, listener := range t.listeners {
		if listener == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// LoadFailed reports a fetch error to listeners.
func (t *Table) LoadFailed(err error) {
	for _, l := range t.listeners {
		l.TableLoadFailed(err)
	}
}

// SetRowData delivers fetched rows.
func (t *Table) SetRowData(first int, rows []model1.Row) {
	t.src.SetRowData(first, rows)
}

// SetEstimatedSize updates the size estimate and rechecks the viewport
// against it.
func (t *Table) SetEstimatedSize(n int) {
	t.src.SetEstimatedSize(n)
	t.src.EnsureAvailability(t.viewport.Start(), t.viewport.Length())
	t.notifyStructure()
}

// ResetDataAndSize drops every row and restarts from size n.
func (t *Table) ResetDataAndSize(n int) {
	t.src.ResetDataAndSize(n)
}

// InsertRowData reports rows inserted remotely.
func (t *Table) InsertRowData(first, count int) {
	t.src.InsertRowData(first, count)
}

// RemoveRowData reports rows removed remotely.
func (t *Table) RemoveRowData(first, count int) {
	t.src.RemoveRowData(first, count)
}

// EstimatedSize returns the size estimate.
func (t *Table) EstimatedSize() int {
	return t.src.EstimatedSize()
}

// SizeKnown reports whether the size has been estimated.
func (t *Table) SizeKnown() bool {
	return t.src.SizeKnown()
}

// handler receives the data source notifications of a Table.
type handler Table

// DataUpdated implements datasource.DataChangeHandler.
func (h *handler) DataUpdated(first, count int) {
	for _, l := range h.listeners {
		l.TableRowsChanged(first, count)
	}
}

// DataAvailable implements datasource.DataChangeHandler.
func (h *handler) DataAvailable(first, count int) {
	h.log.WithFields(logrus.Fields{
		"first": first,
		"count": count,
	}).Trace("Rows available")
}

// DataAdded implements datasource.DataChangeHandler.
func (h *handler) DataAdded(int, int) {
	(*Table)(h).notifyStructure()
}

// DataRemoved implements datasource.DataChangeHandler.
func (h *handler) DataRemoved(int, int) {
	(*Table)(h).notifyStructure()
}

// ResetDataAndSize implements datasource.DataChangeHandler.
func (h *handler) ResetDataAndSize(int) {
	(*Table)(h).notifyStructure()
}

func (t *Table) notifyStructure() {
	size := t.src.EstimatedSize()
	for _, l := range t.listeners {
		l.TableStructureChanged(size)
	}
}
