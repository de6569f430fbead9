package model1

import (
	"github.com/derailed/tcell/v2"
)

const (
	NAValue      = "n/a"
	LoadingValue = "…"
)

// RowState tells how a row on screen is backed.
type RowState int

const (
	// RowLoading marks an index whose row has not arrived yet.
	RowLoading RowState = 1 << iota
	// RowCached marks a row served from the cache.
	RowCached
	// RowPinned marks a cached row that is also pinned.
	RowPinned
)

// ColorerFunc picks the color of a row on screen.
type ColorerFunc func(h Header, r Row, state RowState) tcell.Color

// Renderer turns source objects into rows.
type Renderer interface {
	// Header returns the columns this renderer fills.
	Header() Header

	// Render fills row from o.
	Render(o any, row *Row) error

	// ColorerFunc returns the row colorer.
	ColorerFunc() ColorerFunc
}
