package model

import (
	"github.com/a1s/lazyrows/internal/datasource"
)

// TableListener represents a table model listener. Callbacks run on the
// scheduler goroutine.
type TableListener interface {
	// TableRowsChanged notifies rows [first, first+count) have new content.
	TableRowsChanged(first, count int)

	// TableStructureChanged notifies rows moved or the size changed.
	TableStructureChanged(size int)

	// TableLoadFailed notifies a fetch failed.
	TableLoadFailed(error)
}

// Stats describes the cache behind a table.
type Stats struct {
	Size      int
	SizeKnown bool
	Cached    datasource.Range
	Requested datasource.Range
	Waiting   bool
	Pinned    int
}
