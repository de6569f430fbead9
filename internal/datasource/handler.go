package datasource

// DataChangeHandler receives notifications about rows entering, leaving or
// changing in a RemoteDataSource. Indices are absolute row positions.
type DataChangeHandler interface {
	// DataUpdated reports that rows [first, first+count) changed content.
	DataUpdated(first, count int)

	// DataRemoved reports that count rows were removed at first.
	DataRemoved(first, count int)

	// DataAdded reports that count rows were inserted at first.
	DataAdded(first, count int)

	// DataAvailable reports that rows [first, first+count) are cached.
	DataAvailable(first, count int)

	// ResetDataAndSize reports that every row is stale and the estimated
	// size is now size.
	ResetDataAndSize(size int)
}

// Fetcher requests rows from the remote end. RequestRows must not block; the
// rows are delivered later through RemoteDataSource.SetRowData.
type Fetcher interface {
	RequestRows(first, count int)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(first, count int)

// RequestRows calls f(first, count).
func (f FetcherFunc) RequestRows(first, count int) {
	f(first, count)
}
