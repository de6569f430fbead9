package datasource

// Error is a datasource sentinel error.
type Error string

const (
	ErrNilStrategy    = Error("cache strategy cannot be nil")
	ErrNilHandler     = Error("data change handler cannot be nil")
	ErrNilFetcher     = Error("fetcher cannot be nil")
	ErrNilScheduler   = Error("scheduler cannot be nil")
	ErrNilKeyFunc     = Error("key function cannot be nil")
	ErrNilKey         = Error("row has no key")
	ErrNotPinned      = Error("row is not pinned")
	ErrRowNotResident = Error("row is neither cached nor pinned")
	ErrDisjointRanges = Error("ranges are neither overlapping nor adjacent")
)

// Error returns the error message.
func (e Error) Error() string {
	return string(e)
}
