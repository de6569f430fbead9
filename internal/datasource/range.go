package datasource

import "fmt"

// Range is a half-open interval [start, end) of row indices.
// The zero value is the empty range at 0.
type Range struct {
	start, end int
}

// NewRange returns the range [start, end).
func NewRange(start, end int) Range {
	if end < start {
		panic(fmt.Sprintf("datasource: invalid range [%d, %d)", start, end))
	}
	return Range{start: start, end: end}
}

// RangeWithLength returns the range [start, start+length).
func RangeWithLength(start, length int) Range {
	if length < 0 {
		panic(fmt.Sprintf("datasource: negative range length %d", length))
	}
	return Range{start: start, end: start + length}
}

// Start returns the first index in the range.
func (r Range) Start() int { return r.start }

// End returns the index just past the range.
func (r Range) End() int { return r.end }

// Length returns the number of indices in the range.
func (r Range) Length() int { return r.end - r.start }

// IsEmpty reports whether the range holds no index.
func (r Range) IsEmpty() bool { return r.end <= r.start }

// Contains reports whether i lies in the range.
func (r Range) Contains(i int) bool {
	return r.start <= i && i < r.end
}

// Intersects reports whether the two ranges share at least one index.
// An empty range intersects nothing.
func (r Range) Intersects(o Range) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.start < o.end && o.start < r.end
}

// IsSubsetOf reports whether every index of r is in o.
// The empty range is a subset of any range.
func (r Range) IsSubsetOf(o Range) bool {
	if r.IsEmpty() {
		return true
	}
	return o.start <= r.start && r.end <= o.end
}

// RestrictTo returns the intersection of r and o. When the ranges are disjoint
// the result is an empty range positioned inside r's bounds.
func (r Range) RestrictTo(o Range) Range {
	start, end := max(r.start, o.start), min(r.end, o.end)
	if end <= start {
		p := min(max(o.start, r.start), r.end)
		return Range{start: p, end: p}
	}
	return Range{start: start, end: end}
}

// Expand grows the range by before indices at the start and after indices at
// the end.
func (r Range) Expand(before, after int) Range {
	return NewRange(r.start-before, r.end+after)
}

// OffsetBy shifts the range by delta.
func (r Range) OffsetBy(delta int) Range {
	return Range{start: r.start + delta, end: r.end + delta}
}

// CombineWith returns the union of two overlapping or adjacent ranges.
// An empty operand yields the other one.
func (r Range) CombineWith(o Range) (Range, error) {
	switch {
	case o.IsEmpty():
		return r, nil
	case r.IsEmpty():
		return o, nil
	case r.end < o.start || o.end < r.start:
		return Range{}, fmt.Errorf("%w: %s and %s", ErrDisjointRanges, r, o)
	}
	return Range{start: min(r.start, o.start), end: max(r.end, o.end)}, nil
}

// PartitionWith splits r into the parts before, inside and after o.
// Concatenating the three results in order yields r.
func (r Range) PartitionWith(o Range) [3]Range {
	lo := min(max(o.start, r.start), r.end)
	hi := min(max(o.end, lo), r.end)
	if o.IsEmpty() {
		hi = lo
	}
	return [3]Range{
		{start: r.start, end: lo},
		{start: lo, end: hi},
		{start: hi, end: r.end},
	}
}

// SplitAt cuts the range at i, which is clamped into the range.
func (r Range) SplitAt(i int) (Range, Range) {
	i = min(max(i, r.start), r.end)
	return Range{start: r.start, end: i}, Range{start: i, end: r.end}
}

// String returns the range as "[start, end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.start, r.end)
}
