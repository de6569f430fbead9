package model1

import (
	"fmt"
	"strings"
)

const ageCol = "AGE"

// Attrs represents column attributes
type Attrs struct {
	MaxWidth int  // Truncate cells past this width, 0 means unbounded
	Time     bool // Age column
	Capacity bool // Numeric (right-align)
	Hide     bool // Always hidden
}

// HeaderColumn represents a table header column
type HeaderColumn struct {
	Name string
	Attrs
}

func (h HeaderColumn) String() string {
	return fmt.Sprintf("%s [%d::%t::%t]", h.Name, h.MaxWidth, h.Time, h.Capacity)
}

// Header represents a table header (slice of columns)
type Header []HeaderColumn

func (h Header) Clone() Header {
	he := make(Header, len(h))
	copy(he, h)
	return he
}

// IndexOf returns the position of a column, matched case insensitively.
func (h Header) IndexOf(colName string) (int, bool) {
	for i, c := range h {
		if strings.EqualFold(c.Name, colName) {
			return i, true
		}
	}
	return -1, false
}

// AgeCol returns the index of the age column or -1.
func (h Header) AgeCol() int {
	idx, _ := h.IndexOf(ageCol)
	return idx
}

// IsTimeCol tells whether col holds ages.
func (h Header) IsTimeCol(col int) bool {
	if col < 0 || col >= len(h) {
		return false
	}
	return h[col].Time
}

// IsCapacityCol tells whether col holds sizes.
func (h Header) IsCapacityCol(col int) bool {
	if col < 0 || col >= len(h) {
		return false
	}
	return h[col].Capacity
}

// ColumnNames returns the visible column names.
func (h Header) ColumnNames() []string {
	if len(h) == 0 {
		return nil
	}
	cc := make([]string, 0, len(h))
	for _, c := range h {
		if c.Hide {
			continue
		}
		cc = append(cc, c.Name)
	}
	return cc
}

// Customize narrows the header to the named columns, returning the new header
// and the source index of every kept column. Unknown names are reported.
func (h Header) Customize(names []string) (Header, []int, error) {
	if len(names) == 0 {
		cols := make([]int, len(h))
		for i := range h {
			cols[i] = i
		}
		return h.Clone(), cols, nil
	}

	out, cols := make(Header, 0, len(names)), make([]int, 0, len(names))
	for _, n := range names {
		idx, ok := h.IndexOf(n)
		if !ok {
			return nil, nil, fmt.Errorf("unknown column %q, expecting one of %s", n, strings.Join(h.ColumnNames(), ","))
		}
		out, cols = append(out, h[idx]), append(cols, idx)
	}
	return out, cols, nil
}
