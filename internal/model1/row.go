package model1

// Row represents one rendered record, keyed by a stable ID.
type Row struct {
	ID     string
	Fields Fields
}

// NewRow returns a row with size empty fields.
func NewRow(size int) Row {
	return Row{Fields: make(Fields, size)}
}

// PlaceholderRow returns the row shown while index is still loading.
func PlaceholderRow(size int) Row {
	r := NewRow(size)
	for i := range r.Fields {
		r.Fields[i] = LoadingValue
	}
	return r
}

// RowKey returns the row ID. It keys rows in the cache.
func RowKey(r Row) string {
	return r.ID
}

// Customize returns the row narrowed to cols.
func (r Row) Customize(cols []int) Row {
	out := NewRow(len(cols))
	r.Fields.Customize(cols, out.Fields)
	out.ID = r.ID
	return out
}

// Diff reports whether ro differs from r, ignoring the age column.
func (r Row) Diff(ro Row, ageCol int) bool {
	if r.ID != ro.ID {
		return true
	}
	return r.Fields.Diff(ro.Fields, ageCol)
}

func (r Row) Clone() Row {
	return Row{
		ID:     r.ID,
		Fields: r.Fields.Clone(),
	}
}
