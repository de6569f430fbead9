package model1

// Fields represents the cells of a row.
type Fields []string

// Customize copies the requested columns into out. Unknown columns are blank.
func (f Fields) Customize(cols []int, out Fields) {
	for i, c := range cols {
		if c < 0 || c >= len(f) {
			out[i] = NAValue
			continue
		}
		out[i] = f[c]
	}
}

// Diff reports whether fields differ, skipping ageCol.
func (f Fields) Diff(ff Fields, ageCol int) bool {
	if len(f) != len(ff) {
		return true
	}
	for i := range f {
		if i == ageCol {
			continue
		}
		if f[i] != ff[i] {
			return true
		}
	}
	return false
}

func (f Fields) Clone() Fields {
	cp := make(Fields, len(f))
	copy(cp, f)
	return cp
}
