package render

import (
	"fmt"

	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/derailed/tcell/v2"
)

// Base provides a base renderer implementation
type Base struct{}

// ColorerFunc returns the default colorer
func (*Base) ColorerFunc() model1.ColorerFunc {
	return model1.DefaultColorer
}

func asObject(o any) (dao.Object, error) {
	obj, ok := o.(dao.Object)
	if !ok {
		return nil, fmt.Errorf("expected dao.Object, got %T", o)
	}
	return obj, nil
}

// colorBy colors rows by the value of col, deferring loading and pinned rows
// to the default colorer.
func colorBy(col string, colors map[string]tcell.Color) model1.ColorerFunc {
	return func(h model1.Header, r model1.Row, state model1.RowState) tcell.Color {
		idx, ok := h.IndexOf(col)
		if !ok || idx >= len(r.Fields) || state&(model1.RowLoading|model1.RowPinned) != 0 {
			return model1.DefaultColorer(h, r, state)
		}
		if c, ok := colors[r.Fields[idx]]; ok {
			return c
		}
		return model1.DefaultColorer(h, r, state)
	}
}
