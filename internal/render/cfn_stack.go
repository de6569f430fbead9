package render

import (
	"strings"

	"github.com/a1s/lazyrows/internal/model1"
	"github.com/derailed/tcell/v2"
)

// CFNStack renders CloudFormation stacks
type CFNStack struct{}

// Header returns the stack header
func (*CFNStack) Header() model1.Header {
	return model1.Header{
		{Name: "NAME"},
		{Name: "STATUS"},
		{Name: "REASON", Attrs: model1.Attrs{MaxWidth: 50}},
		{Name: "AGE", Attrs: model1.Attrs{Time: true}},
	}
}

// Render renders a stack to a row
func (*CFNStack) Render(o any, row *model1.Row) error {
	obj, err := asObject(o)
	if err != nil {
		return err
	}
	attrs := obj.GetAttrs()

	row.ID = obj.GetID()
	row.Fields = model1.Fields{
		obj.GetName(),
		attrs["status"],
		attrs["reason"],
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc colors stacks by status suffix.
func (*CFNStack) ColorerFunc() model1.ColorerFunc {
	return func(h model1.Header, r model1.Row, state model1.RowState) tcell.Color {
		idx, ok := h.IndexOf("STATUS")
		if !ok || idx >= len(r.Fields) || state&(model1.RowLoading|model1.RowPinned) != 0 {
			return model1.DefaultColorer(h, r, state)
		}
		status := r.Fields[idx]
		switch {
		case strings.HasSuffix(status, "_FAILED"), strings.Contains(status, "ROLLBACK"):
			return model1.ErrColor
		case strings.HasSuffix(status, "_IN_PROGRESS"):
			return model1.AddColor
		case strings.HasPrefix(status, "DELETE_"):
			return model1.KillColor
		case strings.HasSuffix(status, "_COMPLETE"):
			return model1.CompletedColor
		default:
			return model1.DefaultColorer(h, r, state)
		}
	}
}
