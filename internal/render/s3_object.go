package render

import (
	"strings"

	"github.com/a1s/lazyrows/internal/model1"
	"github.com/derailed/tcell/v2"
)

// S3Object renders S3 objects
type S3Object struct {
	Base
}

// Header returns the S3 object header
func (*S3Object) Header() model1.Header {
	return model1.Header{
		{Name: "KEY"},
		{Name: "SIZE", Attrs: model1.Attrs{Capacity: true}},
		{Name: "STORAGE-CLASS"},
		{Name: "AGE", Attrs: model1.Attrs{Time: true}},
	}
}

// Render renders an S3 object to a row. Folders carry no size nor class.
func (*S3Object) Render(o any, row *model1.Row) error {
	obj, err := asObject(o)
	if err != nil {
		return err
	}
	attrs := obj.GetAttrs()

	row.ID = obj.GetID()
	if strings.HasSuffix(obj.GetID(), "/") {
		row.Fields = model1.Fields{obj.GetName(), NAValue, NAValue, NAValue}
		return nil
	}
	row.Fields = model1.Fields{
		obj.GetName(),
		SizeAttr(attrs["size"]),
		attrs["storage-class"],
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc returns the object colorer
func (*S3Object) ColorerFunc() model1.ColorerFunc {
	return colorBy("STORAGE-CLASS", map[string]tcell.Color{
		"GLACIER":      model1.PendingColor,
		"DEEP_ARCHIVE": model1.PendingColor,
		"GLACIER_IR":   model1.PendingColor,
	})
}
