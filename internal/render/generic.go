package render

import (
	"strings"

	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/model1"
)

// DefaultColumns are shown for records without a dedicated renderer.
var DefaultColumns = []string{"ID", "NAME", "AGE"}

// Generic renders any record by looking its columns up in the record
// attributes. ID, NAME and AGE come from the record itself.
type Generic struct {
	Base

	header model1.Header
}

// NewGeneric returns a renderer showing cols, DefaultColumns when empty.
func NewGeneric(cols []string) *Generic {
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	g := Generic{header: make(model1.Header, 0, len(cols))}
	for _, c := range cols {
		col := model1.HeaderColumn{Name: strings.ToUpper(c)}
		switch col.Name {
		case "AGE":
			col.Time = true
		case "SIZE":
			col.Capacity = true
		}
		g.header = append(g.header, col)
	}
	return &g
}

// Header returns the configured columns.
func (g *Generic) Header() model1.Header {
	return g.header
}

// Render fills the row from the record attributes.
func (g *Generic) Render(o any, row *model1.Row) error {
	obj, err := asObject(o)
	if err != nil {
		return err
	}

	row.ID = obj.GetID()
	row.Fields = make(model1.Fields, 0, len(g.header))
	for _, c := range g.header {
		row.Fields = append(row.Fields, field(c.Name, obj))
	}
	return nil
}

func field(col string, obj dao.Object) string {
	switch col {
	case "ID":
		return obj.GetID()
	case "NAME":
		return NA(obj.GetName())
	case "AGE":
		return ToAge(obj.GetCreatedAt())
	}
	if v, ok := lookup(obj.GetAttrs(), col); ok {
		if col == "SIZE" {
			return SizeAttr(v)
		}
		return v
	}
	return NAValue
}

// lookup finds an attribute by column name, trying the dashed, underscored
// and camel cased spellings.
func lookup(attrs map[string]string, col string) (string, bool) {
	lower := strings.ToLower(col)
	for _, k := range []string{col, lower, strings.ReplaceAll(lower, "-", "_")} {
		if v, ok := attrs[k]; ok {
			return v, true
		}
	}
	squash := strings.NewReplacer("-", "", "_", "")
	want := squash.Replace(col)
	for k, v := range attrs {
		if strings.EqualFold(squash.Replace(k), want) {
			return v, true
		}
	}
	return "", false
}
