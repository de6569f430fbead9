package render

import (
	"github.com/a1s/lazyrows/internal/model1"
)

// Customized narrows a dedicated renderer to a subset of its columns.
type Customized struct {
	model1.Renderer

	header model1.Header
	cols   []int
}

// NewCustomized returns r showing only the named columns, in that order.
func NewCustomized(r model1.Renderer, names []string) (*Customized, error) {
	h, cols, err := r.Header().Customize(names)
	if err != nil {
		return nil, err
	}

	return &Customized{Renderer: r, header: h, cols: cols}, nil
}

// Header returns the kept columns.
func (c *Customized) Header() model1.Header {
	return c.header
}

// Render renders the full row and keeps the customized columns.
func (c *Customized) Render(o any, row *model1.Row) error {
	var full model1.Row
	if err := c.Renderer.Render(o, &full); err != nil {
		return err
	}
	*row = full.Customize(c.cols)

	return nil
}
