package ui

import (
	"github.com/a1s/lazyrows/internal/model"
	"github.com/derailed/tview"
)

// Pages shows the top page of a model.Stack.
type Pages struct {
	*tview.Pages
}

// NewPages returns a new pages manager
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// StackPushed adds and shows the new page.
func (p *Pages) StackPushed(c model.Component) {
	if prim, ok := c.(tview.Primitive); ok {
		p.AddPage(c.Name(), prim, true, true)
		p.SwitchToPage(c.Name())
	}
}

// StackPopped removes the old page and shows the new top.
func (p *Pages) StackPopped(old, top model.Component) {
	p.RemovePage(old.Name())
	if top != nil {
		p.SwitchToPage(top.Name())
	}
}

// Current returns the current page primitive
func (p *Pages) Current() tview.Primitive {
	_, prim := p.GetFrontPage()
	return prim
}
