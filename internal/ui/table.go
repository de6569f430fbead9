// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package ui

import (
	"fmt"

	"github.com/a1s/lazyrows/internal/model"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/mattn/go-runewidth"
)

const (
	// TitleFmt formats the table title with the source, size and selection.
	TitleFmt = " <%s>[%d/%s] "

	minColWidth = 4
	colPadding  = 2
)

// VirtualTable draws the visible slice of a model.Table. Only the rows on
// screen are asked for, so the table scrolls over sources of any size.
type VirtualTable struct {
	*tview.Box

	name     string
	model    *model.Table
	actions  *KeyActions
	top      int
	selected int
	height   int
	onSelect func(index int)
	onError  func(error)
}

// NewVirtualTable returns a table showing m.
func NewVirtualTable(name string, m *model.Table) *VirtualTable {
	v := VirtualTable{
		Box:     tview.NewBox(),
		name:    name,
		model:   m,
		actions: NewKeyActions(),
	}
	v.SetBorder(true)
	v.SetBorderAttributes(tcell.AttrBold)
	v.SetBorderPadding(0, 0, 1, 1)
	v.SetBackgroundColor(tcell.ColorDefault)
	v.bindKeys()
	v.updateTitle()
	m.AddListener(&v)

	return &v
}

// Name returns the table name.
func (v *VirtualTable) Name() string {
	return v.name
}

// Actions returns the key actions.
func (v *VirtualTable) Actions() *KeyActions {
	return v.actions
}

// Hints returns menu hints for key bindings.
func (v *VirtualTable) Hints() MenuHints {
	return v.actions.Hints()
}

// SetSelectedFunc is called with the row index when enter is pressed.
func (v *VirtualTable) SetSelectedFunc(fn func(index int)) {
	v.onSelect = fn
}

// SetErrorFunc is called when the model fails to load rows.
func (v *VirtualTable) SetErrorFunc(fn func(error)) {
	v.onError = fn
}

// Selected returns the selected row index.
func (v *VirtualTable) Selected() int {
	return v.selected
}

// Select moves the selection to index, scrolling it into view.
func (v *VirtualTable) Select(index int) {
	size := v.model.Size()
	if size <= 0 {
		v.selected, v.top = 0, 0
		v.updateTitle()
		return
	}
	v.selected = max(0, min(index, size-1))
	page := max(v.height, 1)
	switch {
	case v.selected < v.top:
		v.top = v.selected
	case v.selected >= v.top+page:
		v.top = v.selected - page + 1
	}
	v.updateTitle()
}

// Viewport returns the first visible row and the number of visible rows.
func (v *VirtualTable) Viewport() (int, int) {
	return v.top, v.height
}

func (v *VirtualTable) bindKeys() {
	v.actions.Bulk(KeyMap{
		tcell.KeyEnter: NewKeyAction("Select", v.selectCmd, true),
		Keyj:           NewKeyAction("Down", v.moveCmd(1), false),
		Keyk:           NewKeyAction("Up", v.moveCmd(-1), false),
		tcell.KeyDown:  NewKeyAction("Down", v.moveCmd(1), false),
		tcell.KeyUp:    NewKeyAction("Up", v.moveCmd(-1), false),
		tcell.KeyPgDn:  NewKeyAction("Page Down", v.pageCmd(1), false),
		tcell.KeyPgUp:  NewKeyAction("Page Up", v.pageCmd(-1), false),
		tcell.KeyCtrlF: NewKeyAction("Page Down", v.pageCmd(1), false),
		tcell.KeyCtrlB: NewKeyAction("Page Up", v.pageCmd(-1), false),
		Keyg:           NewKeyAction("Top", v.jumpCmd(false), false),
		tcell.KeyHome:  NewKeyAction("Top", v.jumpCmd(false), false),
		KeyG:           NewKeyAction("Bottom", v.jumpCmd(true), false),
		tcell.KeyEnd:   NewKeyAction("Bottom", v.jumpCmd(true), false),
	})
}

func (v *VirtualTable) moveCmd(delta int) ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		v.Select(v.selected + delta)
		return nil
	}
}

func (v *VirtualTable) pageCmd(dir int) ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		page := max(v.height, 1)
		v.top = max(0, v.top+dir*page)
		v.Select(v.selected + dir*page)
		return nil
	}
}

func (v *VirtualTable) jumpCmd(bottom bool) ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		if bottom {
			v.Select(v.model.Size() - 1)
		} else {
			v.Select(0)
		}
		return nil
	}
}

func (v *VirtualTable) selectCmd(*tcell.EventKey) *tcell.EventKey {
	if v.onSelect != nil && v.model.Size() > 0 {
		v.onSelect(v.selected)
	}
	return nil
}

// InputHandler dispatches keys to the registered actions.
func (v *VirtualTable) InputHandler() func(*tcell.EventKey, func(tview.Primitive)) {
	return v.WrapInputHandler(func(evt *tcell.EventKey, _ func(tview.Primitive)) {
		if a, ok := v.actions.Get(AsKey(evt)); ok && a.Action != nil {
			a.Action(evt)
		}
	})
}

// Draw draws the header and the visible rows. Drawing declares the visible
// rows to the model, which fetches what is missing.
func (v *VirtualTable) Draw(screen tcell.Screen) {
	x, y, width, height := v.GetInnerRect()
	v.height = max(height-1, 0)
	v.Select(v.selected)
	v.Box.DrawForSubclass(screen, v)
	if width <= 0 || v.height == 0 {
		return
	}
	v.model.EnsureVisible(v.top, v.height)

	header := v.model.Header()
	colorer := v.model.Colorer()
	rows := make([]model1.Row, 0, v.height)
	states := make([]model1.RowState, 0, v.height)
	for i := v.top; i < min(v.top+v.height, v.model.Size()); i++ {
		row, state := v.model.RowAt(i)
		rows = append(rows, row)
		states = append(states, state)
	}
	widths := columnWidths(header, rows, width)

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	cx := x
	for c, h := range header {
		if h.Hide {
			continue
		}
		printCell(screen, cx, y, widths[c], h.Name, headerStyle, numeric(header, c))
		cx += widths[c] + colPadding
	}

	for r, row := range rows {
		style := tcell.StyleDefault.Foreground(colorer(header, row, states[r]))
		if v.top+r == v.selected {
			style = style.Reverse(true)
			fill(screen, x, y+1+r, width, style)
		}
		cx = x
		for c, h := range header {
			if h.Hide || c >= len(row.Fields) {
				continue
			}
			printCell(screen, cx, y+1+r, widths[c], row.Fields[c], style, numeric(header, c))
			cx += widths[c] + colPadding
		}
	}
}

// TableRowsChanged implements model.TableListener.
func (*VirtualTable) TableRowsChanged(int, int) {}

// TableStructureChanged implements model.TableListener.
func (v *VirtualTable) TableStructureChanged(int) {
	v.Select(v.selected)
}

// TableLoadFailed implements model.TableListener.
func (v *VirtualTable) TableLoadFailed(err error) {
	if v.onError != nil {
		v.onError(err)
	}
}

func (v *VirtualTable) updateTitle() {
	size := "?"
	if v.model.SizeKnown() {
		size = fmt.Sprintf("%d", v.model.Size())
	}
	v.SetTitle(fmt.Sprintf(TitleFmt, v.name, v.selected+1, size))
}

// columnWidths sizes every column to its widest visible value, bounded by
// MaxWidth, and hands the remaining space to the last column.
func columnWidths(h model1.Header, rows []model1.Row, total int) []int {
	ww := make([]int, len(h))
	used := 0
	last := -1
	for c, col := range h {
		if col.Hide {
			continue
		}
		w := max(runewidth.StringWidth(col.Name), minColWidth)
		for _, r := range rows {
			if c < len(r.Fields) {
				w = max(w, runewidth.StringWidth(r.Fields[c]))
			}
		}
		if col.MaxWidth > 0 {
			w = min(w, col.MaxWidth)
		}
		ww[c] = w
		used += w + colPadding
		last = c
	}
	if last >= 0 && used-colPadding < total {
		ww[last] += total - (used - colPadding)
	}
	return ww
}

// numeric tells whether column c holds sizes or ages, which print right aligned.
func numeric(h model1.Header, c int) bool {
	return h.IsCapacityCol(c) || h.IsTimeCol(c)
}

func printCell(screen tcell.Screen, x, y, width int, text string, style tcell.Style, right bool) {
	if width <= 0 {
		return
	}
	text = runewidth.Truncate(text, width, "…")
	if right {
		x += width - runewidth.StringWidth(text)
	}
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		screen.SetContent(x, y, r, nil, style)
		x += w
	}
}

func fill(screen tcell.Screen, x, y, width int, style tcell.Style) {
	for i := range width {
		screen.SetContent(x+i, y, ' ', nil, style)
	}
}
