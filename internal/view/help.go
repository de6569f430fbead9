// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package view

import (
	"github.com/a1s/lazyrows/internal/ui"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// HelpBind represents a single keybinding.
type HelpBind struct {
	Key  string
	Desc string
}

var (
	generalBinds = []HelpBind{
		{"<:>", "Jump to row"},
		{"</>", "Find row ID"},
		{"<?>", "Help"},
		{"<esc>", "Back"},
		{"<q>", "Quit"},
	}
	navigationBinds = []HelpBind{
		{"<j>", "Down"},
		{"<k>", "Up"},
		{"<ctrl-f>", "Page Down"},
		{"<ctrl-b>", "Page Up"},
		{"<g>", "Top"},
		{"<G>", "Bottom"},
		{"<enter>", "Select"},
	}
)

// Help displays the keybindings of the page it was opened from.
type Help struct {
	*tview.Table
}

// NewHelp returns a help page listing the global bindings and hh.
func NewHelp(hh ui.MenuHints) *Help {
	h := Help{Table: tview.NewTable()}
	h.SetBorder(true)
	h.SetTitle(" Help ")
	h.SetTitleAlign(tview.AlignCenter)
	h.SetBorderColor(tcell.ColorYellow)
	h.SetBackgroundColor(tcell.ColorDefault)
	h.SetSelectable(false, false)

	actions := make([]HelpBind, 0, len(hh))
	for _, hint := range hh {
		actions = append(actions, HelpBind{Key: "<" + hint.Mnemonic + ">", Desc: hint.Description})
	}
	h.populate([]string{"GENERAL", "NAVIGATION", "ACTIONS"}, [][]HelpBind{generalBinds, navigationBinds, actions})

	return &h
}

// Name returns the page name.
func (*Help) Name() string {
	return "help"
}

// Start implements ui.Component.
func (*Help) Start() {}

// Stop implements ui.Component.
func (*Help) Stop() {}

// Hints returns the menu hints.
func (*Help) Hints() ui.MenuHints {
	return ui.MenuHints{{Mnemonic: "esc", Description: "Back", Visible: true}}
}

// populate lays the columns out side by side, each as a key column, a
// description column and a spacer.
func (h *Help) populate(headers []string, columns [][]HelpBind) {
	const colWidth = 3

	for colIdx, col := range columns {
		baseCol := colIdx * colWidth
		h.SetCell(0, baseCol, tview.NewTableCell(headers[colIdx]).
			SetTextColor(tcell.ColorAqua).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))

		for rowIdx, bind := range col {
			h.SetCell(rowIdx+1, baseCol, tview.NewTableCell(bind.Key).
				SetTextColor(tcell.ColorYellow).
				SetSelectable(false))
			h.SetCell(rowIdx+1, baseCol+1, tview.NewTableCell(bind.Desc).
				SetTextColor(tcell.ColorWhite).
				SetSelectable(false).
				SetExpansion(1))
		}
		if colIdx < len(columns)-1 {
			h.SetCell(0, baseCol+2, tview.NewTableCell("").SetSelectable(false).SetExpansion(1))
		}
	}
}
