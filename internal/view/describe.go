// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/model"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/a1s/lazyrows/internal/render"
	"github.com/a1s/lazyrows/internal/ui"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/wI2L/jsondiff"
	"gopkg.in/yaml.v3"
)

// Describe formats.
const (
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatChanges = "changes"
)

var formats = []string{FormatYAML, FormatJSON, FormatChanges}

// Describe shows one pinned row. The row follows fresh data for its ID while
// the page is open, and the changes format shows the JSON patch from the row
// as opened to the live one.
type Describe struct {
	*tview.TextView

	app     *App
	table   *model.Table
	handle  *model.RowHandle
	header  model1.Header
	shown   *model1.Row
	opened  map[string]string
	format  string
	actions *ui.KeyActions
}

// NewDescribe returns a page describing the cached row at index.
func NewDescribe(a *App, m *model.Table, index int) (*Describe, error) {
	row, state := m.RowAt(index)
	if state&model1.RowLoading != 0 {
		return nil, datasource.ErrRowNotResident
	}
	h, err := m.HandleAt(index)
	if err != nil {
		return nil, err
	}
	d := Describe{
		TextView: tview.NewTextView(),
		app:      a,
		table:    m,
		handle:   h,
		header:   m.Header(),
		format:   FormatYAML,
		actions:  ui.NewKeyActions(),
	}
	d.opened = d.fields(row)

	d.SetDynamicColors(true)
	d.SetWrap(false)
	d.SetScrollable(true)
	d.SetBorder(true)
	d.SetBorderPadding(0, 0, 1, 1)
	d.SetBorderColor(tcell.ColorAqua)
	d.bindKeys()
	d.SetInputCapture(d.keyboard)

	return &d, nil
}

// Name returns the page name.
func (d *Describe) Name() string {
	return "describe:" + d.handle.Key()
}

// Hints returns the menu hints for this view.
func (d *Describe) Hints() ui.MenuHints {
	return d.actions.Hints()
}

// Start pins the row and follows its updates.
func (d *Describe) Start() {
	d.handle.Pin()
	d.table.AddListener(d)
	d.refresh()
}

// Stop releases the row.
func (d *Describe) Stop() {
	d.table.RemoveListener(d)
	_ = d.handle.Unpin()
}

// TableRowsChanged implements model.TableListener.
func (d *Describe) TableRowsChanged(int, int) {
	d.refresh()
}

// TableStructureChanged implements model.TableListener.
func (d *Describe) TableStructureChanged(int) {
	d.refresh()
}

// TableLoadFailed implements model.TableListener.
func (*Describe) TableLoadFailed(error) {}

func (d *Describe) bindKeys() {
	d.actions.Bulk(ui.KeyMap{
		ui.KeyF:      ui.NewKeyAction("Format", d.formatCmd, true),
		tcell.KeyEsc: ui.NewKeyAction("Back", nil, true),
	})
}

func (d *Describe) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if a, ok := d.actions.Get(ui.AsKey(evt)); ok && a.Action != nil {
		return a.Action(evt)
	}
	return evt
}

func (d *Describe) formatCmd(*tcell.EventKey) *tcell.EventKey {
	for i, f := range formats {
		if f == d.format {
			d.format = formats[(i+1)%len(formats)]
			break
		}
	}
	d.shown = nil
	d.refresh()
	d.ScrollToBeginning()

	return nil
}

// refresh redraws the row unless only its age moved since the last draw.
func (d *Describe) refresh() {
	row, err := d.handle.Row()
	if err != nil {
		d.shown = nil
		d.SetText(fmt.Sprintf("[red::]%s[-::]", tview.Escape(err.Error())))
		return
	}
	if d.shown != nil && !row.Diff(*d.shown, d.header.AgeCol()) {
		return
	}
	shown := row.Clone()
	d.shown = &shown
	d.SetTitle(fmt.Sprintf(" <%s>[%s] ", tview.Escape(row.ID), d.format))

	text, err := d.Render(row)
	if err != nil {
		d.shown = nil
		d.SetText(fmt.Sprintf("[red::]%s[-::]", tview.Escape(err.Error())))
		return
	}
	d.SetText(text)
}

// Render formats row in the current format.
func (d *Describe) Render(row model1.Row) (string, error) {
	current := d.fields(row)

	switch d.format {
	case FormatJSON:
		raw, err := json.MarshalIndent(current, "", "  ")
		if err != nil {
			return "", err
		}
		return tview.Escape(string(raw)), nil
	case FormatChanges:
		return d.changes(current)
	default:
		raw, err := yaml.Marshal(current)
		if err != nil {
			return "", err
		}
		return highlightYAML(string(raw)), nil
	}
}

func (d *Describe) changes(current map[string]string) (string, error) {
	patch, err := jsondiff.Compare(d.opened, current)
	if err != nil {
		return "", fmt.Errorf("failed to diff row: %w", err)
	}
	if len(patch) == 0 {
		return "[gray::]No changes since the row was opened[-::]", nil
	}

	var b strings.Builder
	for _, op := range patch {
		color := "yellow"
		switch op.Type {
		case jsondiff.OperationAdd:
			color = "green"
		case jsondiff.OperationRemove:
			color = "red"
		}
		raw, err := json.Marshal(op)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "[%s::]%s[-::]\n", color, tview.Escape(string(raw)))
	}

	return b.String(), nil
}

// fields maps the header columns to the row values.
func (d *Describe) fields(row model1.Row) map[string]string {
	m := make(map[string]string, len(d.header)+1)
	m["ID"] = row.ID
	for i, h := range d.header {
		if i < len(row.Fields) {
			m[h.Name] = row.Fields[i]
		}
	}
	return m
}

// highlightYAML colors the keys of a flat YAML document.
func highlightYAML(content string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			b.WriteString(tview.Escape(line) + "\n")
			continue
		}
		fmt.Fprintf(&b, "[aqua::]%s:[-::]%s\n", tview.Escape(key), colorizeValue(value))
	}
	return b.String()
}

func colorizeValue(value string) string {
	trimmed := strings.Trim(strings.TrimSpace(value), `"'`)
	switch strings.ToLower(trimmed) {
	case "true", "running", "active", "available", "enabled":
		return "[green::]" + tview.Escape(value) + "[-::]"
	case "false", "stopped", "terminated", "failed", "disabled":
		return "[red::]" + tview.Escape(value) + "[-::]"
	case "", "null", "~", render.MissingValue, render.NAValue:
		return "[gray::]" + tview.Escape(value) + "[-::]"
	}
	return tview.Escape(value)
}
