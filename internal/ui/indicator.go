// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package ui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// IndicatorMode represents the current input mode.
type IndicatorMode int

const (
	// ModeNormal is the default navigation mode.
	ModeNormal IndicatorMode = iota
	// ModeJump reads a row number to jump to (: prefix).
	ModeJump
	// ModeFind reads a row ID to look up among cached rows (/ prefix).
	ModeFind
)

// CmdIndicator reads a short command below the table.
type CmdIndicator struct {
	*tview.TextView

	mode      IndicatorMode
	text      string
	activeFn  func(bool)
	executeFn func(IndicatorMode, string)
}

// NewCmdIndicator creates a new command indicator.
func NewCmdIndicator() *CmdIndicator {
	c := &CmdIndicator{
		TextView: tview.NewTextView(),
		mode:     ModeNormal,
	}

	c.SetDynamicColors(true)
	c.SetBackgroundColor(tcell.ColorDefault)
	c.SetTextColor(tcell.ColorWhite)
	c.refresh()

	return c
}

// SetActiveFn sets the callback when active state changes.
func (c *CmdIndicator) SetActiveFn(fn func(bool)) {
	c.activeFn = fn
}

// SetExecuteFn sets the callback when a command is entered.
func (c *CmdIndicator) SetExecuteFn(fn func(IndicatorMode, string)) {
	c.executeFn = fn
}

// Activate enters jump or find mode.
func (c *CmdIndicator) Activate(mode IndicatorMode) {
	c.mode, c.text = mode, ""
	c.refresh()
	if c.activeFn != nil {
		c.activeFn(true)
	}
}

// Deactivate exits input mode.
func (c *CmdIndicator) Deactivate() {
	c.mode, c.text = ModeNormal, ""
	c.refresh()
	if c.activeFn != nil {
		c.activeFn(false)
	}
}

// IsActive returns whether input mode is active.
func (c *CmdIndicator) IsActive() bool {
	return c.mode != ModeNormal
}

// Text returns the current input text.
func (c *CmdIndicator) Text() string {
	return c.text
}

// HandleKey processes keyboard input when active.
func (c *CmdIndicator) HandleKey(evt *tcell.EventKey) *tcell.EventKey {
	if !c.IsActive() {
		return evt
	}

	switch evt.Key() {
	case tcell.KeyEsc:
		c.Deactivate()
	case tcell.KeyEnter:
		mode, text := c.mode, c.text
		c.Deactivate()
		if c.executeFn != nil && text != "" {
			c.executeFn(mode, text)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(c.text) > 0 {
			rr := []rune(c.text)
			c.text = string(rr[:len(rr)-1])
			c.refresh()
		}
	case tcell.KeyRune:
		c.text += string(evt.Rune())
		c.refresh()
	default:
		return evt
	}

	return nil
}

func (c *CmdIndicator) refresh() {
	switch c.mode {
	case ModeJump:
		c.SetText("[aqua::b]:[-::-]" + tview.Escape(c.text) + "[black:white] [-:-]")
	case ModeFind:
		c.SetText("[aqua::b]/[-::-]" + tview.Escape(c.text) + "[black:white] [-:-]")
	default:
		c.SetText("[gray::-]:row /id")
	}
}
