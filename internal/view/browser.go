// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package view

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/model"
	"github.com/a1s/lazyrows/internal/render"
	"github.com/a1s/lazyrows/internal/transport"
	"github.com/a1s/lazyrows/internal/ui"
	"github.com/derailed/tcell/v2"
	"github.com/sirupsen/logrus"
)

// Browser represents a table page over one row source.
type Browser struct {
	*ui.VirtualTable

	app      *App
	name     string
	rid      dao.ResourceID
	src      dao.RowSource
	conn     *transport.Connector
	model    *model.Table
	state    *data.SourceState
	pins     map[string]*model.RowHandle
	enterFn  func(index int)
	log      logrus.FieldLogger
	cancelFn context.CancelFunc
}

// NewBrowser opens rid and returns a page browsing it.
func NewBrowser(a *App, rid dao.ResourceID, loc dao.Locator) (*Browser, error) {
	return newBrowser(a, rid.String(), rid, loc)
}

func newBrowser(a *App, name string, rid dao.ResourceID, loc dao.Locator) (*Browser, error) {
	src, err := dao.SourceFor(a.factory, rid, loc)
	if err != nil {
		return nil, err
	}
	log := a.log.WithField("source", name)
	b := Browser{
		app:  a,
		name: name,
		rid:  rid,
		src:  src,
		pins: make(map[string]*model.RowHandle),
		log:  log,
	}

	b.state, err = a.states.Load(name)
	if err != nil {
		log.WithError(err).Warn("Source state ignored")
		b.state = data.NewSourceState(name)
	}

	l := a.cfg.LazyRows
	topts, err := l.TransportOptions(log)
	if err != nil {
		return nil, err
	}
	dopts, err := l.SourceOptions(l.StrategyNamed(b.state.Strategy))
	if err != nil {
		return nil, err
	}

	r := render.ForResource(rid, l.Source.Columns)
	b.conn = transport.NewConnector(src, r, a, append(topts, transport.WithErrorHandler(b.loadFailed))...)
	if b.model, err = model.NewTable(b.conn, r, a, log, dopts...); err != nil {
		return nil, err
	}
	b.conn.Bind(b.model)

	b.VirtualTable = ui.NewVirtualTable(name, b.model)
	b.SetSelectedFunc(b.enter)
	b.SetErrorFunc(func(err error) { a.Flash("error", err.Error()) })
	b.bindKeys()

	a.OnClose(func() {
		b.conn.Close()
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
		b.saveState()
	})

	return &b, nil
}

// Name returns the page name.
func (b *Browser) Name() string {
	return b.name
}

// Start counts the source and follows its changes.
func (b *Browser) Start() {
	b.Stop()

	var ctx context.Context
	ctx, b.cancelFn = context.WithCancel(context.Background())
	restore := b.state.Selected
	if c, ok := b.src.(dao.Churner); ok {
		if every := b.app.cfg.LazyRows.ChurnInterval(); every > 0 {
			b.log.WithField("every", every).Info("Simulating changes")
			go c.Churn(ctx, every, time.Now().UnixNano())
		}
	}
	go func() {
		if err := b.conn.Refresh(ctx); err != nil {
			if ctx.Err() == nil {
				b.loadFailed(err)
			}
			return
		}
		if restore > 0 {
			b.app.Defer(func() { b.Select(restore) })
		}
		b.conn.Watch(ctx, b.app.cfg.LazyRows.RefreshInterval())
	}()
}

// Stop stops following the source.
func (b *Browser) Stop() {
	if b.cancelFn == nil {
		return
	}
	b.cancelFn()
	b.cancelFn = nil
	b.state.Selected = b.Selected()
}

// Stats returns the cache state.
func (b *Browser) Stats() model.Stats {
	return b.model.Stats()
}

// StrategyName describes the active cache strategy.
func (b *Browser) StrategyName() string {
	if s, ok := b.model.Strategy().(*datasource.AdaptiveStrategy); ok {
		return fmt.Sprintf("%s+%.0f", data.StrategyAdaptive, s.Boost())
	}
	return data.StrategySymmetric
}

// JumpTo selects row index, fetching it if needed.
func (b *Browser) JumpTo(index int) {
	b.Select(index)
}

// Find selects the cached row with the given ID.
func (b *Browser) Find(id string) bool {
	i, ok := b.model.IndexOf(id)
	if ok {
		b.Select(i)
	}
	return ok
}

func (b *Browser) bindKeys() {
	b.Actions().Bulk(ui.KeyMap{
		ui.KeyD:        ui.NewKeyAction("Describe", b.describeCmd, true),
		ui.KeyP:        ui.NewKeyAction("Pin", b.pinCmd, true),
		ui.KeyS:        ui.NewKeyAction("Strategy", b.strategyCmd, true),
		tcell.KeyCtrlR: ui.NewKeyAction("Reload", b.reloadCmd, true),
		ui.KeyColon:    ui.NewKeyAction("Jump", nil, true),
		ui.KeySlash:    ui.NewKeyAction("Find", nil, true),
	})
}

func (b *Browser) enter(index int) {
	if b.enterFn != nil {
		b.enterFn(index)
		return
	}
	b.describe(index)
}

func (b *Browser) describeCmd(*tcell.EventKey) *tcell.EventKey {
	b.describe(b.Selected())
	return nil
}

func (b *Browser) describe(index int) {
	d, err := NewDescribe(b.app, b.model, index)
	if err != nil {
		b.app.Flash("warn", fmt.Sprintf("Row %d is still loading", index+1))
		return
	}
	b.app.Push(d)
}

func (b *Browser) pinCmd(*tcell.EventKey) *tcell.EventKey {
	row, _ := b.model.RowAt(b.Selected())
	if h, ok := b.pins[row.ID]; ok && row.ID != "" {
		if err := h.Unpin(); err != nil {
			b.log.WithError(err).Warn("Unpin failed")
		}
		delete(b.pins, row.ID)
		b.app.Flashf("Unpinned %s", row.ID)
		return nil
	}

	h, err := b.model.Pin(b.Selected())
	if err != nil {
		b.app.Flash("warn", fmt.Sprintf("Cannot pin row %d: %s", b.Selected()+1, err))
		return nil
	}
	b.pins[h.Key()] = h
	b.app.Flashf("Pinned %s", h.Key())

	return nil
}

func (b *Browser) strategyCmd(*tcell.EventKey) *tcell.EventKey {
	l := b.app.cfg.LazyRows
	var s datasource.CacheStrategy = l.AdaptiveStrategy()
	b.state.Strategy = data.StrategyAdaptive
	if _, ok := b.model.Strategy().(*datasource.AdaptiveStrategy); ok {
		s, b.state.Strategy = l.SymmetricStrategy(), data.StrategySymmetric
	}
	if err := b.model.SetStrategy(s); err != nil {
		b.app.Flash("error", err.Error())
		return nil
	}
	b.app.Flashf("Cache strategy %s", b.state.Strategy)

	return nil
}

func (b *Browser) reloadCmd(*tcell.EventKey) *tcell.EventKey {
	b.app.Flashf("Reloading %s", b.name)
	go func() {
		if err := b.conn.Reload(context.Background()); err != nil {
			b.loadFailed(err)
		}
	}()
	return nil
}

// loadFailed may be called from any goroutine.
func (b *Browser) loadFailed(err error) {
	b.log.WithError(err).Error("Load failed")
	b.app.Defer(func() { b.model.LoadFailed(err) })
}

func (b *Browser) saveState() {
	if err := b.app.states.Save(b.state); err != nil {
		b.log.WithError(err).Warn("Source state not saved")
	}
}
