// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2024 a1s Contributors

package view

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/a1s/lazyrows/internal/aws"
	"github.com/a1s/lazyrows/internal/config"
	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/model"
	"github.com/a1s/lazyrows/internal/ui"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/sirupsen/logrus"
)

// StatusRefresh is how often the status line is redrawn.
const StatusRefresh = time.Second

// statsProvider is implemented by pages backed by a table model.
type statsProvider interface {
	Stats() model.Stats
	StrategyName() string
}

// App represents the main application container. It is the scheduler of every
// table model: deferred work runs on the tview event loop, in order.
type App struct {
	*tview.Application

	cfg       *config.Config
	factory   dao.Factory
	states    *data.Dir
	log       logrus.FieldLogger
	version   string
	Content   *ui.Pages
	stack     *model.Stack
	menu      *ui.Menu
	crumbs    *ui.Crumbs
	status    *ui.Status
	indicator *ui.CmdIndicator
	info      *Info
	closers   []func()
	cancel    context.CancelFunc

	queue    []func()
	draining bool
	stopped  bool
	mx       sync.Mutex
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, f dao.Factory, log logrus.FieldLogger, version string) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := App{
		Application: tview.NewApplication(),
		cfg:         cfg,
		factory:     f,
		states:      data.NewDir(config.AppSourcesDir),
		log:         log,
		version:     version,
		Content:     ui.NewPages(),
		stack:       model.NewStack(),
		menu:        ui.NewMenu(),
		status:      ui.NewStatus(),
		indicator:   ui.NewCmdIndicator(),
		info:        NewInfo(),
	}
	a.crumbs = ui.NewCrumbs(a.stack)
	a.stack.AddListener(a.Content)
	a.stack.AddListener(a.menu)
	a.stack.AddListener(a.crumbs)
	a.stack.AddListener(&a)

	a.Application.SetInputCapture(a.keyboard)
	a.indicator.SetActiveFn(func(active bool) {
		if !active {
			a.SetFocus(a.Content)
		}
	})
	a.indicator.SetExecuteFn(a.execute)

	return &a
}

// Defer implements datasource.Scheduler. Functions run on the UI goroutine
// in the order they were deferred, followed by a redraw. Once the application
// stopped, fn is dropped.
func (a *App) Defer(fn func()) {
	a.mx.Lock()
	if a.stopped {
		a.mx.Unlock()
		return
	}
	a.queue = append(a.queue, fn)
	if a.draining {
		a.mx.Unlock()
		return
	}
	a.draining = true
	a.mx.Unlock()

	go a.QueueUpdateDraw(a.drain)
}

func (a *App) drain() {
	a.mx.Lock()
	fns := a.queue
	a.queue, a.draining = nil, false
	a.mx.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// halt stops accepting deferred work.
func (a *App) halt() {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.stopped, a.queue = true, nil
}

// Init builds the layout and opens the configured source.
func (a *App) Init() error {
	rid, err := a.cfg.ResourceID()
	if err != nil {
		return err
	}
	b, err := a.newBrowser(rid, a.cfg.LazyRows.Locator())
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", rid, err)
	}

	a.info.SetSource(rid, a.cfg.LazyRows.Source, a.version)
	if c := a.client(); c != nil {
		a.info.SetAccount(c.Profile(), c.Region(), c.AccountID())
	}

	a.SetRoot(a.layout(), true)
	a.stack.Push(b)

	return nil
}

func (a *App) client() aws.Connection {
	if a.factory == nil {
		return nil
	}
	return a.factory.Client()
}

func (a *App) newBrowser(rid dao.ResourceID, loc dao.Locator) (ui.Component, error) {
	if rid == dao.S3ObjectRID {
		return NewS3Browser(a, loc)
	}
	return NewBrowser(a, rid, loc)
}

// Run starts the application and blocks until it exits.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()
	go a.refreshStatus(ctx)

	err := a.Application.Run()
	a.halt()
	a.stack.Clear()
	for _, c := range a.closers {
		c()
	}

	return err
}

// Stop stops the application.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.halt()
	a.Application.Stop()
}

// OnClose registers fn to run once the application exited.
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Flash shows a transient message in the status line.
func (a *App) Flash(level, msg string) {
	a.status.Flash(level, msg)
	a.updateStatus()
}

// Flashf formats and shows an info message.
func (a *App) Flashf(format string, args ...any) {
	a.Flash("info", fmt.Sprintf(format, args...))
}

// Push shows c on top of the current page.
func (a *App) Push(c ui.Component) {
	a.stack.Push(c)
}

// StackPushed implements model.StackListener.
func (a *App) StackPushed(model.Component) {
	a.SetFocus(a.Content)
	a.updateStatus()
}

// StackPopped implements model.StackListener.
func (a *App) StackPopped(_, _ model.Component) {
	a.SetFocus(a.Content)
	a.updateStatus()
}

func (a *App) layout() tview.Primitive {
	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.info, 40, 0, false).
		AddItem(a.menu, 0, 1, false)

	footer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.indicator, 0, 1, false).
		AddItem(a.status, 0, 3, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.Content, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(footer, 1, 0, false)
}

func (a *App) refreshStatus(ctx context.Context) {
	ticker := time.NewTicker(StatusRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Defer(a.updateStatus)
		}
	}
}

func (a *App) updateStatus() {
	p, ok := a.stack.Top().(statsProvider)
	if !ok {
		a.status.SetText("")
		return
	}
	a.status.Update(p.Stats(), p.StrategyName())
}

// keyboard handles global keyboard events.
func (a *App) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if a.indicator.IsActive() {
		return a.indicator.HandleKey(evt)
	}

	switch ui.AsKey(evt) {
	case ui.KeyColon:
		a.activate(ui.ModeJump)
		return nil
	case ui.KeySlash:
		a.activate(ui.ModeFind)
		return nil
	case ui.KeyHelp:
		a.showHelp()
		return nil
	case ui.KeyQ, tcell.KeyCtrlC:
		a.Stop()
		return nil
	case tcell.KeyEsc:
		a.stack.Pop()
		return nil
	}

	return evt
}

func (a *App) activate(mode ui.IndicatorMode) {
	if a.topBrowser() == nil {
		return
	}
	a.indicator.Activate(mode)
	a.SetFocus(a.indicator)
}

// execute runs a jump or find entered in the command indicator.
func (a *App) execute(mode ui.IndicatorMode, text string) {
	b := a.topBrowser()
	if b == nil {
		return
	}

	switch mode {
	case ui.ModeJump:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || n < 1 {
			a.Flash("warn", fmt.Sprintf("Invalid row number %q", text))
			return
		}
		b.JumpTo(n - 1)
	case ui.ModeFind:
		if !b.Find(strings.TrimSpace(text)) {
			a.Flash("warn", fmt.Sprintf("Row %q is not cached", text))
		}
	}
}

func (a *App) topBrowser() *Browser {
	switch c := a.stack.Top().(type) {
	case *Browser:
		return c
	case *S3Browser:
		return c.Browser
	default:
		return nil
	}
}

func (a *App) showHelp() {
	if _, ok := a.stack.Top().(*Help); ok {
		return
	}
	var hh ui.MenuHints
	if h, ok := a.stack.Top().(ui.Hinter); ok {
		hh = h.Hints()
	}
	a.stack.Push(NewHelp(hh))
}
