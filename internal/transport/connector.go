package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/a1s/lazyrows/internal/aws"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Sink is the cache side a Connector feeds. Every method is called on the
// scheduler goroutine.
type Sink interface {
	SetRowData(first int, rows []model1.Row)
	SetEstimatedSize(n int)
	ResetDataAndSize(n int)
	InsertRowData(first, count int)
	RemoveRowData(first, count int)
	EstimatedSize() int
	SizeKnown() bool
}

// Invalidator is implemented by sources holding their own page cache.
type Invalidator interface {
	Invalidate()
}

// Connector fetches rows from a dao.RowSource off the scheduler goroutine and
// hands rendered rows back through the scheduler. It implements
// datasource.Fetcher.
type Connector struct {
	src        dao.RowSource
	renderer   model1.Renderer
	sched      datasource.Scheduler
	log        logrus.FieldLogger
	timeout    time.Duration
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	onError    func(error)
	counts     singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Owned by the scheduler goroutine.
	sink  Sink
	gen   uint64
	reqID uint64
}

// NewConnector returns a connector rendering rows of src with r.
func NewConnector(src dao.RowSource, r model1.Renderer, sched datasource.Scheduler, opts ...Option) *Connector {
	ctx, cancel := context.WithCancel(context.Background())
	c := Connector{
		src:      src,
		renderer: r,
		sched:    sched,
		log:      logrus.StandardLogger(),
		timeout:  DefaultTimeout,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		newBackOff: func() backoff.BackOff {
			return newExponentialBackOff(defaultInitialInterval, DefaultTimeout)
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.log = c.log.WithField("source", src.ResourceID().String())

	return &c
}

// Bind sets the sink rows are delivered to. It must be called before the
// first request.
func (c *Connector) Bind(s Sink) {
	c.sink = s
}

// Close cancels in flight fetches and waits for them to return.
func (c *Connector) Close() {
	c.cancel()
	c.wg.Wait()
}

// RequestRows fetches rows [first, first+count) in the background.
func (c *Connector) RequestRows(first, count int) {
	c.reqID++
	id, gen := c.reqID, c.gen

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.fetch(id, gen, first, count)
	}()
}

func (c *Connector) fetch(id, gen uint64, first, count int) {
	log := c.log.WithFields(logrus.Fields{"first": first, "count": count})

	oo, err := c.list(first, count, log)
	if err != nil {
		if errors.Is(err, context.Canceled) && c.ctx.Err() != nil {
			return
		}
		log.WithError(err).Error("Fetch failed")
		c.fail(err)
		return
	}

	rows := make([]model1.Row, 0, len(oo))
	for i, o := range oo {
		var row model1.Row
		if err := c.renderer.Render(o, &row); err != nil {
			log.WithError(err).Warnf("Unable to render row %d", first+i)
			row = model1.PlaceholderRow(len(c.renderer.Header()))
			row.ID = o.GetID()
			row.Fields[0] = o.GetID()
		}
		rows = append(rows, row)
	}

	c.sched.Defer(func() { c.deliver(id, gen, first, count, rows) })
}

func (c *Connector) list(first, count int, log logrus.FieldLogger) ([]dao.Object, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	var oo []dao.Object
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		oo, err = c.src.List(ctx, first, count)
		if err != nil && (!aws.Retryable(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.WithError(err).Debugf("Fetch failed, retrying in %v", wait)
	}
	err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify)

	return oo, err
}

// deliver runs on the scheduler. Rows fetched before a structural change
// carry stale positions and are dropped; when the source still waits on
// them an empty delivery releases it.
func (c *Connector) deliver(id, gen uint64, first, count int, rows []model1.Row) {
	if c.sink == nil {
		return
	}
	if gen != c.gen {
		c.log.WithField("first", first).Debug("Dropping rows fetched before a change")
		if id == c.reqID {
			c.sink.SetRowData(first, nil)
		}
		return
	}

	c.sink.SetRowData(first, rows)
	end := first + len(rows)
	switch {
	case len(rows) < count && (end < c.sink.EstimatedSize() || !c.sink.SizeKnown() || c.estimated()):
		c.sink.SetEstimatedSize(end)
	case c.estimated() && end >= c.sink.EstimatedSize():
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.Refresh(c.ctx); err != nil {
				c.log.WithError(err).Debug("Size refresh failed")
			}
		}()
	}
}

func (c *Connector) estimated() bool {
	e, ok := c.src.(dao.Estimator)
	return ok && e.Estimated()
}

func (c *Connector) fail(err error) {
	if c.onError != nil {
		c.sched.Defer(func() { c.onError(err) })
	}
}

func (c *Connector) count(ctx context.Context) (int, error) {
	v, err, _ := c.counts.Do("count", func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}
		return c.src.Count(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.src.ResourceID(), err)
	}
	return v.(int), nil
}

// Refresh re-counts the source. A first or estimated count only updates the
// size; a changed exact count resets the cache.
func (c *Connector) Refresh(ctx context.Context) error {
	n, err := c.count(ctx)
	if err != nil {
		return err
	}
	estimated := c.estimated()

	c.sched.Defer(func() {
		switch {
		case c.sink == nil:
		case !c.sink.SizeKnown() || estimated:
			if n != c.sink.EstimatedSize() {
				c.sink.SetEstimatedSize(n)
			}
		case n != c.sink.EstimatedSize():
			c.gen++
			c.sink.ResetDataAndSize(n)
		}
	})

	return nil
}

// Reload drops every cached row, here and in the source, and starts over.
func (c *Connector) Reload(ctx context.Context) error {
	if i, ok := c.src.(Invalidator); ok {
		i.Invalidate()
	}
	n, err := c.count(ctx)
	if err != nil {
		return err
	}
	c.sched.Defer(func() {
		if c.sink == nil {
			return
		}
		c.gen++
		c.sink.ResetDataAndSize(n)
	})

	return nil
}

// Watch keeps the sink in step with the source until ctx is done. Pushed
// changes are forwarded as they come; other sources are polled every
// interval.
func (c *Connector) Watch(ctx context.Context, every time.Duration) {
	if w, ok := c.src.(dao.Watcher); ok {
		for ch := range w.Watch(ctx) {
			c.sched.Defer(func() { c.apply(ch) })
		}
		return
	}

	if every <= 0 {
		every = DefaultPollInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.log.WithError(err).Warn("Poll failed")
				c.fail(err)
			}
		}
	}
}

// apply runs on the scheduler. An update is replayed as a removal and an
// insertion so the regular coverage check refetches the rows.
func (c *Connector) apply(ch dao.Change) {
	if c.sink == nil {
		return
	}
	c.log.WithFields(logrus.Fields{
		"change": ch.Kind.String(),
		"offset": ch.Offset,
		"count":  ch.Count,
	}).Debug("Source changed")

	c.gen++
	switch ch.Kind {
	case dao.ChangeInsert:
		c.sink.InsertRowData(ch.Offset, ch.Count)
	case dao.ChangeRemove:
		c.sink.RemoveRowData(ch.Offset, ch.Count)
	case dao.ChangeUpdate:
		c.sink.RemoveRowData(ch.Offset, ch.Count)
		c.sink.InsertRowData(ch.Offset, ch.Count)
	case dao.ChangeReset:
		c.sink.ResetDataAndSize(ch.Count)
	}
}
