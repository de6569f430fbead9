package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/model"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/a1s/lazyrows/internal/render"
	"github.com/a1s/lazyrows/internal/transport"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	dumpFrom   int
	dumpCount  int
	dumpPage   int
	dumpOutput string

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print a range of rows without starting the UI",
		Long: `Dump pages through the configured source with the same windowed cache the
UI uses and prints rows [from, from+count).`,
		Args: cobra.NoArgs,
		RunE: runDump,
	}
)

func init() {
	dumpCmd.Flags().IntVar(&dumpFrom, "from", 0, "Index of the first row")
	dumpCmd.Flags().IntVar(&dumpCount, "count", 50, "Number of rows to print")
	dumpCmd.Flags().IntVar(&dumpPage, "page", 20, "Rows declared visible at once")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", outputTable, "Output format (table, json, yaml)")
}

func runDump(cmd *cobra.Command, _ []string) error {
	switch dumpOutput {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", dumpOutput)
	}
	if dumpFrom < 0 || dumpCount < 0 || dumpPage <= 0 {
		return fmt.Errorf("from and count must not be negative and page must be positive")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	env, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer env.closeFn()

	d, err := newDumper(ctx, env)
	if err != nil {
		return err
	}
	defer d.close()

	rows, err := d.dump(ctx, dumpFrom, dumpCount, dumpPage)
	if err != nil {
		return err
	}

	return printRows(cmd.OutOrStdout(), dumpOutput, d.table.Header(), rows)
}

// dumper drives a table model from the command line. The loop plays the role
// of the UI goroutine.
type dumper struct {
	loop    *datasource.Loop
	conn    *transport.Connector
	table   *model.Table
	src     dao.RowSource
	log     logrus.FieldLogger
	changed chan struct{}
	failed  chan error
}

func newDumper(ctx context.Context, env *environment) (*dumper, error) {
	lr := env.cfg.LazyRows
	rid, err := env.cfg.ResourceID()
	if err != nil {
		return nil, err
	}
	src, err := dao.SourceFor(env.factory, rid, lr.Locator())
	if err != nil {
		return nil, err
	}

	d := dumper{
		loop:    datasource.NewLoop(),
		src:     src,
		log:     env.log.WithField("source", rid.String()),
		changed: make(chan struct{}, 1),
		failed:  make(chan error, 1),
	}
	topts, err := lr.TransportOptions(env.log)
	if err != nil {
		return nil, err
	}
	dopts, err := lr.SourceOptions(nil)
	if err != nil {
		return nil, err
	}

	r := render.ForResource(rid, lr.Source.Columns)
	d.conn = transport.NewConnector(src, r, d.loop, append(topts, transport.WithErrorHandler(func(err error) {
		d.table.LoadFailed(err)
	}))...)
	if d.table, err = model.NewTable(d.conn, r, d.loop, env.log, dopts...); err != nil {
		return nil, err
	}
	d.conn.Bind(d.table)
	d.table.AddListener(&d)

	go func() {
		if err := d.loop.Run(ctx); err != nil && ctx.Err() == nil {
			d.log.WithError(err).Error("Loop stopped")
		}
	}()
	if err := d.conn.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	return &d, nil
}

func (d *dumper) close() {
	d.conn.Close()
	if c, ok := d.src.(io.Closer); ok {
		_ = c.Close()
	}
}

// TableRowsChanged implements model.TableListener.
func (d *dumper) TableRowsChanged(int, int) {
	d.poke()
}

// TableStructureChanged implements model.TableListener.
func (d *dumper) TableStructureChanged(int) {
	d.poke()
}

// TableLoadFailed implements model.TableListener.
func (d *dumper) TableLoadFailed(err error) {
	select {
	case d.failed <- err:
	default:
	}
}

func (d *dumper) poke() {
	select {
	case d.changed <- struct{}{}:
	default:
	}
}

// dump collects rows [from, from+count), page rows at a time. It stops early
// at the end of the source.
func (d *dumper) dump(ctx context.Context, from, count, page int) ([]model1.Row, error) {
	out := make([]model1.Row, 0, count)
	for first := from; first < from+count; first += page {
		n := min(page, from+count-first)
		rows, done, err := d.page(ctx, first, n)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if done {
			break
		}
	}

	return out, nil
}

// page declares rows [first, first+count) visible and waits until every one
// of them is resident.
func (d *dumper) page(ctx context.Context, first, count int) ([]model1.Row, bool, error) {
	for {
		var (
			rows     []model1.Row
			complete bool
			done     bool
		)
		err := d.loop.Sync(ctx, func() {
			size := d.table.Size()
			end := min(first+count, size)
			d.table.EnsureVisible(first, max(end-first, 0))

			rows = rows[:0]
			for i := first; i < end; i++ {
				row, state := d.table.RowAt(i)
				if state&model1.RowLoading != 0 {
					return
				}
				rows = append(rows, row)
			}
			complete = true
			done = d.table.SizeKnown() && end >= size && end < first+count
		})
		if err != nil {
			return nil, false, err
		}
		if complete {
			d.log.WithFields(logrus.Fields{"first": first, "rows": len(rows)}).Debug("Page resident")
			return rows, done || len(rows) == 0, nil
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case err := <-d.failed:
			return nil, false, fmt.Errorf("failed to fetch rows: %w", err)
		case <-d.changed:
		}
	}
}

func printRows(w io.Writer, format string, h model1.Header, rows []model1.Row) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records(h, rows))
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records(h, rows)); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	names := make([]string, 0, len(h))
	for _, c := range h {
		names = append(names, c.Name)
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r.Fields, "\t"))
	}

	return tw.Flush()
}

func records(h model1.Header, rows []model1.Row) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		rec := make(map[string]string, len(h))
		for i, c := range h {
			if i < len(r.Fields) {
				rec[c.Name] = r.Fields[i]
			}
		}
		out = append(out, rec)
	}

	return out
}
