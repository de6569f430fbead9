package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/a1s/lazyrows/internal/model"
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/a1s/lazyrows/internal/render"
	"github.com/derailed/tcell/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
)

type queue []func()

func (q *queue) Defer(fn func()) {
	*q = append(*q, fn)
}

func (q *queue) flush() {
	for len(*q) > 0 {
		fn := (*q)[0]
		*q = (*q)[1:]
		fn()
	}
}

func newTable(t *testing.T, size int) (*VirtualTable, *model.Table, *queue, *[][2]int) {
	t.Helper()
	var (
		q    queue
		reqs [][2]int
	)
	f := datasource.FetcherFunc(func(first, count int) {
		reqs = append(reqs, [2]int{first, count})
	})
	log, _ := test.NewNullLogger()
	m, err := model.NewTable(f, render.NewGeneric([]string{"id", "name"}), &q, log, datasource.WithInitialSize(size))
	if err != nil {
		t.Fatal(err)
	}

	return NewVirtualTable("rows", m), m, &q, &reqs
}

func rows(first, count int) []model1.Row {
	rr := make([]model1.Row, 0, count)
	for i := first; i < first+count; i++ {
		rr = append(rr, model1.Row{ID: fmt.Sprintf("r%d", i), Fields: model1.Fields{fmt.Sprintf("r%d", i), "name"}})
	}
	return rr
}

func line(s tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := range width {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestVirtualTableDraw(t *testing.T) {
	v, m, q, reqs := newTable(t, 1000)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(40, 12)

	v.SetRect(0, 0, 40, 12)
	v.Draw(screen)
	q.flush()
	if diff := cmp.Diff([][2]int{{0, 45}}, *reqs); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
	if top, height := v.Viewport(); top != 0 || height != 9 {
		t.Errorf("viewport %d %d", top, height)
	}
	if got := line(screen, 2, 40); !strings.Contains(got, model1.LoadingValue) {
		t.Errorf("expected a loading row, got %q", got)
	}

	m.SetRowData(0, rows(0, 45))
	q.flush()
	v.Draw(screen)
	if got := line(screen, 1, 40); !strings.Contains(got, "ID") || !strings.Contains(got, "NAME") {
		t.Errorf("header %q", got)
	}
	if got := line(screen, 3, 40); !strings.Contains(got, "r1") {
		t.Errorf("row line %q", got)
	}
}

func TestVirtualTableAlignsNumericColumns(t *testing.T) {
	var q queue
	f := datasource.FetcherFunc(func(int, int) {})
	log, _ := test.NewNullLogger()
	m, err := model.NewTable(f, render.NewGeneric([]string{"id", "size"}), &q, log, datasource.WithInitialSize(2))
	if err != nil {
		t.Fatal(err)
	}
	v := NewVirtualTable("rows", m)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(40, 6)
	v.SetRect(0, 0, 40, 6)
	v.Draw(screen)
	q.flush()

	m.SetRowData(0, []model1.Row{
		{ID: "a", Fields: model1.Fields{"a", "10 B"}},
		{ID: "b", Fields: model1.Fields{"b", "2.0 KiB"}},
	})
	q.flush()
	v.Draw(screen)

	// The inner area spans columns 2 to 37.
	for y, want := range map[int]string{1: "SIZE", 2: "10 B", 3: "2.0 KiB"} {
		got := line(screen, y, 38)
		r, _, _, _ := screen.GetContent(37, y)
		if !strings.HasSuffix(got, want) || r != rune(want[len(want)-1]) {
			t.Errorf("line %d: %q does not end at column 37 with %q", y, got, want)
		}
	}
}

func TestVirtualTableNavigation(t *testing.T) {
	v, _, _, _ := newTable(t, 100)
	v.SetRect(0, 0, 40, 12)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	v.Draw(screen)

	handler := v.InputHandler()
	press := func(k tcell.Key, r rune) {
		handler(tcell.NewEventKey(k, r, tcell.ModNone), nil)
	}

	press(tcell.KeyRune, 'j')
	press(tcell.KeyDown, 0)
	if v.Selected() != 2 {
		t.Errorf("selected %d, want 2", v.Selected())
	}
	press(tcell.KeyPgDn, 0)
	if v.Selected() != 11 {
		t.Errorf("selected %d, want 11", v.Selected())
	}
	press(tcell.KeyRune, 'G')
	if top, _ := v.Viewport(); v.Selected() != 99 || top != 91 {
		t.Errorf("selected %d top %d", v.Selected(), top)
	}
	press(tcell.KeyRune, 'g')
	if top, _ := v.Viewport(); v.Selected() != 0 || top != 0 {
		t.Errorf("selected %d top %d", v.Selected(), top)
	}

	var picked = -1
	v.SetSelectedFunc(func(i int) { picked = i })
	press(tcell.KeyRune, 'k')
	press(tcell.KeyEnter, 0)
	if picked != 0 {
		t.Errorf("picked %d", picked)
	}
}

func TestVirtualTableErrors(t *testing.T) {
	v, m, _, _ := newTable(t, 10)
	var got error
	v.SetErrorFunc(func(err error) { got = err })
	m.LoadFailed(errors.New("boom"))
	if got == nil || got.Error() != "boom" {
		t.Errorf("got %v", got)
	}
}

func TestColumnWidths(t *testing.T) {
	h := model1.Header{
		{Name: "ID"},
		{Name: "DESCRIPTION", Attrs: model1.Attrs{MaxWidth: 6}},
		{Name: "HIDDEN", Attrs: model1.Attrs{Hide: true}},
		{Name: "AGE"},
	}
	rr := []model1.Row{{Fields: model1.Fields{"row-0000001", "a long description", "x", "1d"}}}

	if diff := cmp.Diff([]int{11, 6, 0, 15}, columnWidths(h, rr, 36)); diff != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyActionsHints(t *testing.T) {
	aa := NewKeyActions()
	aa.Bulk(KeyMap{
		KeyP:           NewKeyAction("Pin", nil, true),
		tcell.KeyEnter: NewKeyAction("Describe", nil, true),
		Keyj:           NewKeyAction("Down", nil, false),
	})

	want := MenuHints{
		{Mnemonic: "Enter", Description: "Describe", Visible: true},
		{Mnemonic: "p", Description: "Pin", Visible: true},
	}
	if diff := cmp.Diff(want, aa.Hints()); diff != "" {
		t.Errorf("hints mismatch (-want +got):\n%s", diff)
	}
	if _, ok := aa.Get(Keyj); !ok {
		t.Error("missing hidden action")
	}
}

func TestCmdIndicator(t *testing.T) {
	c := NewCmdIndicator()
	var (
		mode IndicatorMode
		text string
	)
	c.SetExecuteFn(func(m IndicatorMode, s string) { mode, text = m, s })

	if evt := c.HandleKey(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone)); evt == nil {
		t.Error("inactive indicator swallowed a key")
	}
	c.Activate(ModeJump)
	for _, r := range "1234" {
		c.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	c.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	c.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))

	if mode != ModeJump || text != "123" {
		t.Errorf("got %v %q", mode, text)
	}
	if c.IsActive() {
		t.Error("indicator still active")
	}
}

func TestStatusFormat(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStatus()
	s.now = func() time.Time { return now }

	st := model.Stats{Size: 1000, SizeKnown: true, Cached: datasource.NewRange(420, 600), Waiting: true}
	if got := s.Format(st, "symmetric"); !strings.Contains(got, "size:1000") || !strings.Contains(got, "fetching") {
		t.Errorf("got %q", got)
	}

	s.Flash("error", "boom")
	if got := s.Format(st, "symmetric"); !strings.Contains(got, "boom") {
		t.Errorf("got %q", got)
	}
	now = now.Add(2 * FlashDelay)
	if got := s.Format(st, "symmetric"); strings.Contains(got, "boom") {
		t.Errorf("flash did not expire: %q", got)
	}
}
