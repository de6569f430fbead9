package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/datasource"
	"github.com/google/go-cmp/cmp"
)

func TestLazyRowsDefaults(t *testing.T) {
	l := NewLazyRows()

	if l.RefreshInterval() != 5*time.Second {
		t.Errorf("refresh %v", l.RefreshInterval())
	}
	if d, err := l.GetAPITimeout(); err != nil || d != DefaultAPITimeout {
		t.Errorf("api timeout %v %v", d, err)
	}
	if d, err := l.GetRequestTimeout(); err != nil || d != DefaultRequestTimeout {
		t.Errorf("request timeout %v %v", d, err)
	}
	initial, maxElapsed, err := l.GetRetry()
	if err != nil || initial != DefaultRetryInterval || maxElapsed != DefaultRetryMaxElapsed {
		t.Errorf("retry %v %v %v", initial, maxElapsed, err)
	}
	if diff := cmp.Diff(data.Cache{
		MinFactor:         datasource.DefaultMinFactor,
		MaxFactor:         datasource.DefaultMaxFactor,
		MaxAdaptiveFactor: DefaultMaxAdaptiveFactor,
		SlowFetch:         DefaultSlowFetch.String(),
	}, l.Cache); diff != "" {
		t.Errorf("cache mismatch (-want +got):\n%s", diff)
	}
}

func TestLazyRowsValidate(t *testing.T) {
	l := LazyRows{
		APITimeout: "soon",
		PageSize:   -1,
		Cache:      data.Cache{MinFactor: 5, MaxFactor: 2},
		RateLimit:  data.RateLimit{PerSecond: 10},
	}
	l.Validate()

	if l.APITimeout != DefaultAPITimeout.String() {
		t.Errorf("api timeout %q", l.APITimeout)
	}
	if l.PageSize != DefaultPageSize {
		t.Errorf("page size %d", l.PageSize)
	}
	if l.Cache.MaxFactor != 5 {
		t.Errorf("max factor %v", l.Cache.MaxFactor)
	}
	if l.RateLimit.Burst != 1 {
		t.Errorf("burst %d", l.RateLimit.Burst)
	}
}

func TestLazyRowsOverride(t *testing.T) {
	l := NewLazyRows()
	flags := NewFlags()
	*flags.Kind = "sql"
	*flags.Path = "/tmp/rows.db"
	*flags.Table = "events"
	*flags.PageSize = 250
	*flags.Adaptive = true
	*flags.Columns = []string{"id", "size"}
	*flags.RefreshRate = 0.5
	l.Override(flags)

	want := data.Source{
		Kind:    "sql",
		Path:    "/tmp/rows.db",
		Table:   "events",
		Columns: []string{"id", "size"},
		Seed:    DefaultSeed,
	}
	if diff := cmp.Diff(want, l.Source); diff != "" {
		t.Errorf("source mismatch (-want +got):\n%s", diff)
	}
	if l.PageSize != 250 || l.RefreshInterval() != 500*time.Millisecond {
		t.Errorf("page size %d refresh %v", l.PageSize, l.RefreshInterval())
	}
	if _, ok := l.Strategy().(*datasource.AdaptiveStrategy); !ok {
		t.Errorf("strategy %T", l.Strategy())
	}
	if _, ok := l.StrategyNamed(data.StrategySymmetric).(*datasource.SymmetricStrategy); !ok {
		t.Error("expected the symmetric strategy")
	}
}

func TestLazyRowsChurn(t *testing.T) {
	uu := map[string]struct {
		flag string
		e    time.Duration
	}{
		"off":     {},
		"valid":   {flag: "250ms", e: 250 * time.Millisecond},
		"invalid": {flag: "often"},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			l := NewLazyRows()
			flags := NewFlags()
			*flags.Churn = u.flag
			l.Override(flags)
			l.Validate()

			if got := l.ChurnInterval(); got != u.e {
				t.Errorf("churn %v, want %v", got, u.e)
			}
		})
	}
}

func TestConfigLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazyrows.yaml")
	raw := `lazyrows:
  pageSize: 500
  requestTimeout: 10s
  cache:
    minFactor: 2
    adaptive: true
  source:
    kind: bolt
    path: rows.db
    table: events
`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := cfg.Load(path, true); err != nil {
		t.Fatal(err)
	}
	l := cfg.LazyRows
	if l.PageSize != 500 || !l.Cache.Adaptive || l.Cache.MinFactor != 2 {
		t.Errorf("loaded %+v", l.Cache)
	}
	if d, _ := l.GetRequestTimeout(); d != 10*time.Second {
		t.Errorf("request timeout %v", d)
	}
	rid, err := cfg.ResourceID()
	if err != nil {
		t.Fatal(err)
	}
	if rid != dao.BoltBucketRID || IsCloud(rid) {
		t.Errorf("rid %v", rid)
	}
	if diff := cmp.Diff(dao.Locator{Path: "rows.db", Table: "events", PageSize: 500, Seed: DefaultSeed}, l.Locator()); diff != "" {
		t.Errorf("locator mismatch (-want +got):\n%s", diff)
	}

	out := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.Save(out, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("unforced save wrote a new file")
	}
	if err := cfg.Save(out, true); err != nil {
		t.Fatal(err)
	}
	again := NewConfig()
	if err := again.Load(out, true); err != nil {
		t.Fatal(err)
	}
	if again.LazyRows.PageSize != 500 || again.LazyRows.Source.Kind != "bolt" {
		t.Errorf("saved %+v", again.LazyRows.Source)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	cfg := NewConfig()
	path := filepath.Join(t.TempDir(), "nope.yaml")
	if err := cfg.Load(path, false); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := cfg.Load(path, true); err == nil {
		t.Error("expected an error")
	}
}

func TestAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte("aliases:\n  logs: sql/table\n  s3: cc/resource\n"), 0600); err != nil {
		t.Fatal(err)
	}
	a := NewAliases()
	if err := a.LoadFrom(path); err != nil {
		t.Fatal(err)
	}

	uu := map[string]string{
		"logs":      "sql/table",
		"s3":        "cc/resource",
		"ec2":       "ec2/instance",
		"sql/table": "sql/table",
	}
	for k, want := range uu {
		if got := a.Get(k); got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestSourceState(t *testing.T) {
	d := data.NewDir(t.TempDir())

	st, err := d.Load("sql/table")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data.NewSourceState("sql/table"), st); diff != "" {
		t.Errorf("fresh state mismatch (-want +got):\n%s", diff)
	}

	st.Selected, st.Strategy = 4200, data.StrategyAdaptive
	if err := d.Save(st); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(d.StatePath("sql/table")) != "sql-table.yaml" {
		t.Errorf("path %s", d.StatePath("sql/table"))
	}
	got, err := d.Load("sql/table")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}
