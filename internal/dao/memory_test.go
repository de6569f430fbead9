package dao

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func names(oo []Object) []string {
	ss := make([]string, 0, len(oo))
	for _, o := range oo {
		ss = append(ss, o.GetName())
	}
	return ss
}

func obj(id, name string) Object {
	return &BaseObject{ID: id, Name: name, Attrs: map[string]string{"id": id, "name": name}}
}

func TestMemorySourceNaturalOrder(t *testing.T) {
	m := NewMemorySource([]Object{obj("c", "item 10"), obj("a", "item 2"), obj("b", "item 1")})

	oo, err := m.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"item 1", "item 2", "item 10"}, names(oo)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestMemorySourceWindow(t *testing.T) {
	m, err := SourceFor(nil, MemoryRID, Locator{Seed: 50})
	if err != nil {
		t.Fatal(err)
	}

	uu := map[string]struct {
		offset, limit int
		want          int
	}{
		"head":    {offset: 0, limit: 10, want: 10},
		"tail":    {offset: 45, limit: 10, want: 5},
		"past":    {offset: 50, limit: 10, want: 0},
		"no-rows": {offset: 0, limit: 0, want: 0},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			oo, err := m.List(context.Background(), u.offset, u.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(oo) != u.want {
				t.Errorf("got %d records, want %d", len(oo), u.want)
			}
		})
	}

	n, _ := m.Count(context.Background())
	if n != 50 {
		t.Errorf("count %d, want 50", n)
	}
}

func TestMemorySourceChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemorySource([]Object{obj("a", "a"), obj("c", "c"), obj("e", "e")})
	changes := m.Watch(ctx)

	if i := m.Insert(obj("d", "d")); i != 2 {
		t.Errorf("inserted at %d, want 2", i)
	}
	if err := m.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Update(obj("c", "c")); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove("zz"); err == nil {
		t.Error("expected an error removing an unknown record")
	}
	m.Reset([]Object{obj("x", "x")})

	want := []Change{
		{Kind: ChangeInsert, Offset: 2, Count: 1},
		{Kind: ChangeRemove, Offset: 0, Count: 1},
		{Kind: ChangeUpdate, Offset: 0, Count: 1},
		{Kind: ChangeReset, Count: 1},
	}
	got := make([]Change, 0, len(want))
	for range want {
		select {
		case c := <-changes:
			got = append(got, c)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for a change")
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	cancel()
	for range changes {
	}
}

func TestMemorySourceChurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemorySource([]Object{obj("a", "a"), obj("b", "b"), obj("c", "c")})
	changes := m.Watch(ctx)

	churnCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	var c Churner = m
	go func() {
		defer close(done)
		c.Churn(churnCtx, time.Millisecond, 7)
	}()

	size := 3
	apply := func(ch Change) {
		switch ch.Kind {
		case ChangeInsert:
			size++
		case ChangeRemove:
			size--
		default:
			t.Fatalf("unexpected change %v", ch.Kind)
		}
		if ch.Count != 1 || ch.Offset < 0 || ch.Offset > size {
			t.Errorf("bad change %+v at size %d", ch, size)
		}
	}
	for i := 0; i < 5; i++ {
		select {
		case ch := <-changes:
			apply(ch)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for a change")
		}
	}
	stop()
	<-done
	cancel()
	for ch := range changes {
		apply(ch)
	}

	if n, _ := m.Count(context.Background()); n != size {
		t.Errorf("count %d, want %d", n, size)
	}
}

func TestChangeKindString(t *testing.T) {
	if got := ChangeRemove.String(); got != "remove" {
		t.Errorf("got %q", got)
	}
	if got := ChangeKind(0).String(); got != "unknown" {
		t.Errorf("got %q", got)
	}
}
