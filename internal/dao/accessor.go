package dao

import (
	"fmt"
	"sort"
	"strings"
)

// SourceFunc builds a row source from a Locator.
type SourceFunc func(Factory, Locator) (RowSource, error)

// sources holds all registered source constructors.
var sources = make(map[string]SourceFunc)

// RegisterSource adds a source constructor to the global registry.
func RegisterSource(rid ResourceID, fn SourceFunc) {
	sources[rid.String()] = fn
}

// SourceFor returns a new source for the given resource ID.
func SourceFor(f Factory, rid ResourceID, loc Locator) (RowSource, error) {
	fn, ok := sources[rid.String()]
	if !ok {
		kinds := make([]string, 0, len(sources))
		for _, r := range ListSources() {
			kinds = append(kinds, r.String())
		}
		return nil, fmt.Errorf("no source for: %s, expecting one of %s", rid, strings.Join(kinds, ","))
	}
	return fn(f, loc)
}

// ListSources returns all registered resource IDs.
func ListSources() []ResourceID {
	rids := make([]ResourceID, 0, len(sources))
	for key := range sources {
		if rid, err := ParseResourceID(key); err == nil {
			rids = append(rids, rid)
		}
	}
	sort.Slice(rids, func(i, j int) bool {
		return rids[i].String() < rids[j].String()
	})
	return rids
}
