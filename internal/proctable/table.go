package proctable

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is the process table keyed by label. It is backed by an
// ordered map so that ungrouped_order can be reconstructed by simple
// iteration in declaration order, the same role the teacher's
// pkg/supervisor/tables.go gives orderedmap.OrderedMap, without a
// separate slice-plus-map bookkeeping structure.
type Table struct {
	m *orderedmap.OrderedMap[string, *Child]
}

func NewTable() *Table {
	return &Table{m: orderedmap.New[string, *Child]()}
}

func (t *Table) Get(label string) (*Child, bool) {
	return t.m.Get(label)
}

// Put inserts or overwrites a child, preserving its original
// declaration-order position if it already existed.
func (t *Table) Put(c *Child) {
	t.m.Set(c.Label, c)
}

func (t *Table) Delete(label string) {
	t.m.Delete(label)
}

func (t *Table) Len() int {
	return t.m.Len()
}

// All iterates in declaration order, oldest-inserted first.
func (t *Table) All() func(yield func(*Child) bool) {
	return func(yield func(*Child) bool) {
		for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// Labels returns every label currently in the table, in declaration
// order.
func (t *Table) Labels() []string {
	out := make([]string, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Ordering is the derived launch/shutdown ordering described in §3:
// ungrouped children in declaration order, followed by each named
// group (in group-name sort order) with the relative order of
// children inside a group preserved as file order.
type Ordering struct {
	Ungrouped []string
	Groups    map[string][]string
	GroupKeys []string // group names, sorted
}

// LaunchOrder concatenates ungrouped order with each group in
// name-sort order, per §3's launch_order definition.
func (o *Ordering) LaunchOrder() []string {
	out := make([]string, 0, len(o.Ungrouped))
	out = append(out, o.Ungrouped...)
	for _, g := range o.GroupKeys {
		out = append(out, o.Groups[g]...)
	}
	return out
}

// ShutdownOrder is the exact reverse of LaunchOrder, per §3.
func (o *Ordering) ShutdownOrder() []string {
	launch := o.LaunchOrder()
	out := make([]string, len(launch))
	for i, label := range launch {
		out[len(launch)-1-i] = label
	}
	return out
}

// BuildOrdering derives ungrouped_order and groups from the table in
// its current declaration order — the same walk used by the
// reconciler each reparse (§4.6/§4.5).
func BuildOrdering(t *Table) *Ordering {
	o := &Ordering{Groups: make(map[string][]string)}

	for c := range t.All() {
		if c.Group == "" {
			o.Ungrouped = append(o.Ungrouped, c.Label)
		} else {
			o.Groups[c.Group] = append(o.Groups[c.Group], c.Label)
		}
	}

	for g := range o.Groups {
		o.GroupKeys = append(o.GroupKeys, g)
	}
	sort.Strings(o.GroupKeys)

	return o
}
