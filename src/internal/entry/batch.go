package entry

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotSingleEntry is returned by Only when a batch does not hold exactly one
// entry.
var ErrNotSingleEntry = errors.New("batch must contain exactly one entry")

// Batch is an insertion-ordered set of entries keyed by label.
type Batch struct {
	order   []string
	entries map[string]*Entry
}

// NewBatch returns an empty Batch, optionally seeded with entries.
func NewBatch(es ...*Entry) *Batch {
	b := &Batch{entries: map[string]*Entry{}}
	for _, e := range es {
		b.Set(e)
	}
	return b
}

// Len reports the number of entries.
func (b *Batch) Len() int { return len(b.order) }

// Labels returns labels in insertion order.
func (b *Batch) Labels() []string { return slices.Clone(b.order) }

// Entries returns entries in insertion order.
func (b *Batch) Entries() []*Entry {
	out := make([]*Entry, 0, len(b.order))
	for _, l := range b.order {
		out = append(out, b.entries[l])
	}
	return out
}

// Has reports whether label is present.
func (b *Batch) Has(label string) bool {
	_, ok := b.entries[label]
	return ok
}

// Get returns the entry stored under label.
func (b *Batch) Get(label string) (*Entry, bool) {
	e, ok := b.entries[label]
	return e, ok
}

// Set inserts e under its label. Replacing keeps the existing position.
func (b *Batch) Set(e *Entry) {
	if _, ok := b.entries[e.Label]; !ok {
		b.order = append(b.order, e.Label)
	}
	b.entries[e.Label] = e
}

// Delete removes label if present.
func (b *Batch) Delete(label string) {
	if _, ok := b.entries[label]; !ok {
		return
	}
	delete(b.entries, label)
	b.order = slices.DeleteFunc(b.order, func(l string) bool { return l == label })
}

// Rename moves the entry at from to to, keeping its position, and updates the
// entry's label.
func (b *Batch) Rename(from, to string) error {
	e, ok := b.entries[from]
	if !ok {
		return fmt.Errorf("no entry %q", from)
	}
	if from == to {
		return nil
	}
	if _, taken := b.entries[to]; taken {
		return fmt.Errorf("label %q already exists", to)
	}
	e.SetLabel(to)
	delete(b.entries, from)
	b.entries[to] = e
	b.order[slices.Index(b.order, from)] = to
	return nil
}

// Only returns the single entry of a one-entry batch.
func (b *Batch) Only() (*Entry, error) {
	if len(b.order) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNotSingleEntry, len(b.order))
	}
	return b.entries[b.order[0]], nil
}
