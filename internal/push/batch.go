package push

import (
	"context"
	"sync"
)

// Entry is one event emitted during a unit of work.
type Entry struct {
	Building string
	Payload  any
}

// Batch accumulates the events of a single unit of work.
//
// A batch is created empty when the unit of work starts and drained exactly
// once when it ends. It is safe for concurrent use so helpers spawned by the
// unit of work may emit into it.
type Batch struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add appends an event for building.
func (b *Batch) Add(building string, payload any) {
	b.mu.Lock()
	b.entries = append(b.entries, Entry{Building: building, Payload: payload})
	b.mu.Unlock()
}

// Len returns the number of pending events.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Drain returns the pending events in insertion order and clears the batch.
func (b *Batch) Drain() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying b.
func NewContext(ctx context.Context, b *Batch) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the batch carried by ctx, if any.
func FromContext(ctx context.Context) (*Batch, bool) {
	b, ok := ctx.Value(contextKey{}).(*Batch)
	return b, ok && b != nil
}

// Emit adds an event to the batch carried by ctx. Without a batch the event
// is dropped: work outside a unit of work has nobody to notify.
func Emit(ctx context.Context, building string, payload any) {
	if b, ok := FromContext(ctx); ok {
		b.Add(building, payload)
	}
}
