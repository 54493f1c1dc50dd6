// Package events carries selection changes between dashboard surfaces (map
// click to chart refresh) over an explicit in-process channel instead of
// ambient globals.
package events

import "sync"

// Selection is the event payload: the canonical state and, when the selection
// originated from a district-level feature, the district.
type Selection struct {
	State    string `json:"state"`
	District string `json:"district,omitempty"`
}

// Bus is a session-scoped publish/subscribe channel. Publish is synchronous;
// subscribers run on the publisher's goroutine in registration order, which
// preserves the "newer selection fully supersedes the previous" guarantee.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Selection)
	order  []int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Selection))}
}

// Subscribe registers a handler and returns its cancel function.
func (b *Bus) Subscribe(fn func(Selection)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers a selection to every live subscriber.
func (b *Bus) Publish(sel Selection) {
	b.mu.Lock()
	handlers := make([]func(Selection), 0, len(b.subs))
	for _, id := range b.order {
		if fn, ok := b.subs[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(sel)
	}
}
