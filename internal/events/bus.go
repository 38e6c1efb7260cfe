// Package events is a small in-process publish/subscribe bus used to tell
// sibling views that data changed. Each screen owns its own Bus.
package events

import (
	"sync"

	"github.com/brk3/habitgrid/internal/logger"
)

// CompletionsChanged is emitted after a completion is marked or unmarked.
// The payload is the habit ID.
const CompletionsChanged = "completions.changed"

type Handler func(payload any)

type subscription struct {
	fn Handler
}

type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]*subscription)}
}

// Subscribe registers fn for event and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(event string, fn Handler) (unsubscribe func()) {
	s := &subscription{fn: fn}
	b.mu.Lock()
	b.subs[event] = append(b.subs[event], s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[event]
			for i, cur := range list {
				if cur == s {
					b.subs[event] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(b.subs[event]) == 0 {
				delete(b.subs, event)
			}
		})
	}
}

// Emit calls every handler for event synchronously, in subscription order.
// A panicking handler is logged and does not stop the others.
func (b *Bus) Emit(event string, payload any) {
	b.mu.Lock()
	list := append([]*subscription(nil), b.subs[event]...)
	b.mu.Unlock()

	for _, s := range list {
		call(event, s.fn, payload)
	}
}

// Subscribers reports the number of handlers registered for event.
func (b *Bus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[event])
}

func call(event string, fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Event handler panicked", "event", event, "panic", r)
		}
	}()
	fn(payload)
}
