// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import "sync"

// Notifier broadcasts identity-change events (sign-in and sign-out) to
// subscribed watchers. Subscribe returns an unsubscribe function that MUST
// be called when the owning view unmounts, so stale watchers never resolve
// into torn-down state.
type Notifier struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func()
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{handlers: make(map[int]func())}
}

// Subscribe registers a handler and returns its unsubscribe function.
// The unsubscribe function is idempotent.
func (n *Notifier) Subscribe(handler func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.handlers, id)
		})
	}
}

// Publish notifies every subscriber that the identity may have changed.
// Handlers run synchronously; invocation order is not guaranteed.
func (n *Notifier) Publish() {
	n.mu.Lock()
	handlers := make([]func(), 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// Len reports the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlers)
}
