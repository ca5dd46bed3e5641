// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"context"
	"sync"
)

// Watcher keeps a Session current for one active view. It subscribes to the
// Notifier once, re-resolves fully on every notification, and guarantees
// that the resolution of the LAST notification is the one that lands, even
// when an older in-flight resolution completes later.
type Watcher struct {
	resolver *Resolver
	notifier *Notifier
	token    func() string

	mu          sync.Mutex
	session     Session
	dispatched  uint64 // epoch of the newest notification seen
	applied     uint64 // epoch whose resolution currently holds the session
	onChange    func(Session)
	unsubscribe func()
	stopped     bool
}

// NewWatcher creates a Watcher. token supplies the viewer's current access
// token at resolution time; onChange (optional) is invoked after every
// applied session change.
func NewWatcher(resolver *Resolver, notifier *Notifier, token func() string, onChange func(Session)) *Watcher {
	return &Watcher{
		resolver: resolver,
		notifier: notifier,
		token:    token,
		onChange: onChange,
	}
}

// Start subscribes to identity changes and kicks off the initial
// resolution. The session is Unknown until that resolution applies.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.unsubscribe != nil || w.stopped {
		w.mu.Unlock()
		return
	}
	w.unsubscribe = w.notifier.Subscribe(func() {
		w.dispatch(ctx)
	})
	w.mu.Unlock()

	w.dispatch(ctx)
}

// Stop releases the notification subscription. Resolutions still in flight
// are discarded when they complete.
func (w *Watcher) Stop() {
	w.mu.Lock()
	unsub := w.unsubscribe
	w.unsubscribe = nil
	w.stopped = true
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Session returns the currently applied session.
func (w *Watcher) Session() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// dispatch starts a full re-resolution for a new epoch.
func (w *Watcher) dispatch(ctx context.Context) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.dispatched++
	epoch := w.dispatched
	token := w.token()
	w.mu.Unlock()

	go func() {
		session := w.resolver.Resolve(ctx, token)
		w.apply(epoch, session)
	}()
}

// apply lands a resolution unless a newer notification's resolution has
// already landed. Event order wins, not completion order.
func (w *Watcher) apply(epoch uint64, session Session) {
	w.mu.Lock()
	if w.stopped || epoch <= w.applied {
		w.mu.Unlock()
		return
	}
	w.applied = epoch
	changed := w.session != session
	w.session = session
	onChange := w.onChange
	w.mu.Unlock()

	if changed && onChange != nil {
		onChange(session)
	}
}
