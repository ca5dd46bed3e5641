// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import "sync"

// ContentHome is where denied viewers are sent.
const ContentHome = "/education"

// DecisionKind enumerates guard outcomes.
type DecisionKind int

const (
	// DecisionPending means resolution has not completed: render a loading
	// state, never protected content, and never a redirect.
	DecisionPending DecisionKind = iota
	// DecisionAllow permits the view.
	DecisionAllow
	// DecisionDeny refuses the view and carries the redirect target.
	DecisionDeny
)

// Decision is the result of a guard check.
type Decision struct {
	Kind       DecisionKind
	RedirectTo string
}

// Guard decides whether a session may enter a view requiring the given
// privilege. It is a pure function of its inputs: no side effects, no
// network, so it is testable without the remote store.
func Guard(session Session, required Privilege) Decision {
	if session.Privilege == PrivilegeUnknown {
		return Decision{Kind: DecisionPending}
	}
	if session.Privilege >= required {
		return Decision{Kind: DecisionAllow}
	}
	return Decision{Kind: DecisionDeny, RedirectTo: ContentHome}
}

// RedirectLatch enforces the at-most-one-redirect rule: a Deny for the same
// session value fires a redirect only once. A session transition re-arms
// the latch.
type RedirectLatch struct {
	mu    sync.Mutex
	last  Session
	fired bool
}

// ShouldRedirect reports whether a redirect may be issued for this session
// value. The first call per distinct session value returns true; repeats
// return false until the session changes.
func (l *RedirectLatch) ShouldRedirect(session Session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fired && l.last == session {
		return false
	}
	l.last = session
	l.fired = true
	return true
}
