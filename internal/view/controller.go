// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package view drives the content pages: it connects the session
// resolver, the authorization gate and a content repository into a
// per-view state machine that decides when to fetch, when to redirect
// and when a write is allowed.
package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/identity"
)

// State is the lifecycle phase of a single mounted view.
type State int

const (
	StateInit State = iota
	StatePending
	StateLoading
	StateReady
	StateSaving
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePending:
		return "pending"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotReady is returned when a write is attempted before the view
	// has reached a ready state.
	ErrNotReady = errors.New("view: not ready")

	// ErrWriteInFlight is returned when a delete targets an item whose
	// update has not completed yet.
	ErrWriteInFlight = errors.New("view: write in flight for item")
)

// Invalidator drops cached list data after a successful write.
type Invalidator interface {
	Invalidate(collection string)
}

// Snapshot is an immutable copy of the view state for rendering.
type Snapshot struct {
	State      State
	Session    identity.Session
	Items      []content.Item
	Item       content.Item
	Err        error
	RedirectTo string
}

// Controller owns the state of one mounted list or detail view.
//
// All methods are safe for concurrent use. Store calls run with the
// mutex released; their results are applied only if the generation
// recorded at launch still matches, so a completion that lands after
// Unmount (or after a newer fetch superseded it) never mutates the
// view.
type Controller struct {
	repo     *content.Repository
	required identity.Privilege
	cache    Invalidator
	logger   *slog.Logger
	itemID   string // non-empty for detail views
	lister   func(ctx context.Context) ([]content.Item, error)

	mu       sync.Mutex
	active   bool
	gen      uint64
	state    State
	session  identity.Session
	items    []content.Item
	item     content.Item
	lastErr  error
	redirect string
	latch    identity.RedirectLatch
	inflight map[string]struct{}
	onChange func(Snapshot)
}

// Option configures a Controller.
type Option func(*Controller)

// ForItem makes the controller fetch a single item instead of a list.
func ForItem(id string) Option {
	return func(c *Controller) { c.itemID = id }
}

// WithCache registers a cache to invalidate after successful writes.
func WithCache(inv Invalidator) Option {
	return func(c *Controller) { c.cache = inv }
}

// WithLister overrides the repository call used for list fetches, so a
// view can read through a cache instead of hitting the store directly.
func WithLister(fn func(ctx context.Context) ([]content.Item, error)) Option {
	return func(c *Controller) { c.lister = fn }
}

// New returns an unmounted controller for one view over repo. required
// is the privilege the view demands; pass identity.PrivilegeViewer for
// public pages.
func New(repo *content.Repository, required identity.Privilege, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		required: required,
		logger:   logger,
		state:    StateInit,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount activates the view. onChange, when non-nil, is called after
// every state transition with a snapshot; it must not call back into
// the controller.
func (c *Controller) Mount(onChange func(Snapshot)) {
	c.mu.Lock()
	c.active = true
	c.gen++
	c.state = StateInit
	c.onChange = onChange
	c.latch = identity.RedirectLatch{}
	c.mu.Unlock()
}

// Unmount deactivates the view. Store calls still in flight complete
// but their results are discarded.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.active = false
	c.gen++
	c.onChange = nil
	c.mu.Unlock()
}

// Snapshot returns a copy of the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	items := make([]content.Item, len(c.items))
	copy(items, c.items)
	return Snapshot{
		State:      c.state,
		Session:    c.session,
		Items:      items,
		Item:       c.item,
		Err:        c.lastErr,
		RedirectTo: c.redirect,
	}
}

func (c *Controller) notifyLocked() {
	if c.onChange == nil {
		return
	}
	snap := c.snapshotLocked()
	handler := c.onChange
	c.mu.Unlock()
	handler(snap)
	c.mu.Lock()
}

// OnSession feeds a resolved session into the view. It is the
// subscription target for an identity watcher: an unknown privilege
// parks the view in a pending state, a denial arms at most one
// redirect per distinct session, and an allowed session triggers a
// fetch. A session change while the view is ready triggers a refetch,
// because privilege decides which affordances the page shows.
func (c *Controller) OnSession(ctx context.Context, s identity.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	changed := s != c.session
	c.session = s

	switch d := identity.Guard(s, c.required); d.Kind {
	case identity.DecisionPending:
		c.gen++ // discard in-flight completions from the previous session
		c.state = StatePending
		c.redirect = ""
		c.notifyLocked()
	case identity.DecisionDeny:
		c.gen++
		c.items = nil
		c.item = content.Item{}
		c.state = StateInit
		if c.latch.ShouldRedirect(s) {
			c.redirect = d.RedirectTo
		} else {
			c.redirect = ""
		}
		c.notifyLocked()
	case identity.DecisionAllow:
		c.redirect = ""
		if !changed && (c.state == StateReady || c.state == StateSaving) {
			return
		}
		c.fetchLocked(ctx)
	}
}

// Refresh refetches from the store. It is the retry affordance for a
// failed view and a no-op while a fetch or write is already running.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.state == StateLoading || c.state == StateSaving {
		return
	}
	c.fetchLocked(ctx)
}

// fetchLocked runs a list or get with the mutex released and applies
// the result only if the view generation is unchanged.
func (c *Controller) fetchLocked(ctx context.Context) {
	c.gen++ // supersede any fetch still in flight
	gen := c.gen
	c.state = StateLoading
	c.notifyLocked()

	c.mu.Unlock()
	var (
		items []content.Item
		item  content.Item
		err   error
	)
	if c.itemID != "" {
		item, err = c.repo.Get(ctx, c.itemID)
	} else if c.lister != nil {
		items, err = c.lister(ctx)
	} else {
		items, err = c.repo.List(ctx)
	}
	c.mu.Lock()

	if gen != c.gen || !c.active {
		return
	}
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		c.logger.Warn("content fetch failed",
			slog.String("collection", c.repo.Collection()),
			slog.Any("error", err))
	} else {
		c.state = StateReady
		c.lastErr = nil
		c.items = items
		c.item = item
	}
	c.notifyLocked()
}

// CreateItem creates an item and refetches. The ready items are never
// patched locally: the post-write state always comes from the store.
func (c *Controller) CreateItem(ctx context.Context, f content.Fields) (content.Item, error) {
	return c.write(ctx, "", func() (content.Item, error) {
		return c.repo.Create(ctx, f)
	})
}

// UpdateItem updates an item and refetches.
func (c *Controller) UpdateItem(ctx context.Context, id string, f content.Fields) (content.Item, error) {
	return c.write(ctx, id, func() (content.Item, error) {
		return c.repo.Update(ctx, id, f)
	})
}

// DeleteItem deletes an item and refetches. A delete is refused while
// a create or update for the same id has not completed, so a slow
// update can never land after the delete and resurrect the row.
func (c *Controller) DeleteItem(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, busy := c.inflight[id]; busy {
		c.mu.Unlock()
		return ErrWriteInFlight
	}
	c.mu.Unlock()

	_, err := c.write(ctx, "", func() (content.Item, error) {
		return content.Item{}, c.repo.Delete(ctx, id)
	})
	return err
}

func (c *Controller) write(ctx context.Context, trackID string, op func() (content.Item, error)) (content.Item, error) {
	c.mu.Lock()
	if !c.active || c.state != StateReady {
		c.mu.Unlock()
		return content.Item{}, ErrNotReady
	}
	gen := c.gen
	c.state = StateSaving
	if trackID != "" {
		c.inflight[trackID] = struct{}{}
	}
	c.notifyLocked()
	c.mu.Unlock()

	item, err := op()

	c.mu.Lock()
	defer c.mu.Unlock()
	if trackID != "" {
		delete(c.inflight, trackID)
	}
	if gen != c.gen || !c.active {
		return item, err
	}
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		c.notifyLocked()
		return content.Item{}, err
	}
	if c.cache != nil {
		c.cache.Invalidate(c.repo.Collection())
	}
	c.fetchLocked(ctx)
	return item, nil
}
