// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/remote"
	"github.com/nodezblockchain/nodez-go/internal/testutil"
)

var (
	viewerSession = identity.Session{Privilege: identity.PrivilegeViewer}
	adminSession  = identity.Session{Email: "admin@x.com", Privilege: identity.PrivilegeAdmin}
)

func newController(t *testing.T, required identity.Privilege, opts ...Option) (*Controller, *testutil.FakeRemote) {
	t.Helper()
	fake := testutil.NewFakeRemote()
	repo := content.NewPosts(fake)
	c := New(repo, required, testutil.TestLoggerSilent(), opts...)
	c.Mount(nil)
	return c, fake
}

func seedPost(t *testing.T, fake *testutil.FakeRemote, title string) {
	t.Helper()
	repo := content.NewPosts(fake)
	if _, err := repo.Create(context.Background(), content.Fields{Title: title, Body: "<p>b</p>"}); err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
}

func TestControllerPendingSession(t *testing.T) {
	c, _ := newController(t, identity.PrivilegeViewer)

	c.OnSession(context.Background(), identity.Session{})

	snap := c.Snapshot()
	if snap.State != StatePending {
		t.Fatalf("state = %v, want pending", snap.State)
	}
	if snap.RedirectTo != "" {
		t.Errorf("pending view must not redirect, got %q", snap.RedirectTo)
	}
}

func TestControllerFetchOnAllow(t *testing.T) {
	c, fake := newController(t, identity.PrivilegeViewer)
	seedPost(t, fake, "hello")

	c.OnSession(context.Background(), viewerSession)

	snap := c.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("state = %v, want ready", snap.State)
	}
	if len(snap.Items) != 1 || snap.Items[0].Title != "hello" {
		t.Fatalf("items = %+v, want one item titled hello", snap.Items)
	}
}

func TestControllerDenyRedirectsOnce(t *testing.T) {
	c, _ := newController(t, identity.PrivilegeAdmin)
	ctx := context.Background()

	c.OnSession(ctx, viewerSession)
	if got := c.Snapshot().RedirectTo; got != identity.ContentHome {
		t.Fatalf("redirect = %q, want %q", got, identity.ContentHome)
	}

	// Same session again: the latch must not fire a second redirect.
	c.OnSession(ctx, viewerSession)
	if got := c.Snapshot().RedirectTo; got != "" {
		t.Errorf("second identical session redirected again to %q", got)
	}
}

func TestControllerRefetchOnSessionChange(t *testing.T) {
	c, fake := newController(t, identity.PrivilegeViewer)
	ctx := context.Background()

	c.OnSession(ctx, viewerSession)
	if n := len(c.Snapshot().Items); n != 0 {
		t.Fatalf("items = %d, want 0", n)
	}

	// New content appears behind the view; a privilege change must
	// refresh it.
	seedPost(t, fake, "late arrival")
	c.OnSession(ctx, adminSession)

	snap := c.Snapshot()
	if snap.State != StateReady || len(snap.Items) != 1 {
		t.Fatalf("state = %v items = %d, want ready with 1 item", snap.State, len(snap.Items))
	}
}

func TestControllerSameSessionWhileReadyIsNoop(t *testing.T) {
	c, fake := newController(t, identity.PrivilegeViewer)
	ctx := context.Background()

	c.OnSession(ctx, viewerSession)
	seedPost(t, fake, "unseen")
	c.OnSession(ctx, viewerSession)

	if n := len(c.Snapshot().Items); n != 0 {
		t.Fatalf("identical session refetched: items = %d, want 0", n)
	}
}

func TestControllerFetchFailure(t *testing.T) {
	c, fake := newController(t, identity.PrivilegeViewer)
	fake.TablesErr = remote.ErrUnavailable

	c.OnSession(context.Background(), viewerSession)

	snap := c.Snapshot()
	if snap.State != StateFailed {
		t.Fatalf("state = %v, want failed", snap.State)
	}
	if snap.Err == nil {
		t.Fatal("want error in snapshot")
	}

	// Retry affordance.
	fake.TablesErr = nil
	c.Refresh(context.Background())
	if got := c.Snapshot().State; got != StateReady {
		t.Fatalf("state after retry = %v, want ready", got)
	}
}

func TestControllerWriteRefetches(t *testing.T) {
	c, _ := newController(t, identity.PrivilegeAdmin)
	ctx := context.Background()

	c.OnSession(ctx, adminSession)

	item, err := c.CreateItem(ctx, content.Fields{Title: "fresh", Body: "<p>b</p>"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == "" {
		t.Fatal("created item has no id")
	}

	snap := c.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("state = %v, want ready", snap.State)
	}
	if len(snap.Items) != 1 || snap.Items[0].ID != item.ID {
		t.Fatalf("items not refetched after write: %+v", snap.Items)
	}
}

func TestControllerWriteFailureKeepsItems(t *testing.T) {
	c, fake := newController(t, identity.PrivilegeAdmin)
	ctx := context.Background()
	seedPost(t, fake, "survivor")

	c.OnSession(ctx, adminSession)

	_, err := c.CreateItem(ctx, content.Fields{Title: "", Body: "y"})
	var verr *content.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	snap := c.Snapshot()
	if snap.State != StateFailed {
		t.Fatalf("state = %v, want failed", snap.State)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("failed write must keep last good items, got %d", len(snap.Items))
	}
}

func TestControllerWriteBeforeReady(t *testing.T) {
	c, _ := newController(t, identity.PrivilegeAdmin)

	_, err := c.CreateItem(context.Background(), content.Fields{Title: "t", Body: "b"})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestControllerDetailNotFound(t *testing.T) {
	fake := testutil.NewFakeRemote()
	repo := content.NewPosts(fake)
	c := New(repo, identity.PrivilegeViewer, testutil.TestLoggerSilent(), ForItem("ghost"))
	c.Mount(nil)

	c.OnSession(context.Background(), viewerSession)

	snap := c.Snapshot()
	if snap.State != StateFailed {
		t.Fatalf("state = %v, want failed", snap.State)
	}
	if !errors.Is(snap.Err, content.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", snap.Err)
	}
}

// gatedStore blocks Select until released, to let tests unmount the
// view while a fetch is in flight.
type gatedStore struct {
	remote.Store
	gate chan struct{}
}

func (g *gatedStore) Select(ctx context.Context, collection string, order remote.Order, dest any) error {
	<-g.gate
	return g.Store.Select(ctx, collection, order, dest)
}

func TestControllerUnmountDiscardsCompletion(t *testing.T) {
	fake := testutil.NewFakeRemote()
	gated := &gatedStore{Store: fake, gate: make(chan struct{})}
	repo := content.NewPosts(gated)
	c := New(repo, identity.PrivilegeViewer, testutil.TestLoggerSilent())
	c.Mount(nil)

	done := make(chan struct{})
	go func() {
		c.OnSession(context.Background(), viewerSession)
		close(done)
	}()

	waitForState(t, c, StateLoading)
	c.Unmount()
	close(gated.gate)
	<-done

	if got := c.Snapshot().State; got != StateLoading {
		t.Fatalf("state = %v, want loading left over from before unmount", got)
	}
	if n := len(c.Snapshot().Items); n != 0 {
		t.Fatalf("unmounted view received %d items", n)
	}
}

// gatedUpdateStore blocks Update until released.
type gatedUpdateStore struct {
	remote.Store
	gate chan struct{}
}

func (g *gatedUpdateStore) Update(ctx context.Context, collection, id string, row, dest any) error {
	<-g.gate
	return g.Store.Update(ctx, collection, id, row, dest)
}

func TestControllerDeleteRefusedWhileUpdateInFlight(t *testing.T) {
	fake := testutil.NewFakeRemote()
	gated := &gatedUpdateStore{Store: fake, gate: make(chan struct{})}
	repo := content.NewPosts(gated)
	ctx := context.Background()

	seeded, err := content.NewPosts(fake).Create(ctx, content.Fields{Title: "t", Body: "<p>b</p>"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := New(repo, identity.PrivilegeAdmin, testutil.TestLoggerSilent())
	c.Mount(nil)
	c.OnSession(ctx, adminSession)

	done := make(chan struct{})
	go func() {
		_, _ = c.UpdateItem(ctx, seeded.ID, content.Fields{Title: "t2", Body: "<p>b</p>"})
		close(done)
	}()

	waitForState(t, c, StateSaving)
	if err := c.DeleteItem(ctx, seeded.ID); !errors.Is(err, ErrWriteInFlight) {
		t.Fatalf("delete during update: err = %v, want ErrWriteInFlight", err)
	}

	close(gated.gate)
	<-done

	// Once the update has completed the delete goes through.
	if err := c.DeleteItem(ctx, seeded.ID); err != nil {
		t.Fatalf("delete after update: %v", err)
	}
	if n := len(c.Snapshot().Items); n != 0 {
		t.Fatalf("items = %d after delete, want 0", n)
	}
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().State == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %v, at %v", want, c.Snapshot().State)
}
