// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/nodezblockchain/nodez-go/internal/testutil"
)

func TestNewDevMode(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true)
	if sm.Cookie.Secure {
		t.Error("Cookie.Secure = true in dev mode")
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("dev mode must not use the __Host- cookie prefix")
	}
}

func TestNewProductionMode(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, false)
	if !sm.Cookie.Secure {
		t.Error("Cookie.Secure = false in production")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("Cookie.Name = %q, want __Host-session", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("Cookie.HttpOnly = false")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("Cookie.SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true)
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}

	if err := SetIdentity(ctx, sm, "tok-123", "admin@x.com"); err != nil {
		t.Fatalf("SetIdentity() error = %v", err)
	}
	if got := AccessToken(ctx, sm); got != "tok-123" {
		t.Errorf("AccessToken() = %q, want tok-123", got)
	}
	if got := Email(ctx, sm); got != "admin@x.com" {
		t.Errorf("Email() = %q, want admin@x.com", got)
	}

	if err := ClearIdentity(ctx, sm); err != nil {
		t.Fatalf("ClearIdentity() error = %v", err)
	}
	if got := AccessToken(ctx, sm); got != "" {
		t.Errorf("AccessToken() after clear = %q, want empty", got)
	}
}
