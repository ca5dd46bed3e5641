// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/remote"
	"github.com/nodezblockchain/nodez-go/internal/testutil"
)

func requestWithSession(sess identity.Session) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/education/new", nil)
	ctx := context.WithValue(r.Context(), ContextKeySession, sess)
	return r.WithContext(ctx)
}

func TestRequireAdminAllows(t *testing.T) {
	called := false
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSession(identity.Session{
		Email:     "admin@x.com",
		Privilege: identity.PrivilegeAdmin,
	}))

	if !called {
		t.Error("admin request did not reach the handler")
	}
}

func TestRequireAdminRedirectsViewer(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("viewer request reached the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSession(identity.Session{Privilege: identity.PrivilegeViewer}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != identity.ContentHome {
		t.Errorf("Location = %q, want %q", loc, identity.ContentHome)
	}
}

func TestRequireAdminRedirectsUnresolved(t *testing.T) {
	// No LoadViewer ran: the context session is zero-valued (unknown).
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unresolved request reached the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/education/new", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestLoadViewerResolvesAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	fake := testutil.NewFakeRemote()
	fake.AddUser("tok-1", remote.User{ID: "u1", Email: "admin@x.com"})
	resolver := identity.NewResolver(fake, []string{"admin@x.com"}, testutil.TestLoggerSilent())

	sm := newTestSessionManager(t, db)

	var got identity.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r)
	})
	h := sm.LoadAndSave(LoadViewer(sm, resolver)(inner))

	// First request signs in: store the token in the session.
	signIn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), "accessToken", "tok-1")
	})
	rec := httptest.NewRecorder()
	sm.LoadAndSave(signIn).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	cookie := rec.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/education", nil)
	for _, c := range cookie {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.Privilege != identity.PrivilegeAdmin || got.Email != "admin@x.com" {
		t.Errorf("resolved session = %+v, want admin admin@x.com", got)
	}
}

func TestLoadViewerAnonymousIsViewer(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	fake := testutil.NewFakeRemote()
	resolver := identity.NewResolver(fake, []string{"admin@x.com"}, testutil.TestLoggerSilent())
	sm := newTestSessionManager(t, db)

	var got identity.Session
	h := sm.LoadAndSave(LoadViewer(sm, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/education", nil))

	if got.Privilege != identity.PrivilegeViewer {
		t.Errorf("anonymous privilege = %v, want viewer", got.Privilege)
	}
	if got.Email != "" {
		t.Errorf("anonymous email = %q, want empty", got.Email)
	}
}
