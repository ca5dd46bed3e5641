// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the server-side session store and the
// identity values kept in it: the remote access token and the signed-in
// email.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	keyAccessToken = "accessToken"
	keyEmail       = "email"
)

// New creates a session manager backed by the SQLite sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// SetIdentity stores the remote access token and email after a
// successful sign-in. The session token is renewed to prevent
// fixation.
func SetIdentity(ctx context.Context, sm *scs.SessionManager, accessToken, email string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, keyAccessToken, accessToken)
	sm.Put(ctx, keyEmail, email)
	return nil
}

// AccessToken returns the stored remote access token, or "" when
// nobody is signed in.
func AccessToken(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, keyAccessToken)
}

// Email returns the stored email, or "" when nobody is signed in.
func Email(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, keyEmail)
}

// ClearIdentity destroys the session on sign-out.
func ClearIdentity(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}
