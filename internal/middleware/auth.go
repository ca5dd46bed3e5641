// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware: viewer resolution,
// admin gating, CSRF, rate limiting and security headers.
package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeySession carries the resolved identity.Session.
const ContextKeySession ContextKey = "session"

// ContextKeyAccessToken carries the raw access token the session was
// resolved from.
const ContextKeyAccessToken ContextKey = "accessToken"

// LoadViewer resolves the viewer for every request: the access token
// stored in the server session is resolved against the remote identity
// service and the allow-list, and the resulting Session is placed in
// the request context. Resolution never fails open into admin: an
// unreachable identity service degrades to viewer.
func LoadViewer(sm *scs.SessionManager, resolver *identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.AccessToken(r.Context(), sm)
			sess := resolver.Resolve(r.Context(), token)

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session placed in the context by LoadViewer.
// A missing value is an unresolved session, which every gate treats as
// not-yet-known rather than viewer.
func GetSession(r *http.Request) identity.Session {
	sess, ok := r.Context().Value(ContextKeySession).(identity.Session)
	if !ok {
		return identity.Session{}
	}
	return sess
}

// GetAccessToken returns the access token placed in the context by
// LoadViewer; empty for anonymous viewers.
func GetAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(ContextKeyAccessToken).(string)
	return token
}

// RequireAdmin gates a route on admin privilege. Anything short of an
// allowed admin is sent to the content home with a single redirect.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := identity.Guard(GetSession(r), identity.PrivilegeAdmin)
		if d.Kind != identity.DecisionAllow {
			target := d.RedirectTo
			if target == "" {
				target = identity.ContentHome
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
