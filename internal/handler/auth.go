// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/middleware"
	"github.com/nodezblockchain/nodez-go/internal/remote"
	"github.com/nodezblockchain/nodez-go/internal/render"
	"github.com/nodezblockchain/nodez-go/internal/session"
)

// AuthHandler handles the magic-link sign-in flow.
type AuthHandler struct {
	identity       remote.Identity
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	notifier       *identity.Notifier
	callbackURL    string
	logger         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. siteURL is the public base
// URL; emailed sign-in links land on its /auth/callback route.
func NewAuthHandler(id remote.Identity, renderer *render.Renderer, sm *scs.SessionManager, notifier *identity.Notifier, siteURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:       id,
		renderer:       renderer,
		sessionManager: sm,
		notifier:       notifier,
		callbackURL:    strings.TrimRight(siteURL, "/") + "/auth/callback",
		logger:         logger,
	}
}

type loginData struct {
	Error string
}

// LoginForm renders the sign-in page. Signed-in users are sent to the
// content home instead.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetSession(r).IsAnonymous() {
		http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
		return
	}
	h.render(w, r, "auth_login", "Sign in", loginData{})
}

// Login sends the emailed sign-in link. The response is the same whether
// or not the address has an account, so it leaks nothing about members.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if _, err := mail.ParseAddress(email); err != nil {
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "auth_login", "Sign in",
			loginData{Error: "Enter a valid email address."})
		return
	}

	if err := h.identity.SendLoginLink(r.Context(), email, h.callbackURL); err != nil {
		h.logger.Error("failed to send login link", "error", err)
		h.renderStatus(w, r, http.StatusBadGateway, "auth_login", "Sign in",
			loginData{Error: "Could not send the sign-in link. Try again in a minute."})
		return
	}

	h.logger.Info("login link sent", "email", email)
	h.render(w, r, "auth_sent", "Check your email", struct{ Email string }{Email: email})
}

// Callback renders the page the emailed link lands on. The identity
// provider returns the access token in the URL fragment, which never
// reaches the server, so the page posts it back to CreateSession.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "auth_callback", "Signing in", nil)
}

// CreateSession validates a posted access token and binds it to the
// server session. Invalid or expired tokens bounce back to the sign-in
// form rather than creating an anonymous session with a dead token.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.FormValue("access_token"))
	if token == "" {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}

	// CurrentUser maps an expired or revoked token to a zero user with a
	// nil error, so both outcomes are rejections here.
	user, err := h.identity.CurrentUser(r.Context(), token)
	if err != nil || user.ID == "" || user.Email == "" {
		h.logger.Warn("rejected access token on callback", "error", err)
		h.renderer.SetFlash(r, "That sign-in link is invalid or has expired.", "error")
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}

	if err := session.SetIdentity(r.Context(), h.sessionManager, token, user.Email); err != nil {
		h.logger.Error("failed to persist session identity", "error", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	h.notifier.Publish()
	h.logger.Info("user signed in", "email", user.Email)
	http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
}

// Logout revokes the remote session, destroys the local one and
// publishes the identity change. Remote revocation failures are logged
// but never keep the user signed in locally.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := session.AccessToken(r.Context(), h.sessionManager); token != "" {
		if err := h.identity.SignOut(r.Context(), token); err != nil {
			h.logger.Warn("remote sign-out failed", "error", err)
		}
	}

	if err := session.ClearIdentity(r.Context(), h.sessionManager); err != nil {
		h.logger.Error("failed to destroy session", "error", err)
	}

	h.notifier.Publish()
	http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	h.renderStatus(w, r, http.StatusOK, name, title, data)
}

func (h *AuthHandler) renderStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	err := h.renderer.Render(w, r, name, render.TemplateData{
		Title:   title,
		Data:    data,
		Session: middleware.GetSession(r),
	})
	if err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
	}
}
