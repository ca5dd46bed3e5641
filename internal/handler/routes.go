// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/middleware"
)

// App bundles the handlers and the session plumbing the routes need.
type App struct {
	Auth      *AuthHandler
	Education *EducationHandler
	Videos    *VideosHandler
	Pages     *PagesHandler
	Health    *HealthHandler

	SessionManager *scs.SessionManager
	Resolver       *identity.Resolver
	// LoginLimiter is optional; when nil the login route is unthrottled.
	LoginLimiter *middleware.LoginLimiter
}

// Routes mounts every application route. Global middleware (request id,
// logging, recovery, security headers, CSRF) is layered on by the
// caller; this router only adds what the handlers themselves rely on.
func (a *App) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(a.SessionManager.LoadAndSave)
	r.Use(middleware.LoadViewer(a.SessionManager, a.Resolver))

	r.Get("/", Home)
	r.Get("/healthz", a.Health.Liveness)
	r.Get("/healthz/ready", a.Health.Readiness)

	r.Get("/auth", a.Auth.LoginForm)
	if a.LoginLimiter != nil {
		r.With(a.LoginLimiter.Middleware).Post("/auth", a.Auth.Login)
	} else {
		r.Post("/auth", a.Auth.Login)
	}
	r.Get("/auth/callback", a.Auth.Callback)
	r.Post("/auth/session", a.Auth.CreateSession)
	r.Post("/logout", a.Auth.Logout)

	r.Get("/education", a.Education.List)
	r.Get("/videos", a.Videos.List)
	r.Get("/news", a.Pages.News)
	r.Get("/community", a.Pages.Community)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/education/new", a.Education.NewForm)
		r.Post("/education/new", a.Education.Create)
		r.Get("/education/{id}/edit", a.Education.EditForm)
		r.Post("/education/{id}/edit", a.Education.Update)
		r.Post("/education/{id}/delete", a.Education.Delete)

		r.Get("/videos/new", a.Videos.NewForm)
		r.Post("/videos/new", a.Videos.Create)
		r.Post("/videos/{id}/delete", a.Videos.Delete)
	})

	r.Get("/education/{id}", a.Education.Detail)

	return r
}
