// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nodezblockchain/nodez-go/internal/cache"
	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/imaging"
	"github.com/nodezblockchain/nodez-go/internal/middleware"
	"github.com/nodezblockchain/nodez-go/internal/model"
	"github.com/nodezblockchain/nodez-go/internal/render"
	"github.com/nodezblockchain/nodez-go/internal/view"
)

// EducationHandler serves the posts pages.
type EducationHandler struct {
	repo      *content.Repository
	cache     *cache.ContentCache
	renderer  *render.Renderer
	processor *imaging.Processor
	logger    *slog.Logger

	// writes is shared by every mutating request so that in-flight
	// tracking spans requests: a delete racing an update on the same id
	// is refused instead of interleaved.
	writes *view.Controller
	feed   *tokenFeed
}

// NewEducationHandler creates a new EducationHandler.
func NewEducationHandler(repo *content.Repository, cc *cache.ContentCache, renderer *render.Renderer, processor *imaging.Processor, resolver *identity.Resolver, notifier *identity.Notifier, logger *slog.Logger) *EducationHandler {
	h := &EducationHandler{
		repo:      repo,
		cache:     cc,
		renderer:  renderer,
		processor: processor,
		logger:    logger,
		feed:      &tokenFeed{},
	}
	h.writes = view.New(repo, identity.PrivilegeAdmin, logger, view.WithCache(cc))
	h.writes.Mount(nil)
	watchIdentity(h.writes, resolver, notifier, h.feed)
	return h
}

type educationListData struct {
	Posts      []model.PostView
	LoadFailed bool
}

type educationDetailData struct {
	Post model.PostView
}

type educationFormData struct {
	Post      content.Item
	TagsValue string
	Action    string
	Error     string
}

// List renders the education page, newest post first. A store failure
// renders the empty state with a notice rather than a 500.
func (h *EducationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctrl := view.New(h.repo, identity.PrivilegeViewer, h.logger,
		view.WithLister(func(ctx context.Context) ([]content.Item, error) {
			return h.cache.List(ctx, h.repo)
		}))
	ctrl.Mount(nil)
	defer ctrl.Unmount()
	ctrl.OnSession(r.Context(), middleware.GetSession(r))

	snap := ctrl.Snapshot()
	if snap.RedirectTo != "" {
		http.Redirect(w, r, snap.RedirectTo, http.StatusSeeOther)
		return
	}

	data := educationListData{
		Posts:      model.NewPostViews(snap.Items),
		LoadFailed: snap.State == view.StateFailed,
	}
	h.render(w, r, "education_list", "Education", data)
}

// Detail renders a single post. A missing id goes back to the list
// instead of a bare 404 page.
func (h *EducationHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctrl := view.New(h.repo, identity.PrivilegeViewer, h.logger, view.ForItem(id))
	ctrl.Mount(nil)
	defer ctrl.Unmount()
	ctrl.OnSession(r.Context(), middleware.GetSession(r))

	snap := ctrl.Snapshot()
	switch {
	case snap.RedirectTo != "":
		http.Redirect(w, r, snap.RedirectTo, http.StatusSeeOther)
	case snap.State == view.StateFailed && errors.Is(snap.Err, content.ErrNotFound):
		http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
	case snap.State == view.StateFailed:
		h.renderError(w, r, "The post could not be loaded.")
	default:
		pv := model.NewPostView(snap.Item)
		h.render(w, r, "education_detail", pv.Title, educationDetailData{Post: pv})
	}
}

// NewForm renders the empty post form.
func (h *EducationHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "education_form", "New post", educationFormData{Action: "/education/new"})
}

// Create publishes a new post.
func (h *EducationHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.parseFields(w, r, "/education/new")
	if !ok {
		return
	}

	if !h.readyForWrite(r) {
		h.renderFormError(w, r, fields, "/education/new", "Saving is unavailable right now. Try again in a minute.")
		return
	}
	if _, err := h.writes.CreateItem(r.Context(), fields); err != nil {
		h.renderFormError(w, r, fields, "/education/new", writeFailureMessage(err))
		return
	}

	h.renderer.SetFlash(r, "Post published.", "success")
	http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
}

// EditForm renders the form pre-filled with an existing post.
func (h *EducationHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctrl := view.New(h.repo, identity.PrivilegeAdmin, h.logger, view.ForItem(id))
	ctrl.Mount(nil)
	defer ctrl.Unmount()
	ctrl.OnSession(r.Context(), middleware.GetSession(r))

	snap := ctrl.Snapshot()
	switch {
	case snap.RedirectTo != "":
		http.Redirect(w, r, snap.RedirectTo, http.StatusSeeOther)
	case snap.State == view.StateFailed && errors.Is(snap.Err, content.ErrNotFound):
		http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
	case snap.State == view.StateFailed:
		h.renderError(w, r, "The post could not be loaded.")
	default:
		h.render(w, r, "education_form", "Edit post", educationFormData{
			Post:      snap.Item,
			TagsValue: strings.Join(snap.Item.Tags, ", "),
			Action:    "/education/" + id + "/edit",
		})
	}
}

// Update saves changes to an existing post. Leaving the cover input
// empty keeps the current image.
func (h *EducationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := "/education/" + id + "/edit"

	fields, ok := h.parseFields(w, r, action)
	if !ok {
		return
	}

	if !h.readyForWrite(r) {
		h.renderFormError(w, r, fields, action, "Saving is unavailable right now. Try again in a minute.")
		return
	}
	if _, err := h.writes.UpdateItem(r.Context(), id, fields); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			h.renderer.SetFlash(r, "That post no longer exists.", "error")
			http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
			return
		}
		h.renderFormError(w, r, fields, action, writeFailureMessage(err))
		return
	}

	h.renderer.SetFlash(r, "Post saved.", "success")
	http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
}

// Delete removes a post. Deleting an already-deleted post succeeds; a
// delete racing another write on the same post is refused.
func (h *EducationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.readyForWrite(r) {
		h.renderer.SetFlash(r, "Deleting is unavailable right now. Try again in a minute.", "error")
		http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
		return
	}
	if err := h.writes.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, view.ErrWriteInFlight) {
			h.renderer.SetFlash(r, "That post is still saving. Try again.", "error")
		} else {
			h.renderer.SetFlash(r, writeFailureMessage(err), "error")
		}
		http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
		return
	}

	h.renderer.SetFlash(r, "Post deleted.", "success")
	http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
}

// parseFields reads the multipart post form, including the optional
// cover image. On a bad upload it renders the form itself and reports
// false.
func (h *EducationHandler) parseFields(w http.ResponseWriter, r *http.Request, action string) (content.Fields, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverUploadBytes)
	if err := r.ParseMultipartForm(maxCoverUploadBytes); err != nil {
		h.renderFormError(w, r, content.Fields{}, action, "The upload was too large or malformed.")
		return content.Fields{}, false
	}

	fields := content.Fields{
		Title: strings.TrimSpace(r.FormValue("title")),
		Body:  r.FormValue("body"),
		Tags:  parseTags(r.FormValue("tags")),
	}

	img, err := parseCover(r, h.processor)
	if err != nil {
		h.logger.Warn("cover image rejected", "error", err)
		h.renderFormError(w, r, fields, action, "The cover image could not be read. Use a JPEG, PNG, GIF or WebP.")
		return content.Fields{}, false
	}
	fields.Image = img
	return fields, true
}

// readyForWrite drives the shared write controller to a writable state
// for the request's session.
func (h *EducationHandler) readyForWrite(r *http.Request) bool {
	h.feed.remember(middleware.GetAccessToken(r))
	h.writes.OnSession(r.Context(), middleware.GetSession(r))
	snap := h.writes.Snapshot()
	if snap.State == view.StateFailed {
		h.writes.Refresh(r.Context())
		snap = h.writes.Snapshot()
	}
	return snap.State == view.StateReady
}

func (h *EducationHandler) renderFormError(w http.ResponseWriter, r *http.Request, fields content.Fields, action, message string) {
	title := "Edit post"
	if strings.HasSuffix(action, "/new") {
		title = "New post"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.render(w, r, "education_form", title, educationFormData{
		Post: content.Item{
			Title: fields.Title,
			Body:  fields.Body,
		},
		TagsValue: strings.Join(fields.Tags, ", "),
		Action:    action,
		Error:     message,
	})
}

func (h *EducationHandler) renderError(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	h.render(w, r, "error", "Error", struct{ Message string }{Message: message})
}

func (h *EducationHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	logRenderError(h.logger, name, h.renderer.Render(w, r, name, render.TemplateData{
		Title:   title,
		Data:    data,
		Session: middleware.GetSession(r),
	}))
}
