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

// VideosHandler serves the videos pages.
type VideosHandler struct {
	repo      *content.Repository
	cache     *cache.ContentCache
	renderer  *render.Renderer
	processor *imaging.Processor
	logger    *slog.Logger

	writes *view.Controller
	feed   *tokenFeed
}

// NewVideosHandler creates a new VideosHandler.
func NewVideosHandler(repo *content.Repository, cc *cache.ContentCache, renderer *render.Renderer, processor *imaging.Processor, resolver *identity.Resolver, notifier *identity.Notifier, logger *slog.Logger) *VideosHandler {
	h := &VideosHandler{
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

type videosListData struct {
	Videos     []model.VideoView
	LoadFailed bool
}

type videoFormData struct {
	Video  content.Item
	Action string
	Error  string
}

// List renders the videos page, newest first.
func (h *VideosHandler) List(w http.ResponseWriter, r *http.Request) {
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

	data := videosListData{
		Videos:     model.NewVideoViews(snap.Items),
		LoadFailed: snap.State == view.StateFailed,
	}
	h.render(w, r, "videos_list", "Videos", data)
}

// NewForm renders the empty video form.
func (h *VideosHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "video_form", "New video", videoFormData{Action: "/videos/new"})
}

// Create publishes a new video from a YouTube URL. The URL is
// normalized to a media id by the repository; without an uploaded
// cover the YouTube thumbnail is used at render time.
func (h *VideosHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverUploadBytes)
	if err := r.ParseMultipartForm(maxCoverUploadBytes); err != nil {
		h.renderFormError(w, r, content.Fields{}, "The upload was too large or malformed.")
		return
	}

	fields := content.Fields{
		Title: strings.TrimSpace(r.FormValue("title")),
		Body:  strings.TrimSpace(r.FormValue("url")),
		Tags:  parseTags(r.FormValue("tags")),
	}

	img, err := parseCover(r, h.processor)
	if err != nil {
		h.logger.Warn("cover image rejected", "error", err)
		h.renderFormError(w, r, fields, "The cover image could not be read. Use a JPEG, PNG, GIF or WebP.")
		return
	}
	fields.Image = img

	if !h.readyForWrite(r) {
		h.renderFormError(w, r, fields, "Saving is unavailable right now. Try again in a minute.")
		return
	}
	if _, err := h.writes.CreateItem(r.Context(), fields); err != nil {
		msg := writeFailureMessage(err)
		var vErr *content.ValidationError
		if errors.As(err, &vErr) && vErr.Field == "body" {
			msg = "That does not look like a YouTube URL."
		}
		h.renderFormError(w, r, fields, msg)
		return
	}

	h.renderer.SetFlash(r, "Video published.", "success")
	http.Redirect(w, r, "/videos", http.StatusSeeOther)
}

// Delete removes a video; a missing id is success.
func (h *VideosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.readyForWrite(r) {
		h.renderer.SetFlash(r, "Deleting is unavailable right now. Try again in a minute.", "error")
		http.Redirect(w, r, "/videos", http.StatusSeeOther)
		return
	}
	if err := h.writes.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, view.ErrWriteInFlight) {
			h.renderer.SetFlash(r, "That video is still saving. Try again.", "error")
		} else {
			h.renderer.SetFlash(r, writeFailureMessage(err), "error")
		}
		http.Redirect(w, r, "/videos", http.StatusSeeOther)
		return
	}

	h.renderer.SetFlash(r, "Video deleted.", "success")
	http.Redirect(w, r, "/videos", http.StatusSeeOther)
}

func (h *VideosHandler) readyForWrite(r *http.Request) bool {
	h.feed.remember(middleware.GetAccessToken(r))
	h.writes.OnSession(r.Context(), middleware.GetSession(r))
	snap := h.writes.Snapshot()
	if snap.State == view.StateFailed {
		h.writes.Refresh(r.Context())
		snap = h.writes.Snapshot()
	}
	return snap.State == view.StateReady
}

func (h *VideosHandler) renderFormError(w http.ResponseWriter, r *http.Request, fields content.Fields, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.render(w, r, "video_form", "New video", videoFormData{
		Video:  content.Item{Title: fields.Title},
		Action: "/videos/new",
		Error:  message,
	})
}

func (h *VideosHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	logRenderError(h.logger, name, h.renderer.Render(w, r, name, render.TemplateData{
		Title:   title,
		Data:    data,
		Session: middleware.GetSession(r),
	}))
}
