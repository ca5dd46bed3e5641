// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler wires HTTP routes to the content repositories through
// per-request view controllers. Each request mounts a controller, feeds
// it the resolved session and renders from its snapshot, so the gate,
// fetch and write ordering rules live in one place instead of being
// re-implemented per route.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/imaging"
	"github.com/nodezblockchain/nodez-go/internal/view"
)

// maxCoverUploadBytes caps the multipart form size for cover uploads.
const maxCoverUploadBytes = 20 << 20

// parseTags splits a comma-separated tag field, preserving order and
// dropping empties.
func parseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseCrop reads the pixel bounds posted by the crop widget. All four
// fields must be present and parse for a crop to apply; a partial set is
// treated as no crop rather than an error.
func parseCrop(r *http.Request) *imaging.CropBounds {
	vals := make([]int, 4)
	for i, name := range []string{"crop_x", "crop_y", "crop_w", "crop_h"} {
		v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return nil
	}
	return &imaging.CropBounds{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
}

// parseCover extracts and processes an uploaded cover image. It returns
// (nil, nil) when the form has no file, so callers can treat the cover
// as optional.
func parseCover(r *http.Request, processor *imaging.Processor) (*content.ImageUpload, error) {
	file, header, err := r.FormFile("cover")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverUploadBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	processed, contentType, err := processor.PrepareCover(data, parseCrop(r))
	if err != nil {
		return nil, err
	}
	return &content.ImageUpload{
		Filename:    header.Filename,
		Data:        processed,
		ContentType: contentType,
	}, nil
}

// writeFailureMessage maps a repository error to the message shown on
// the form or flash. Validation problems name the field; everything
// else stays generic so store internals never leak into pages.
func writeFailureMessage(err error) string {
	var vErr *content.ValidationError
	if errors.As(err, &vErr) {
		return "Invalid " + vErr.Field + ": " + vErr.Reason + "."
	}
	var uErr *content.UploadError
	if errors.As(err, &uErr) {
		return "The cover image could not be uploaded. Try again."
	}
	if errors.Is(err, content.ErrNotFound) {
		return "That item no longer exists."
	}
	return "Saving failed. Try again in a minute."
}

// tokenFeed remembers the most recent admin access token so the
// identity watcher can re-resolve it when an auth event is published.
type tokenFeed struct {
	mu    sync.Mutex
	token string
}

func (f *tokenFeed) remember(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *tokenFeed) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// watchIdentity binds a long-lived write controller to identity
// events: whenever a sign-in or sign-out is published, the last admin
// token is re-resolved and the resulting session pushed into the
// controller. A sign-out therefore tears the write view back down
// without waiting for the next admin request.
func watchIdentity(ctrl *view.Controller, resolver *identity.Resolver, notifier *identity.Notifier, feed *tokenFeed) *identity.Watcher {
	w := identity.NewWatcher(resolver, notifier, feed.current, func(s identity.Session) {
		ctrl.OnSession(context.Background(), s)
	})
	w.Start(context.Background())
	return w
}

func logRenderError(logger *slog.Logger, name string, err error) {
	if err != nil {
		logger.Error("failed to render template", "template", name, "error", err)
	}
}
