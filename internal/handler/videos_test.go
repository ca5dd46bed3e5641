// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestCreateVideoNormalizesURL(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Node setup walkthrough",
		"url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, nil)
	rec := app.do(http.MethodPost, "/videos/new", ct, body, cookies)
	wantRedirect(t, rec, "/videos")

	items, err := app.videos.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing videos: %v (%d items)", err, len(items))
	}
	if items[0].Body != "dQw4w9WgXcQ" {
		t.Errorf("stored video id = %q, want dQw4w9WgXcQ", items[0].Body)
	}

	list := app.get("/videos", nil)
	if !strings.Contains(list.Body.String(), "youtube.com/embed/dQw4w9WgXcQ") {
		t.Error("list page missing the embed URL")
	}
}

func TestCreateVideoAcceptsShortURL(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Short link",
		"url":   "https://youtu.be/abc123XYZ_-",
	}, nil)
	rec := app.do(http.MethodPost, "/videos/new", ct, body, cookies)
	wantRedirect(t, rec, "/videos")

	items, err := app.videos.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing videos: %v (%d items)", err, len(items))
	}
	if items[0].Body != "abc123XYZ_-" {
		t.Errorf("stored video id = %q, want abc123XYZ_-", items[0].Body)
	}
}

func TestCreateVideoRejectsBadURL(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Not a video",
		"url":   "https://example.com/clip.mp4",
	}, nil)
	rec := app.do(http.MethodPost, "/videos/new", ct, body, cookies)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(rec.Body.String(), "YouTube") {
		t.Error("form error does not mention YouTube")
	}
	if got := app.fake.Count("videos"); got != 0 {
		t.Errorf("stored videos = %d, want 0", got)
	}
}

func TestVideoThumbnailFallback(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "No cover",
		"url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, nil)
	wantRedirect(t, app.do(http.MethodPost, "/videos/new", ct, body, cookies), "/videos")

	list := app.get("/videos", nil)
	if !strings.Contains(list.Body.String(), "img.youtube.com/vi/dQw4w9WgXcQ") {
		t.Error("list page missing the YouTube thumbnail fallback")
	}
}

func TestDeleteVideo(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Temp",
		"url":   "https://youtu.be/abc123XYZ_-",
	}, nil)
	wantRedirect(t, app.do(http.MethodPost, "/videos/new", ct, body, cookies), "/videos")

	items, err := app.videos.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing videos: %v (%d items)", err, len(items))
	}

	rec := app.postForm("/videos/"+items[0].ID+"/delete", nil, cookies)
	wantRedirect(t, rec, "/videos")
	if got := app.fake.Count("videos"); got != 0 {
		t.Errorf("stored videos = %d, want 0", got)
	}
}
