// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestEducationListEmpty(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/education", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), "/edit") {
		t.Error("anonymous viewer sees admin affordances")
	}
}

func TestAdminRoutesRedirectViewers(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{"/education/new", "/videos/new"} {
		rec := app.get(target, nil)
		wantRedirect(t, rec, "/education")
	}
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Running a validator",
		"body":  "<p>Stake and wait.</p>",
		"tags":  "staking, validators",
	}, nil)
	rec := app.do(http.MethodPost, "/education/new", ct, body, cookies)
	wantRedirect(t, rec, "/education")

	if got := app.fake.Count("posts"); got != 1 {
		t.Fatalf("stored posts = %d, want 1", got)
	}

	list := app.get("/education", cookies)
	if !strings.Contains(list.Body.String(), "Running a validator") {
		t.Error("new post missing from the list")
	}
	if !strings.Contains(list.Body.String(), "/edit") {
		t.Error("admin list missing edit affordance")
	}
}

func TestCreatePostRequiresTitle(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "   ",
		"body":  "<p>no title</p>",
	}, nil)
	rec := app.do(http.MethodPost, "/education/new", ct, body, cookies)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if got := app.fake.Count("posts"); got != 0 {
		t.Errorf("stored posts = %d, want 0", got)
	}
}

func TestCreatePostWithCover(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Consensus explained",
		"body":  "<p>Votes.</p>",
	}, testJPEG(t, 640, 480))
	rec := app.do(http.MethodPost, "/education/new", ct, body, cookies)
	wantRedirect(t, rec, "/education")

	if len(app.fake.UploadedPaths) != 1 {
		t.Fatalf("uploaded paths = %v, want exactly one", app.fake.UploadedPaths)
	}
	items, err := app.posts.List(context.Background())
	if err != nil {
		t.Fatalf("listing posts: %v", err)
	}
	if len(items) != 1 || !strings.HasPrefix(items[0].CoverImage, "https://blob.test/") {
		t.Errorf("cover image = %+v, want blob URL", items)
	}
}

func TestUpdatePostKeepsCover(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Original",
		"body":  "<p>v1</p>",
	}, testJPEG(t, 320, 240))
	wantRedirect(t, app.do(http.MethodPost, "/education/new", ct, body, cookies), "/education")

	items, err := app.posts.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing posts: %v (%d items)", err, len(items))
	}
	id, cover := items[0].ID, items[0].CoverImage

	body, ct = multipartForm(t, map[string]string{
		"title": "Revised",
		"body":  "<p>v2</p>",
	}, nil)
	wantRedirect(t, app.do(http.MethodPost, "/education/"+id+"/edit", ct, body, cookies), "/education")

	got, err := app.posts.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("getting post: %v", err)
	}
	if got.Title != "Revised" {
		t.Errorf("Title = %q, want Revised", got.Title)
	}
	if got.CoverImage != cover {
		t.Errorf("CoverImage = %q, want preserved %q", got.CoverImage, cover)
	}
}

func TestDeletePostIdempotent(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Doomed",
		"body":  "<p>bye</p>",
	}, nil)
	wantRedirect(t, app.do(http.MethodPost, "/education/new", ct, body, cookies), "/education")

	items, err := app.posts.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing posts: %v (%d items)", err, len(items))
	}
	id := items[0].ID

	for i := 0; i < 2; i++ {
		rec := app.postForm("/education/"+id+"/delete", nil, cookies)
		wantRedirect(t, rec, "/education")
	}
	if got := app.fake.Count("posts"); got != 0 {
		t.Errorf("stored posts = %d, want 0", got)
	}
}

func TestDetailRendersPost(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Deep dive",
		"body":  "<p>All the details.</p>",
	}, nil)
	wantRedirect(t, app.do(http.MethodPost, "/education/new", ct, body, cookies), "/education")

	items, err := app.posts.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing posts: %v (%d items)", err, len(items))
	}

	rec := app.get("/education/"+items[0].ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "All the details.") {
		t.Error("detail page missing the post body")
	}
}

func TestDetailNotFoundRedirectsToList(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/education/no-such-id", nil)
	wantRedirect(t, rec, "/education")
}

func TestEditFormPrefilled(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signInAdmin()

	body, ct := multipartForm(t, map[string]string{
		"title": "Editable",
		"body":  "<p>text</p>",
		"tags":  "a, b",
	}, nil)
	wantRedirect(t, app.do(http.MethodPost, "/education/new", ct, body, cookies), "/education")

	items, err := app.posts.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("listing posts: %v (%d items)", err, len(items))
	}

	rec := app.get("/education/"+items[0].ID+"/edit", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := rec.Body.String()
	if !strings.Contains(got, `value="Editable"`) || !strings.Contains(got, "a, b") {
		t.Error("edit form is not prefilled")
	}
}
