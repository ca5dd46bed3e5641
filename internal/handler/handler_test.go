// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/nodezblockchain/nodez-go/internal/cache"
	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/imaging"
	"github.com/nodezblockchain/nodez-go/internal/remote"
	"github.com/nodezblockchain/nodez-go/internal/render"
	"github.com/nodezblockchain/nodez-go/internal/session"
	"github.com/nodezblockchain/nodez-go/internal/testutil"
	"github.com/nodezblockchain/nodez-go/web"
)

const adminEmail = "admin@nodez.test"

type testApp struct {
	t      *testing.T
	fake   *testutil.FakeRemote
	sm     *scs.SessionManager
	posts  *content.Repository
	videos *content.Repository
	router http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	sm := session.New(db, true)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub templates fs: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		SiteName:       "NodeZ",
	})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	fake := testutil.NewFakeRemote()
	resolver := identity.NewResolver(fake, []string{adminEmail}, logger)
	notifier := identity.NewNotifier()

	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = backend.Close() })
	cc := cache.NewContentCache(backend, time.Minute, logger)

	posts := content.NewPosts(fake)
	videos := content.NewVideos(fake)
	processor := imaging.NewProcessor()

	app := &App{
		Auth:           NewAuthHandler(fake, renderer, sm, notifier, "http://localhost:8080", logger),
		Education:      NewEducationHandler(posts, cc, renderer, processor, resolver, notifier, logger),
		Videos:         NewVideosHandler(videos, cc, renderer, processor, resolver, notifier, logger),
		Pages:          NewPagesHandler(renderer, logger),
		Health:         NewHealthHandler(db),
		SessionManager: sm,
		Resolver:       resolver,
	}

	return &testApp{
		t:      t,
		fake:   fake,
		sm:     sm,
		posts:  posts,
		videos: videos,
		router: app.Routes(),
	}
}

func (a *testApp) do(method, target, contentType string, body io.Reader, cookies []*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return a.do(http.MethodGet, target, "", nil, cookies)
}

func (a *testApp) postForm(target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, target, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), cookies)
}

// signInAdmin runs the token-exchange step of the magic-link flow and
// returns the session cookies of a signed-in admin.
func (a *testApp) signInAdmin() []*http.Cookie {
	a.t.Helper()
	a.fake.AddUser("tok-admin", remote.User{ID: "u-admin", Email: adminEmail})

	rec := a.postForm("/auth/session", url.Values{"access_token": {"tok-admin"}}, nil)
	if rec.Code != http.StatusSeeOther {
		a.t.Fatalf("sign-in status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		a.t.Fatal("sign-in set no session cookie")
	}
	return cookies
}

// multipartForm builds a multipart body with the given fields and an
// optional cover file.
func multipartForm(t *testing.T, fields map[string]string, cover []byte) (io.Reader, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if cover != nil {
		fw, err := mw.CreateFormFile("cover", "cover.jpg")
		if err != nil {
			t.Fatalf("creating file part: %v", err)
		}
		if _, err := fw.Write(cover); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

// testJPEG returns an encoded JPEG of the given size.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 96, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func wantRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}
