// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

var csrfTestKey = []byte("0123456789abcdef0123456789abcdef")

func TestCSRFAllowsGET(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(csrfTestKey, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/education", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}
}

func TestCSRFBlocksCrossSitePOST(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(csrfTestKey, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("cross-site POST reached the handler")
	}))

	req := httptest.NewRequest(http.MethodPost, "/education/new", bytes.NewBufferString("title=x"))
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("cross-site POST status = %d, want 403", rec.Code)
	}
}

func TestCSRFAllowsSameOriginPOST(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(csrfTestKey, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/education/new", bytes.NewBufferString("title=x"))
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("same-origin POST status = %d, want 200", rec.Code)
	}
}
