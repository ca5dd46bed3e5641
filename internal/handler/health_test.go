// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestLiveness(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestReadiness(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/healthz/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" || body["db_latency"] == nil {
		t.Errorf("body = %v, want ok with db_latency", body)
	}
}

func TestHomeRedirectsToContent(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/", nil)
	wantRedirect(t, rec, "/education")
}
