// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedCacheRoundTrip(t *testing.T) {
	backend := newTestMemoryCache()
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[testPayload](backend, time.Minute)
	ctx := context.Background()

	want := testPayload{Name: "posts", Count: 3}
	if err := c.Set(ctx, "k", &want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if *got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	if _, ok := c.Get(ctx, "absent"); ok {
		t.Error("Get() hit for absent key")
	}
}

func TestTypedCacheCorruptEntryIsMiss(t *testing.T) {
	backend := newTestMemoryCache()
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[testPayload](backend, time.Minute)
	ctx := context.Background()

	_ = backend.Set(ctx, "k", []byte("{not json"), 0)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("corrupt entry decoded as hit")
	}
}

func TestTypedCacheGetOrSet(t *testing.T) {
	backend := newTestMemoryCache()
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[testPayload](backend, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func() (*testPayload, error) {
		calls++
		return &testPayload{Name: "computed"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrSet(ctx, "k", compute)
		if err != nil {
			t.Fatalf("GetOrSet() error = %v", err)
		}
		if got.Name != "computed" {
			t.Errorf("GetOrSet() = %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	wantErr := errors.New("boom")
	if _, err := c.GetOrSet(ctx, "other", func() (*testPayload, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet() error = %v, want %v", err, wantErr)
	}
}
