// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nodezblockchain/nodez-go/internal/remote"
)

// FakeRemote is an in-memory implementation of remote.Store for tests.
// Rows are kept as JSON objects so the fake stays schema-agnostic, the
// same way PostgREST sees them. All methods are safe for concurrent use.
type FakeRemote struct {
	mu sync.Mutex

	tables map[string]map[string]map[string]any
	blobs  map[string][]byte

	// usersByToken maps access tokens to identities.
	usersByToken map[string]remote.User

	// SentLinks records the addresses SendLoginLink was called with;
	// SentRedirects records the matching redirect targets.
	SentLinks     []string
	SentRedirects []string

	// Failure injection. When set, the matching operations fail with the
	// given error.
	TablesErr   error
	UploadErr   error
	IdentityErr error

	// UploadedPaths records blob paths in upload order.
	UploadedPaths []string
}

// NewFakeRemote creates an empty fake remote store.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		tables:       make(map[string]map[string]map[string]any),
		blobs:        make(map[string][]byte),
		usersByToken: make(map[string]remote.User),
	}
}

// AddUser registers an identity for an access token.
func (f *FakeRemote) AddUser(token string, user remote.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usersByToken[token] = user
}

// CurrentUser implements remote.Identity.
func (f *FakeRemote) CurrentUser(_ context.Context, accessToken string) (remote.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.IdentityErr != nil {
		return remote.User{}, f.IdentityErr
	}
	if accessToken == "" {
		return remote.User{}, nil
	}
	return f.usersByToken[accessToken], nil
}

// SendLoginLink implements remote.Identity.
func (f *FakeRemote) SendLoginLink(_ context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.IdentityErr != nil {
		return f.IdentityErr
	}
	f.SentLinks = append(f.SentLinks, email)
	f.SentRedirects = append(f.SentRedirects, redirectTo)
	return nil
}

// SignOut implements remote.Identity.
func (f *FakeRemote) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.IdentityErr != nil {
		return f.IdentityErr
	}
	delete(f.usersByToken, accessToken)
	return nil
}

// Select implements remote.Tables.
func (f *FakeRemote) Select(_ context.Context, collection string, order remote.Order, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TablesErr != nil {
		return f.TablesErr
	}

	rows := make([]map[string]any, 0, len(f.tables[collection]))
	for _, row := range f.tables[collection] {
		rows = append(rows, row)
	}

	if order.Column != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			a := fmt.Sprintf("%v", rows[i][order.Column])
			b := fmt.Sprintf("%v", rows[j][order.Column])
			if order.Ascending {
				return a < b
			}
			return a > b
		})
	}

	return reencode(rows, dest)
}

// SelectByID implements remote.Tables.
func (f *FakeRemote) SelectByID(_ context.Context, collection, id string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TablesErr != nil {
		return f.TablesErr
	}

	row, ok := f.tables[collection][id]
	if !ok {
		return fmt.Errorf("selecting %s/%s: %w", collection, id, remote.ErrNotFound)
	}
	return reencode(row, dest)
}

// Insert implements remote.Tables.
func (f *FakeRemote) Insert(_ context.Context, collection string, row, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TablesErr != nil {
		return f.TablesErr
	}

	var m map[string]any
	if err := reencode(row, &m); err != nil {
		return err
	}
	id, _ := m["id"].(string)
	if id == "" {
		return fmt.Errorf("inserting into %s: row has no id", collection)
	}

	if f.tables[collection] == nil {
		f.tables[collection] = make(map[string]map[string]any)
	}
	f.tables[collection][id] = m
	return reencode(m, dest)
}

// Update implements remote.Tables. Only the fields present in row are
// changed, matching PostgREST PATCH semantics.
func (f *FakeRemote) Update(_ context.Context, collection, id string, row, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TablesErr != nil {
		return f.TablesErr
	}

	stored, ok := f.tables[collection][id]
	if !ok {
		return fmt.Errorf("updating %s/%s: %w", collection, id, remote.ErrNotFound)
	}

	var patch map[string]any
	if err := reencode(row, &patch); err != nil {
		return err
	}
	for k, v := range patch {
		stored[k] = v
	}
	return reencode(stored, dest)
}

// Delete implements remote.Tables. Absent ids succeed.
func (f *FakeRemote) Delete(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TablesErr != nil {
		return f.TablesErr
	}
	delete(f.tables[collection], id)
	return nil
}

// Upload implements remote.Blobs.
func (f *FakeRemote) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return "", f.UploadErr
	}
	f.blobs[path] = append([]byte(nil), data...)
	f.UploadedPaths = append(f.UploadedPaths, path)
	return "https://blob.test/" + path, nil
}

// Count returns the number of rows in a collection.
func (f *FakeRemote) Count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[collection])
}

// Row returns a stored row by id, or nil if absent.
func (f *FakeRemote) Row(collection, id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.tables[collection][id]
	if !ok {
		return nil
	}
	copied := make(map[string]any, len(row))
	for k, v := range row {
		copied[k] = v
	}
	return copied
}

// reencode copies src into dest through JSON, the same shape translation
// the real client performs.
func reencode(src, dest any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Compile-time check that FakeRemote implements remote.Store.
var _ remote.Store = (*FakeRemote)(nil)
