// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package remote defines the client surface of the hosted backend service
// that owns all durable state: identity, table rows, and blob storage.
// Everything above this package talks to these interfaces; the Supabase
// adapter is the only place that knows the wire details.
package remote

import (
	"context"
	"errors"
)

// Common errors for remote store operations.
var (
	// ErrNotFound indicates no row matched the requested id.
	ErrNotFound = errors.New("remote: not found")
	// ErrUnavailable indicates the remote service could not be reached.
	ErrUnavailable = errors.New("remote: store unavailable")
)

// User is the identity attached to an access token.
type User struct {
	ID    string
	Email string
}

// Identity exposes the authentication operations of the remote store.
// Sign-in is by emailed link only; there are no passwords anywhere in
// this system.
type Identity interface {
	// CurrentUser resolves the user for an access token. An empty token is
	// not an error: it returns a zero User and nil, because "nobody is
	// signed in" is a normal state.
	CurrentUser(ctx context.Context, accessToken string) (User, error)

	// SendLoginLink asks the identity service to email a one-time sign-in
	// link that lands on redirectTo after verification. The service only
	// honors targets on its registered redirect allow-list.
	SendLoginLink(ctx context.Context, email, redirectTo string) error

	// SignOut revokes the access token's session on the identity service.
	SignOut(ctx context.Context, accessToken string) error
}

// Order describes result ordering for Select.
type Order struct {
	Column    string
	Ascending bool
}

// Tables exposes row operations against named remote collections.
// dest arguments follow the ExecuteTo convention: a pointer to a slice
// for Select, a pointer to a struct for single-row operations.
type Tables interface {
	Select(ctx context.Context, collection string, order Order, dest any) error
	SelectByID(ctx context.Context, collection, id string, dest any) error
	Insert(ctx context.Context, collection string, row, dest any) error
	Update(ctx context.Context, collection, id string, row, dest any) error
	// Delete removes a row. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// Blobs exposes object storage. Upload returns the public URL of the
// stored object.
type Blobs interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Store bundles the full remote client surface.
type Store interface {
	Identity
	Tables
	Blobs
}
