// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates no content item matches the requested id.
var ErrNotFound = errors.New("content: not found")

// ValidationError indicates a required field is missing or malformed.
// It is recoverable: the user corrects the input, no retry machinery needed.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("content: invalid %s: %s", e.Field, e.Reason)
}

// UploadError indicates the cover image upload failed. When it occurs
// during create, no record was inserted.
type UploadError struct {
	Err error
}

// Error implements error.
func (e *UploadError) Error() string {
	return fmt.Sprintf("content: image upload failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *UploadError) Unwrap() error { return e.Err }

// StoreError indicates a transport or query failure against the remote
// store. Callers render an empty state and surface the failure; it is not
// auto-retried.
type StoreError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *StoreError) Error() string {
	return fmt.Sprintf("content: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }
