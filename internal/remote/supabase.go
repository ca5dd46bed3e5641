// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// Config holds Supabase connection configuration.
type Config struct {
	URL    string
	APIKey string
	// Bucket is the public storage bucket for cover images.
	Bucket string
}

// Supabase implements the Store interface against a Supabase project.
type Supabase struct {
	client     *supabase.Client
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bucket     string
}

// NewSupabase creates a Supabase-backed remote store client.
func NewSupabase(cfg Config) (*Supabase, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}

	return &Supabase{
		client:     client,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		bucket:     cfg.Bucket,
	}, nil
}

// CurrentUser implements Identity.
func (s *Supabase) CurrentUser(_ context.Context, accessToken string) (User, error) {
	if accessToken == "" {
		return User{}, nil
	}

	resp, err := s.client.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		if isUnreachable(err) {
			return User{}, fmt.Errorf("resolving user: %w", ErrUnavailable)
		}
		// An expired or revoked token means nobody is signed in, which is a
		// normal result, not a failure.
		return User{}, nil
	}

	return User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// SendLoginLink implements Identity. gotrue-go does not expose the
// redirect_to query parameter of the OTP endpoint, so this one call
// goes straight to the GoTrue REST API.
func (s *Supabase) SendLoginLink(ctx context.Context, email, redirectTo string) error {
	body, err := json.Marshal(map[string]any{
		"email":       email,
		"create_user": true,
	})
	if err != nil {
		return fmt.Errorf("sending login link: %w", err)
	}

	endpoint := s.baseURL + "/auth/v1/otp"
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sending login link: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isUnreachable(err) {
			return fmt.Errorf("sending login link: %w", ErrUnavailable)
		}
		return fmt.Errorf("sending login link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sending login link: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// SignOut implements Identity.
func (s *Supabase) SignOut(_ context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.client.Auth.WithToken(accessToken).Logout(); err != nil {
		if isUnreachable(err) {
			return fmt.Errorf("signing out: %w", ErrUnavailable)
		}
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

// Select implements Tables.
func (s *Supabase) Select(_ context.Context, collection string, order Order, dest any) error {
	q := s.client.From(collection).Select("*", "", false)
	if order.Column != "" {
		q = q.Order(order.Column, &postgrest.OrderOpts{Ascending: order.Ascending})
	}
	if _, err := q.ExecuteTo(dest); err != nil {
		return wrapStoreErr("selecting from "+collection, err)
	}
	return nil
}

// SelectByID implements Tables. dest must be a pointer to a struct; the
// query runs without Single() so that the zero-row case maps cleanly to
// ErrNotFound instead of a provider-specific error string.
func (s *Supabase) SelectByID(_ context.Context, collection, id string, dest any) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer || destVal.IsNil() {
		return fmt.Errorf("selecting %s/%s: dest must be a non-nil pointer", collection, id)
	}

	sliceType := reflect.SliceOf(destVal.Elem().Type())
	rows := reflect.New(sliceType)

	_, err := s.client.From(collection).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(rows.Interface())
	if err != nil {
		return wrapStoreErr(fmt.Sprintf("selecting %s/%s", collection, id), err)
	}

	if rows.Elem().Len() == 0 {
		return fmt.Errorf("selecting %s/%s: %w", collection, id, ErrNotFound)
	}
	destVal.Elem().Set(rows.Elem().Index(0))
	return nil
}

// Insert implements Tables.
func (s *Supabase) Insert(_ context.Context, collection string, row, dest any) error {
	rows, err := singleRowDest(dest)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", collection, err)
	}

	_, err = s.client.From(collection).
		Insert(row, false, "", "representation", "").
		ExecuteTo(rows.Interface())
	if err != nil {
		return wrapStoreErr("inserting into "+collection, err)
	}
	return assignSingleRow(dest, rows, "inserting into "+collection)
}

// Update implements Tables.
func (s *Supabase) Update(_ context.Context, collection, id string, row, dest any) error {
	rows, err := singleRowDest(dest)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	_, err = s.client.From(collection).
		Update(row, "representation", "").
		Eq("id", id).
		ExecuteTo(rows.Interface())
	if err != nil {
		return wrapStoreErr(fmt.Sprintf("updating %s/%s", collection, id), err)
	}
	if rows.Elem().Len() == 0 {
		return fmt.Errorf("updating %s/%s: %w", collection, id, ErrNotFound)
	}
	return assignSingleRow(dest, rows, fmt.Sprintf("updating %s/%s", collection, id))
}

// Delete implements Tables. Deleting an id that does not exist succeeds:
// PostgREST deletes zero rows without complaint, which is exactly the
// idempotency the callers rely on.
func (s *Supabase) Delete(_ context.Context, collection, id string) error {
	_, _, err := s.client.From(collection).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return wrapStoreErr(fmt.Sprintf("deleting %s/%s", collection, id), err)
	}
	return nil
}

// Upload implements Blobs.
func (s *Supabase) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.Storage.UploadFile(s.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		if isUnreachable(err) {
			return "", fmt.Errorf("uploading %s: %w", path, ErrUnavailable)
		}
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}

	public := s.client.Storage.GetPublicUrl(s.bucket, path)
	return public.SignedURL, nil
}

// singleRowDest builds a *[]T destination for a single-row write returning
// "representation", where dest is *T.
func singleRowDest(dest any) (reflect.Value, error) {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer || destVal.IsNil() {
		return reflect.Value{}, fmt.Errorf("dest must be a non-nil pointer")
	}
	return reflect.New(reflect.SliceOf(destVal.Elem().Type())), nil
}

func assignSingleRow(dest any, rows reflect.Value, op string) error {
	if rows.Elem().Len() == 0 {
		return fmt.Errorf("%s: no row returned", op)
	}
	reflect.ValueOf(dest).Elem().Set(rows.Elem().Index(0))
	return nil
}

func wrapStoreErr(op string, err error) error {
	if isUnreachable(err) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUnreachable reports whether err looks like a transport failure rather
// than a service-level rejection.
func isUnreachable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "timeout")
}

// Compile-time check that Supabase implements Store.
var _ Store = (*Supabase)(nil)
