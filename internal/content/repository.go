// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nodezblockchain/nodez-go/internal/remote"
	"github.com/nodezblockchain/nodez-go/internal/util"
)

// normalizer prepares collection-specific field values before a write.
type normalizer func(f *Fields) error

// Repository provides typed CRUD over one remote content collection.
type Repository struct {
	tables     remote.Tables
	blobs      remote.Blobs
	collection string
	normalize  normalizer
	now        func() time.Time
}

// NewPosts creates the repository for the posts collection. Post bodies are
// rich-text HTML emitted by the editor widget; they are sanitized with a
// UGC policy before every write.
func NewPosts(store remote.Store) *Repository {
	policy := bluemonday.UGCPolicy()
	return &Repository{
		tables:     store,
		blobs:      store,
		collection: CollectionPosts,
		normalize: func(f *Fields) error {
			f.Body = policy.Sanitize(f.Body)
			if strings.TrimSpace(f.Body) == "" {
				return &ValidationError{Field: "body", Reason: "empty after sanitization"}
			}
			return nil
		},
		now: time.Now,
	}
}

// NewVideos creates the repository for the videos collection. Video bodies
// arrive as YouTube URLs and are normalized to the bare video id; when no
// cover image is uploaded, the YouTube thumbnail becomes the cover.
func NewVideos(store remote.Store) *Repository {
	return &Repository{
		tables:     store,
		blobs:      store,
		collection: CollectionVideos,
		normalize: func(f *Fields) error {
			id, ok := YouTubeID(f.Body)
			if !ok {
				return &ValidationError{Field: "body", Reason: "not a recognizable YouTube URL"}
			}
			f.Body = id
			return nil
		},
		now: time.Now,
	}
}

// Collection returns the remote collection name this repository serves.
func (r *Repository) Collection() string {
	return r.collection
}

// List returns all items, newest first.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	var rows []row
	order := remote.Order{Column: "createdAt", Ascending: false}
	if err := r.tables.Select(ctx, r.collection, order, &rows); err != nil {
		return nil, &StoreError{Op: "listing " + r.collection, Err: err}
	}

	items := make([]Item, len(rows))
	for i, rw := range rows {
		items[i] = rw.item()
	}
	return items, nil
}

// Get returns a single item by id.
func (r *Repository) Get(ctx context.Context, id string) (Item, error) {
	var rw row
	if err := r.tables.SelectByID(ctx, r.collection, id, &rw); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return Item{}, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
		}
		return Item{}, &StoreError{Op: "getting " + r.collection + "/" + id, Err: err}
	}
	return rw.item(), nil
}

// Create validates fields, uploads the cover image if one is supplied, and
// inserts the record. The upload happens strictly before the insert: if it
// fails, no record is written, so there is never an orphan row referencing
// a missing image.
func (r *Repository) Create(ctx context.Context, f Fields) (Item, error) {
	if err := r.validate(&f); err != nil {
		return Item{}, err
	}

	imageURL := ""
	if f.Image != nil {
		url, err := r.uploadCover(ctx, f.Title, f.Image)
		if err != nil {
			return Item{}, &UploadError{Err: err}
		}
		imageURL = url
	} else if r.collection == CollectionVideos {
		imageURL = YouTubeThumb(f.Body, ThumbHQ)
	}

	newRow := row{
		ID:        uuid.NewString(),
		Title:     f.Title,
		Content:   f.Body,
		Image:     imageURL,
		Tags:      f.Tags,
		CreatedAt: r.now().UTC(),
	}

	var inserted row
	if err := r.tables.Insert(ctx, r.collection, newRow, &inserted); err != nil {
		return Item{}, &StoreError{Op: "creating " + r.collection + " record", Err: err}
	}
	return inserted.item(), nil
}

// Update validates fields and patches the record. When no new image is
// supplied the existing cover image is preserved: the image column is
// simply absent from the patch, never cleared as a side effect.
func (r *Repository) Update(ctx context.Context, id string, f Fields) (Item, error) {
	if err := r.validate(&f); err != nil {
		return Item{}, err
	}

	patch := map[string]any{
		"title":   f.Title,
		"content": f.Body,
		"tags":    f.Tags,
	}
	if f.Image != nil {
		url, err := r.uploadCover(ctx, f.Title, f.Image)
		if err != nil {
			return Item{}, &UploadError{Err: err}
		}
		patch["image"] = url
	}

	var updated row
	if err := r.tables.Update(ctx, r.collection, id, patch, &updated); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return Item{}, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
		}
		return Item{}, &StoreError{Op: "updating " + r.collection + "/" + id, Err: err}
	}
	return updated.item(), nil
}

// Delete removes a record. It is idempotent: deleting an id that no longer
// exists succeeds, which tolerates double-clicks from the UI.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.tables.Delete(ctx, r.collection, id); err != nil {
		return &StoreError{Op: "deleting " + r.collection + "/" + id, Err: err}
	}
	return nil
}

// validate enforces the shared field constraints, then applies the
// collection-specific normalization. Nothing here touches the network, so
// a validation failure can never leave a half-finished write behind.
func (r *Repository) validate(f *Fields) error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(f.Body) == "" {
		return &ValidationError{Field: "body", Reason: "required"}
	}
	return r.normalize(f)
}

// uploadCover stores a cover image and returns its public URL. Object
// paths are collection/uuid-slug.ext; the slug keeps paths readable, the
// uuid keeps them unique.
func (r *Repository) uploadCover(ctx context.Context, title string, img *ImageUpload) (string, error) {
	name, err := util.SanitizeFilename(img.Filename)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(name))
	slug := util.Slugify(title)
	if slug == "" {
		slug = "cover"
	}

	path := fmt.Sprintf("%s/%s-%s%s", r.collection, uuid.NewString(), slug, ext)
	return r.blobs.Upload(ctx, path, img.Data, img.ContentType)
}
