// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content implements the typed CRUD repository over the remote
// content collections (posts and videos). The repository holds no cache
// and no local state: the remote store owns every durable record, and the
// view layer treats its copies as stale after any write here.
package content

import (
	"time"
)

// Collection names in the remote store.
const (
	CollectionPosts  = "posts"
	CollectionVideos = "videos"
)

// Item represents one post or one video.
type Item struct {
	// ID is opaque, assigned at creation, immutable thereafter.
	ID    string
	Title string
	// Body is collection-specific: sanitized rich-text HTML for posts, a
	// normalized YouTube video id for videos.
	Body string
	// CoverImage is a public URL; empty means consumers substitute the
	// fallback image rather than fail.
	CoverImage string
	// Tags preserve insertion order; order is display order only.
	Tags []string
	// CreatedAt is the sole sort key for list views (descending).
	CreatedAt time.Time
}

// row is the wire shape of a content record, matching the remote table
// columns. It stays private so the table schema never leaks into view code.
type row struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// item converts a wire row to an Item.
func (r row) item() Item {
	return Item{
		ID:         r.ID,
		Title:      r.Title,
		Body:       r.Content,
		CoverImage: r.Image,
		Tags:       r.Tags,
		CreatedAt:  r.CreatedAt,
	}
}

// Fields holds the writable attributes for create and update.
type Fields struct {
	Title string
	Body  string
	Tags  []string
	// Image, when set, is a new binary cover image to upload. When nil on
	// update, the existing cover image is preserved unchanged.
	Image *ImageUpload
}

// ImageUpload is a processed binary image ready for blob storage.
type ImageUpload struct {
	Filename    string
	Data        []byte
	ContentType string
}
