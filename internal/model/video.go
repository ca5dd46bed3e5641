// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"github.com/nodezblockchain/nodez-go/internal/content"
)

// VideoView is a video prepared for rendering. The repository stores
// the bare YouTube id in the body; the embed and thumbnail URLs are
// derived here.
type VideoView struct {
	ID         string
	Title      string
	VideoID    string
	EmbedURL   string
	CoverImage string
	Tags       []string
	CreatedAt  time.Time
}

// PublishedOn formats the creation date for display.
func (v VideoView) PublishedOn() string {
	return v.CreatedAt.Format("2 Jan 2006")
}

// NewVideoView maps one repository item. When no cover was uploaded
// the YouTube thumbnail stands in.
func NewVideoView(it content.Item) VideoView {
	cover := it.CoverImage
	if cover == "" {
		cover = content.YouTubeThumb(it.Body, content.ThumbHQ)
	}
	return VideoView{
		ID:         it.ID,
		Title:      it.Title,
		VideoID:    it.Body,
		EmbedURL:   "https://www.youtube.com/embed/" + it.Body,
		CoverImage: cover,
		Tags:       it.Tags,
		CreatedAt:  it.CreatedAt,
	}
}

// NewVideoViews maps a list, preserving order.
func NewVideoViews(items []content.Item) []VideoView {
	views := make([]VideoView, len(items))
	for i, it := range items {
		views[i] = NewVideoView(it)
	}
	return views
}
