// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the view models rendered by templates. Each is
// an explicit mapping from a repository item, so a change in the store
// row shape stops at this boundary instead of rippling into templates.
package model

import (
	"html/template"
	"time"

	"github.com/nodezblockchain/nodez-go/internal/content"
)

// FallbackCover is shown when an item carries no cover image.
const FallbackCover = "/static/img/cover-fallback.svg"

// PostView is a post prepared for rendering.
type PostView struct {
	ID         string
	Title      string
	Body       template.HTML
	CoverImage string
	Tags       []string
	CreatedAt  time.Time
}

// PublishedOn formats the creation date for display.
func (p PostView) PublishedOn() string {
	return p.CreatedAt.Format("2 Jan 2006")
}

// Excerpt returns the first n runes of the body with tags stripped,
// for list cards.
func (p PostView) Excerpt(n int) string {
	plain := stripTags(string(p.Body))
	runes := []rune(plain)
	if len(runes) <= n {
		return plain
	}
	return string(runes[:n]) + "…"
}

// NewPostView maps one repository item. Post bodies are sanitized at
// write time, so marking them as trusted HTML here is safe.
func NewPostView(it content.Item) PostView {
	cover := it.CoverImage
	if cover == "" {
		cover = FallbackCover
	}
	return PostView{
		ID:         it.ID,
		Title:      it.Title,
		Body:       template.HTML(it.Body),
		CoverImage: cover,
		Tags:       it.Tags,
		CreatedAt:  it.CreatedAt,
	}
}

// NewPostViews maps a list, preserving order.
func NewPostViews(items []content.Item) []PostView {
	views := make([]PostView, len(items))
	for i, it := range items {
		views[i] = NewPostView(it)
	}
	return views
}

// stripTags removes HTML tags without parsing: good enough for
// excerpts of already-sanitized markup.
func stripTags(s string) string {
	out := make([]rune, 0, len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			out = append(out, r)
		}
	}
	return string(out)
}
