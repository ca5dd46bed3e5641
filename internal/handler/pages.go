// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/nodezblockchain/nodez-go/internal/middleware"
	"github.com/nodezblockchain/nodez-go/internal/render"
)

// PagesHandler serves the static site pages: news and community.
type PagesHandler struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(renderer *render.Renderer, logger *slog.Logger) *PagesHandler {
	return &PagesHandler{renderer: renderer, logger: logger}
}

// socialLink is one external community channel.
type socialLink struct {
	Name string
	Href string
	Desc string
}

// communityLinks mirrors the channels the site advertises.
var communityLinks = []socialLink{
	{
		Name: "Instagram",
		Href: "https://www.instagram.com/node.z_?igsh=MThvaXJlc25jNjI5bg%3D%3D&utm_source=qr",
		Desc: "Daily stories and event highlights",
	},
	{
		Name: "Telegram",
		Href: "https://t.me/+yP-Qdy7ohLA0MzRl",
		Desc: "Community announcements and airdrop news",
	},
	{
		Name: "LINE",
		Href: "https://line.me/ti/g2/iJYYh0x-CJO2oLcCHMQOpJh1GNw--S5UtAmxDA?utm_source=invitation&utm_medium=link_copy&utm_campaign=default",
		Desc: "Campus discussion and Q&A",
	},
}

// News renders the news placeholder page.
func (h *PagesHandler) News(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "news", "News", nil)
}

// Community renders the community page with the social channel links.
func (h *PagesHandler) Community(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "community", "Community", struct{ Links []socialLink }{Links: communityLinks})
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	logRenderError(h.logger, name, h.renderer.Render(w, r, name, render.TemplateData{
		Title:   title,
		Data:    data,
		Session: middleware.GetSession(r),
	}))
}
