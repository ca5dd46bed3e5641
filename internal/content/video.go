// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"fmt"
	"net/url"
	"strings"
)

// YouTubeID extracts the video id from a YouTube URL. It accepts the
// youtu.be short form and any youtube.com host carrying a ?v parameter.
func YouTubeID(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	switch {
	case u.Host == "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		return id, id != ""
	case strings.Contains(u.Host, "youtube"):
		id := u.Query().Get("v")
		return id, id != ""
	default:
		return "", false
	}
}

// Thumbnail qualities.
const (
	ThumbHQ = "hq"
	ThumbMQ = "mq"
	ThumbSD = "sd"
)

// YouTubeThumb returns the thumbnail URL for a video id. Unknown qualities
// fall back to hq.
func YouTubeThumb(id, quality string) string {
	name := "hqdefault"
	switch quality {
	case ThumbMQ:
		name = "mqdefault"
	case ThumbSD:
		name = "sddefault"
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", id, name)
}
