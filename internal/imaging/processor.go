// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging prepares uploaded cover images for blob storage:
// decode, EXIF auto-rotate, optional crop to the pixel bounds posted
// by the crop widget, downscale, JPEG encode. Everything stays in
// memory; the result goes straight to the remote bucket.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// CropBounds is the pixel rectangle emitted by the crop widget,
// relative to the image after EXIF orientation is applied.
type CropBounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Processor converts uploads into storage-ready cover images.
type Processor struct {
	quality  int
	maxWidth int
}

// NewProcessor returns a processor with the site defaults: JPEG
// quality 85, covers capped at 1600px wide.
func NewProcessor() *Processor {
	return &Processor{quality: 85, maxWidth: 1600}
}

// PrepareCover turns raw upload bytes into a JPEG cover. crop may be
// nil to keep the full frame. Returns the encoded bytes and the
// content type to store them under.
func (p *Processor) PrepareCover(data []byte, crop *CropBounds) ([]byte, string, error) {
	if detectFormat(data) == "" {
		return nil, "", fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	if crop != nil {
		img, err = cropTo(img, *crop)
		if err != nil {
			return nil, "", err
		}
	}

	if img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, "", fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// IsSupported reports whether the data looks like an image this
// processor accepts.
func (p *Processor) IsSupported(data []byte) bool {
	return detectFormat(data) != ""
}

// DetectMimeType detects the MIME type of image data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// cropTo crops img to the given pixel bounds, clamped to the frame.
// A rectangle entirely outside the frame is an error; the widget only
// produces those when the client submitted stale geometry.
func cropTo(img image.Image, b CropBounds) (image.Image, error) {
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("invalid crop bounds %dx%d", b.Width, b.Height)
	}
	rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop bounds outside image")
	}
	return imaging.Crop(img, rect), nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	}
	return ""
}
