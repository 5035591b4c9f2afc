// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging turns uploaded images into article thumbnails: decoded
// from PNG or JPEG, downscaled to a maximum width, re-encoded as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
)

const (
	// MaxWidth is the widest thumbnail produced. Narrower images keep their size.
	MaxWidth = 800

	// Quality is the JPEG quality of generated thumbnails.
	Quality = 85

	// MaxPixels rejects decompression bombs before the full decode.
	MaxPixels = 40_000_000
)

// ErrUnsupported is returned for data that is not a PNG or JPEG image.
var ErrUnsupported = errors.New("unsupported image format")

// ContentType is the MIME type of every thumbnail.
const ContentType = "image/jpeg"

// Thumbnail decodes src and returns a JPEG no wider than maxWidth,
// preserving the aspect ratio. maxWidth <= 0 means MaxWidth.
func Thumbnail(src []byte, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = MaxWidth
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	}

	// JPEG has no alpha; paint onto white first.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
