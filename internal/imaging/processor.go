// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging prepares featured images for product submissions.
// Images are normalized before upload: EXIF orientation is applied,
// oversized images are scaled down, and the result is re-encoded so
// camera metadata never leaves the machine.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Featured image bounds. Anything larger is scaled down to fit while
// keeping aspect ratio; smaller images pass through at native size.
const (
	MaxWidth  = 1600
	MaxHeight = 1200

	// jpegQuality applies to re-encoded JPEG output.
	jpegQuality = 85
)

// MIME types accepted for featured images.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Featured is a normalized image ready to attach to a product form.
type Featured struct {
	Name     string
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// PrepareFeatured reads an image, applies EXIF orientation, scales it
// into the featured bounds and re-encodes it. WebP input is re-encoded
// as JPEG since pure Go has no WebP encoder.
func PrepareFeatured(reader io.Reader, filename string) (*Featured, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format for %q", filename)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth || bounds.Dy() > MaxHeight {
		img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
		bounds = img.Bounds()
	}

	if format == "webp" {
		format = "jpeg"
		filename = replaceExt(filename, ".jpg")
	}

	encoded, err := encodeImage(img, format)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	return &Featured{
		Name:     filepath.Base(filename),
		Data:     encoded,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatToMimeType(format),
	}, nil
}

// IsSupportedType checks if a MIME type is accepted for featured images.
func IsSupportedType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	}
	return false
}

// DetectMimeType detects the MIME type of image data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "image/jpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
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

// encodeImage encodes an image to bytes in the given format.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
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
	default:
		return ""
	}
}

// formatToMimeType converts format string to MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return MimeTypeJPEG
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	case "webp":
		return MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}

// replaceExt swaps the filename extension.
func replaceExt(filename, ext string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
