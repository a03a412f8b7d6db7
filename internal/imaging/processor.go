// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded cover and avatar images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/lumina/internal/util"
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 5 << 20

// Image MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Upload errors.
var (
	ErrTooLarge          = errors.New("image exceeds the upload limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Kind selects how an upload is resized and where it is stored.
type Kind string

// Upload kinds.
const (
	KindCover  Kind = "cover"
	KindAvatar Kind = "avatar"
)

// variant is the resize rule for a kind.
type variant struct {
	Width   int
	Height  int
	Crop    bool
	Quality int
}

var variants = map[Kind]variant{
	KindCover:  {Width: 1600, Height: 1600, Quality: 85},
	KindAvatar: {Width: 256, Height: 256, Crop: true, Quality: 90},
}

// ParseKind validates an upload kind from a URL.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(s))
	_, ok := variants[k]
	return k, ok
}

// Result describes a stored image.
type Result struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	FilePath string `json:"-"`
}

// Processor decodes, orients, resizes and stores uploads.
type Processor struct {
	uploadDir string
	urlPrefix string
}

// NewProcessor creates a processor writing below uploadDir. Stored files are
// served under urlPrefix.
func NewProcessor(uploadDir, urlPrefix string) *Processor {
	return &Processor{
		uploadDir: uploadDir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

// Process reads one uploaded image and stores the normalized result under
// <uploadDir>/<kind>/<uuid>/<name>.
func (p *Processor) Process(r io.Reader, kind Kind, filename string) (*Result, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, fmt.Errorf("unknown upload kind %q", kind)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	img = resize(img, v)

	// WebP has no pure Go encoder
	outFormat := format
	if outFormat == "webp" {
		outFormat = "jpeg"
	}

	processed, err := encodeImage(img, outFormat, v.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	id := uuid.NewString()
	name := storedName(filename, outFormat)
	filePath, err := p.saveImageFile(filepath.Join(string(kind), id), name, processed)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &Result{
		URL:      path.Join(p.urlPrefix, string(kind), id, name),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatToMimeType(outFormat),
		Size:     int64(len(processed)),
		FilePath: filePath,
	}, nil
}

// resize fits covers within the bounds without upscaling and crops avatars
// to an exact square from the center.
func resize(img image.Image, v variant) image.Image {
	if v.Crop {
		return imaging.Fill(img, v.Width, v.Height, imaging.Center, imaging.Lanczos)
	}
	b := img.Bounds()
	if b.Dx() <= v.Width && b.Dy() <= v.Height {
		return img
	}
	return imaging.Fit(img, v.Width, v.Height, imaging.Lanczos)
}

// storedName slugs the client filename and sets the extension of the
// stored format.
func storedName(filename, format string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	slug := util.Slugify(base)
	if slug == "" {
		slug = "image"
	}
	return slug + extensionFor(format)
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

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
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

func extensionFor(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
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

// saveImageFile creates the directory if needed and saves image data to a
// file inside uploadDir.
func (p *Processor) saveImageFile(subDir, filename string, data []byte) (string, error) {
	safeFilename, err := util.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	absTarget, err := util.SafeJoinPath(absBase, subDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(absTarget, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(absTarget, safeFilename)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filePath, nil
}
