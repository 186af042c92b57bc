// Package raster decodes, crops and encodes the images that flow through the
// crop editor.
package raster

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/owningthelook/backend/internal/domain"
)

// Output formats
const (
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// DefaultQuality matches a 0.95 canvas export
const DefaultQuality = 95

// Cropper crops encoded images and re-encodes the result
type Cropper struct {
	format  string
	quality int
}

// NewCropper creates a cropper writing the given format ("jpeg" or "webp")
func NewCropper(format string, quality int) *Cropper {
	if format != FormatWebP {
		format = FormatJPEG
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Cropper{format: format, quality: quality}
}

// Format returns the output format
func (c *Cropper) Format() string {
	return c.format
}

// MimeType returns the MIME type of the output format
func (c *Cropper) MimeType() string {
	if c.format == FormatWebP {
		return "image/webp"
	}
	return "image/jpeg"
}

// NaturalSize decodes src and returns its pixel dimensions
func (c *Cropper) NaturalSize(src []byte) (domain.Size, error) {
	img, err := Decode(src)
	if err != nil {
		return domain.Size{}, err
	}
	return sizeOf(img), nil
}

// Crop decodes src once, asks region for the pixels to keep and rasterizes
// exactly that region into a new image of the region's size. The region is
// relative to the image's top-left corner.
func (c *Cropper) Crop(src []byte, region domain.RegionFunc) (*domain.CroppedImage, error) {
	img, err := Decode(src)
	if err != nil {
		return nil, err
	}

	natural := sizeOf(img)
	r, err := region(natural)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	rect := r.Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: %v outside %v", domain.ErrDegenerateCrop, r, b)
	}

	cropped := imaging.Crop(img, rect)
	data, err := Encode(cropped, c.format, c.quality)
	if err != nil {
		return nil, err
	}

	out := &domain.CroppedImage{Natural: natural, Data: data, MimeType: c.MimeType(), JPEG: data}
	if c.format != FormatJPEG {
		if out.JPEG, err = Encode(cropped, FormatJPEG, c.quality); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Original leaves src untouched for display. A JPEG source is reused as the
// classifier payload; anything else is re-encoded.
func (c *Cropper) Original(src []byte) (*domain.CroppedImage, error) {
	detected := mimetype.Detect(src)
	out := &domain.CroppedImage{Data: src, MimeType: detected.String(), JPEG: src}

	if detected.Is(domain.JPEGMimeType) {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
		if err != nil {
			return nil, domain.ErrUnsupportedImage
		}
		out.Natural = domain.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}
		return out, nil
	}

	img, err := Decode(src)
	if err != nil {
		return nil, err
	}
	out.Natural = sizeOf(img)
	if out.JPEG, err = Encode(img, FormatJPEG, c.quality); err != nil {
		return nil, err
	}
	return out, nil
}

func sizeOf(img image.Image) domain.Size {
	b := img.Bounds()
	return domain.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Decode decodes any registered format, honouring EXIF orientation, and falls
// back to WebP.
func Decode(src []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(src)); err == nil {
		return img, nil
	}

	return nil, domain.ErrUnsupportedImage
}

// Encode writes img as JPEG or WebP
func Encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("failed to encode webp: %w", err)
		}
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}
