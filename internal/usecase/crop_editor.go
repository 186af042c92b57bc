package usecase

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/owningthelook/backend/internal/domain"
)

// gestureKind is the active manipulation of the crop rectangle
type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureMove
	gestureResize
)

// CropEditor maintains a percentage-space crop rectangle and applies pointer
// gestures to it. Every update clamps, so the rectangle is valid at all times,
// including mid-drag.
type CropEditor struct {
	rect domain.CropRect

	kind     gestureKind
	handle   domain.Handle
	start    domain.Point
	snapshot domain.CropRect
}

// NewCropEditor creates an editor with the default centered rectangle
func NewCropEditor() *CropEditor {
	return &CropEditor{rect: domain.DefaultCropRect()}
}

// Rect returns the current rectangle
func (e *CropEditor) Rect() domain.CropRect {
	return e.rect
}

// Active reports whether a gesture is in progress
func (e *CropEditor) Active() bool {
	return e.kind != gestureNone
}

// Reset restores the default rectangle and drops any active gesture
func (e *CropEditor) Reset() {
	e.rect = domain.DefaultCropRect()
	e.kind = gestureNone
	e.handle = ""
}

// BeginGesture records the pointer position and a snapshot of the rectangle.
// "move" (or an empty handle) translates the rectangle; anything else resizes
// along whichever of the t/b/l/r edges the handle names.
func (e *CropEditor) BeginGesture(handle domain.Handle, pointer domain.Point) {
	e.start = pointer
	e.snapshot = e.rect
	e.handle = handle
	if handle == "" || handle == domain.HandleMove {
		e.kind = gestureMove
		return
	}
	e.kind = gestureResize
}

// UpdateGesture applies the pointer delta since BeginGesture. The delta is
// converted to percentages of the container size.
func (e *CropEditor) UpdateGesture(pointer domain.Point, container domain.Size) {
	if e.kind == gestureNone {
		return
	}
	if container.Width <= 0 || container.Height <= 0 {
		return
	}

	dx := (pointer.X - e.start.X) / container.Width * 100
	dy := (pointer.Y - e.start.Y) / container.Height * 100
	s := e.snapshot
	next := e.rect

	if e.kind == gestureMove {
		next.X = clamp(s.X+dx, 0, 100-s.Width)
		next.Y = clamp(s.Y+dy, 0, 100-s.Height)
		e.rect = next
		return
	}

	h := string(e.handle)

	// Top edge or corners
	if strings.Contains(h, "t") {
		newY := clamp(s.Y+dy, 0, s.Y+s.Height-domain.MinCropSize)
		next.Height = s.Height + (s.Y - newY)
		next.Y = newY
	}
	// Bottom edge or corners
	if strings.Contains(h, "b") {
		next.Height = clamp(s.Height+dy, domain.MinCropSize, 100-s.Y)
	}
	// Left edge or corners
	if strings.Contains(h, "l") {
		newX := clamp(s.X+dx, 0, s.X+s.Width-domain.MinCropSize)
		next.Width = s.Width + (s.X - newX)
		next.X = newX
	}
	// Right edge or corners
	if strings.Contains(h, "r") {
		next.Width = clamp(s.Width+dx, domain.MinCropSize, 100-s.X)
	}

	e.rect = next
}

// EndGesture finishes the active gesture. The last computed rectangle is final.
func (e *CropEditor) EndGesture() {
	e.kind = gestureNone
	e.handle = ""
}

// PixelRegion maps the rectangle onto an image of the given natural size
func (e *CropEditor) PixelRegion(natural domain.Size) image.Rectangle {
	return PixelRegion(e.rect, natural)
}

// Confirm rasterizes the selected region of src and returns the encoded crop
func (e *CropEditor) Confirm(src []byte, cropper domain.ImageCropper) (*domain.CroppedImage, error) {
	return ConfirmCrop(e.rect, src, cropper)
}

// PixelRegion maps a percentage rectangle to absolute pixel coordinates
func PixelRegion(rect domain.CropRect, natural domain.Size) image.Rectangle {
	sx := int(math.Round(rect.X / 100 * natural.Width))
	sy := int(math.Round(rect.Y / 100 * natural.Height))
	sw := int(math.Round(rect.Width / 100 * natural.Width))
	sh := int(math.Round(rect.Height / 100 * natural.Height))
	return image.Rect(sx, sy, sx+sw, sy+sh)
}

// ConfirmCrop crops src to rect once the cropper has decoded it and knows
// its natural size
func ConfirmCrop(rect domain.CropRect, src []byte, cropper domain.ImageCropper) (*domain.CroppedImage, error) {
	return cropper.Crop(src, func(natural domain.Size) (image.Rectangle, error) {
		region := PixelRegion(rect, natural)
		if region.Dx() <= 0 || region.Dy() <= 0 {
			return image.Rectangle{}, fmt.Errorf("%w: %v of %.0fx%.0f", domain.ErrDegenerateCrop, region, natural.Width, natural.Height)
		}
		return region, nil
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
