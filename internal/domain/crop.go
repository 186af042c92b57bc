package domain

// MinCropSize is the smallest width or height of a crop rectangle, in percent
const MinCropSize = 5.0

// CropRect is a rectangle over an image, each field a percentage in [0,100]
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultCropRect is the rectangle a new editor starts with
func DefaultCropRect() CropRect {
	return CropRect{X: 25, Y: 25, Width: 50, Height: 45}
}

// Valid checks the rectangle invariants
func (r CropRect) Valid() bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.Width >= MinCropSize && r.Height >= MinCropSize &&
		r.X+r.Width <= 100 && r.Y+r.Height <= 100
}

// Point is a pointer position in container pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Handle identifies what part of the crop rectangle a gesture grabbed
type Handle string

// Crop handles
const (
	HandleMove        Handle = "move"
	HandleTop         Handle = "t"
	HandleBottom      Handle = "b"
	HandleLeft        Handle = "l"
	HandleRight       Handle = "r"
	HandleTopLeft     Handle = "tl"
	HandleTopRight    Handle = "tr"
	HandleBottomLeft  Handle = "bl"
	HandleBottomRight Handle = "br"
)

// GesturePhase is the stage of a pointer gesture
type GesturePhase string

// Gesture phases
const (
	GestureBegin  GesturePhase = "begin"
	GestureUpdate GesturePhase = "update"
	GestureEnd    GesturePhase = "end"
)

// GestureRequest carries one pointer event for the crop editor
type GestureRequest struct {
	Phase           GesturePhase `json:"phase" binding:"required,oneof=begin update end"`
	Handle          Handle       `json:"handle"`
	X               float64      `json:"x"`
	Y               float64      `json:"y"`
	ContainerWidth  float64      `json:"containerWidth"`
	ContainerHeight float64      `json:"containerHeight"`
}

// CropRequest asks for a stateless crop of an image
type CropRequest struct {
	Image string   `json:"image" binding:"required"`
	Rect  CropRect `json:"rect"`
}
