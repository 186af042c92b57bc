package domain

import (
	"context"
	"image"
	"time"
)

// ProviderAdapter searches one affiliate network and normalizes its answer.
// A disabled adapter (no credentials) returns no matches without a network call.
type ProviderAdapter interface {
	Name() string
	Enabled() bool
	Search(ctx context.Context, query string) ([]ProductMatch, error)
}

// ProviderFetcher returns the raw JSON body a network answers for a query
type ProviderFetcher interface {
	Fetch(ctx context.Context, network, query string) ([]byte, error)
	Configured(network string) bool
}

// VisionClassifier decomposes a fashion photo into garments.
// The image is base64-encoded JPEG without a data URL prefix.
type VisionClassifier interface {
	Classify(ctx context.Context, imageBase64 string) (*AnalysisResult, error)
}

// RegionFunc picks the pixel region to keep once the natural size is known
type RegionFunc func(natural Size) (image.Rectangle, error)

// CroppedImage is an image ready for display and for classification
type CroppedImage struct {
	Natural  Size
	Data     []byte // display encoding, see MimeType
	MimeType string
	JPEG     []byte // same pixels as JPEG for the classifier; aliases Data when already JPEG
}

// ImageCropper rasterizes a pixel region of an encoded image
type ImageCropper interface {
	NaturalSize(src []byte) (Size, error)
	// Crop decodes src once and encodes the region it picks
	Crop(src []byte, region RegionFunc) (*CroppedImage, error)
	// Original keeps src for display and provides a JPEG of it
	Original(src []byte) (*CroppedImage, error)
}

// SearchObserver receives one report per provider search
type SearchObserver interface {
	ObserveProviderSearch(provider, outcome string, elapsed time.Duration)
}

// Provider search outcomes
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeDisabled = "disabled"
	OutcomePanic    = "panic"
)

// AnalysisObserver receives one report per classification
type AnalysisObserver interface {
	ObserveAnalysis(backend, outcome string)
}
