package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/owningthelook/backend/internal/domain"
)

// Analysis outcomes reported to the observer
const (
	AnalysisOK          = "ok"
	AnalysisInvalid     = "invalid"
	AnalysisError       = "error"
	AnalysisUnavailable = "unconfigured"
)

// AnalysisService turns a photo into identified garments
type AnalysisService struct {
	classifier domain.VisionClassifier
	backend    string
	observer   domain.AnalysisObserver
}

// NewAnalysisService creates a new analysis service. observer may be nil.
func NewAnalysisService(
	classifier domain.VisionClassifier,
	backend string,
	observer domain.AnalysisObserver,
) *AnalysisService {
	return &AnalysisService{
		classifier: classifier,
		backend:    backend,
		observer:   observer,
	}
}

// Analyze classifies image, a data URL or bare base64 JPEG.
// Flow: strip prefix -> classify -> validate -> assign ids
func (s *AnalysisService) Analyze(ctx context.Context, image string) (*domain.AnalysisResult, error) {
	payload := domain.StripDataURL(strings.TrimSpace(image))
	if payload == "" {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidRequest)
	}

	result, err := s.classifier.Classify(ctx, payload)
	if err != nil {
		s.observe(outcomeFor(err))
		return nil, err
	}

	if err := validateAnalysis(result); err != nil {
		s.observe(AnalysisInvalid)
		return nil, err
	}

	assignItemIDs(result)
	s.observe(AnalysisOK)

	log.Printf("[Vision] Identified %q (%s) with %d more items",
		result.MainItem.Title, result.MainItem.Category, len(result.DetectedItems))
	return result, nil
}

// validateAnalysis requires a searchable main item
func validateAnalysis(result *domain.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("%w: empty result", domain.ErrInvalidAnalysis)
	}
	main := result.MainItem
	var missing []string
	if strings.TrimSpace(main.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(main.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(main.Query) == "" {
		missing = append(missing, "query")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: mainItem missing %s", domain.ErrInvalidAnalysis, strings.Join(missing, ", "))
	}
	if result.DetectedItems == nil {
		result.DetectedItems = []domain.FashionItem{}
	}
	return nil
}

// assignItemIDs overwrites whatever ids the model produced
func assignItemIDs(result *domain.AnalysisResult) {
	result.MainItem.ID = domain.MainItemID
	for i := range result.DetectedItems {
		result.DetectedItems[i].ID = domain.DetectedItemID(i)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrVisionNotConfigured):
		return AnalysisUnavailable
	case errors.Is(err, domain.ErrInvalidAnalysis):
		return AnalysisInvalid
	default:
		return AnalysisError
	}
}

func (s *AnalysisService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveAnalysis(s.backend, outcome)
	}
}
