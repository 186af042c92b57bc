package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/owningthelook/backend/internal/domain"
)

// FlowState is a screen of the photo-to-products flow
type FlowState string

const (
	StateLanding   FlowState = "landing"
	StateCrop      FlowState = "crop"
	StateAnalyzing FlowState = "analyzing"
	StateResults   FlowState = "results"
)

// AnalysisFailedNotice is shown on the landing screen after a failed analysis
const AnalysisFailedNotice = "Something went wrong analyzing the image. Please try again."

// ErrAnalysisSuperseded is returned when a reset overtook a running analysis
var ErrAnalysisSuperseded = fmt.Errorf("%w: analysis superseded by reset", domain.ErrInvalidTransition)

// Analyzer classifies an image, given as a data URL or bare base64
type Analyzer interface {
	Analyze(ctx context.Context, image string) (*domain.AnalysisResult, error)
}

// SessionSnapshot is the client-facing state of a session
type SessionSnapshot struct {
	ID       string                 `json:"id"`
	State    FlowState              `json:"state"`
	Notice   string                 `json:"notice,omitempty"`
	Crop     *domain.CropRect       `json:"crop,omitempty"`
	Image    string                 `json:"image,omitempty"`
	Analysis *domain.AnalysisResult `json:"analysis,omitempty"`
	Results  *ResultsSnapshot       `json:"results,omitempty"`
}

// Session drives one user through landing -> crop -> analyzing -> results.
// Reset returns to landing from any state.
type Session struct {
	mu sync.Mutex

	id       string
	cropper  domain.ImageCropper
	analyzer Analyzer
	searcher MatchSearcher

	state    FlowState
	epoch    uint64
	notice   string
	source   []byte
	analyzed string // JPEG sent to the classifier
	display  string // crop in the configured output format
	editor   *CropEditor
	analysis *domain.AnalysisResult
	results  *ResultsView
}

// NewSession creates a session on the landing screen
func NewSession(id string, cropper domain.ImageCropper, analyzer Analyzer, searcher MatchSearcher) *Session {
	return &Session{
		id:       id,
		cropper:  cropper,
		analyzer: analyzer,
		searcher: searcher,
		state:    StateLanding,
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// State returns the current screen
func (s *Session) State() FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectImage loads a photo and opens the crop screen
func (s *Session) SelectImage(image string) error {
	data, err := domain.DecodeDataURL(image)
	if err != nil {
		return err
	}
	if _, err := s.cropper.NaturalSize(data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLanding {
		return fmt.Errorf("%w: cannot select an image from %s", domain.ErrInvalidTransition, s.state)
	}

	s.source = data
	s.editor = NewCropEditor()
	s.notice = ""
	s.state = StateCrop
	return nil
}

// BeginGesture starts a crop gesture
func (s *Session) BeginGesture(handle domain.Handle, pointer domain.Point) error {
	return s.withEditor(func(e *CropEditor) { e.BeginGesture(handle, pointer) })
}

// UpdateGesture moves the pointer of the active gesture
func (s *Session) UpdateGesture(pointer domain.Point, container domain.Size) error {
	return s.withEditor(func(e *CropEditor) { e.UpdateGesture(pointer, container) })
}

// EndGesture finishes the active gesture
func (s *Session) EndGesture() error {
	return s.withEditor(func(e *CropEditor) { e.EndGesture() })
}

func (s *Session) withEditor(fn func(e *CropEditor)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCrop {
		return fmt.Errorf("%w: crop gestures need the crop screen, not %s", domain.ErrInvalidTransition, s.state)
	}
	fn(s.editor)
	return nil
}

// Confirm crops the photo (or passes it through with skip) and classifies it.
// On success the session moves to results and the main item's search starts;
// the returned channel closes when that search settles. A failed analysis
// returns the session to landing with a notice and is not an error.
func (s *Session) Confirm(ctx context.Context, skip bool) (<-chan struct{}, error) {
	s.mu.Lock()
	if s.state != StateCrop {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot confirm from %s", domain.ErrInvalidTransition, state)
	}
	src := s.source
	rect := s.editor.Rect()
	s.state = StateAnalyzing
	epoch := s.epoch
	s.mu.Unlock()

	var (
		out *domain.CroppedImage
		err error
	)
	if skip {
		out, err = s.cropper.Original(src)
	} else {
		out, err = ConfirmCrop(rect, src, s.cropper)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		log.Printf("[Session] %s: discarding crop after reset", s.id)
		return nil, ErrAnalysisSuperseded
	}
	if err != nil {
		s.state = StateCrop
		s.mu.Unlock()
		return nil, err
	}
	s.display = domain.EncodeDataURL(out.MimeType, out.Data)
	s.analyzed = domain.EncodeDataURL(domain.JPEGMimeType, out.JPEG)
	image := s.analyzed
	s.mu.Unlock()

	result, err := s.analyzer.Analyze(ctx, image)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		log.Printf("[Session] %s: discarding analysis after reset", s.id)
		return nil, ErrAnalysisSuperseded
	}

	if err != nil {
		log.Printf("[Session] %s: analysis failed: %v", s.id, err)
		s.clear()
		s.notice = AnalysisFailedNotice
		return nil, nil
	}

	s.analysis = result
	s.results = NewResultsView(s.searcher, result)
	s.state = StateResults
	return s.results.Select(ctx, domain.MainItemID)
}

// SelectItem switches the results screen to another detected item
func (s *Session) SelectItem(ctx context.Context, itemID string) (<-chan struct{}, error) {
	results, err := s.resultsView()
	if err != nil {
		return nil, err
	}
	return results.Select(ctx, itemID)
}

// Broaden repeats the active item's search by category
func (s *Session) Broaden(ctx context.Context) (<-chan struct{}, error) {
	results, err := s.resultsView()
	if err != nil {
		return nil, err
	}
	return results.Broaden(ctx)
}

func (s *Session) resultsView() (*ResultsView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResults {
		return nil, fmt.Errorf("%w: no results in %s", domain.ErrInvalidTransition, s.state)
	}
	return s.results, nil
}

// Refine returns from results to the crop screen with the original photo
func (s *Session) Refine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResults {
		return fmt.Errorf("%w: cannot refine from %s", domain.ErrInvalidTransition, s.state)
	}

	s.epoch++
	s.editor.Reset()
	s.analyzed = ""
	s.display = ""
	s.analysis = nil
	s.results = nil
	s.state = StateCrop
	return nil
}

// Reset returns to landing from any state, superseding a running analysis
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.clear()
	s.notice = ""
}

// clear must be called with mu held
func (s *Session) clear() {
	s.state = StateLanding
	s.source = nil
	s.analyzed = ""
	s.display = ""
	s.editor = nil
	s.analysis = nil
	s.results = nil
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{ID: s.id, State: s.state, Notice: s.notice}
	if s.editor != nil && s.state == StateCrop {
		rect := s.editor.Rect()
		snap.Crop = &rect
	}
	if s.state == StateAnalyzing || s.state == StateResults {
		snap.Image = s.display
	}
	if s.results != nil {
		snap.Analysis = s.analysis
		results := s.results.Snapshot()
		snap.Results = &results
	}
	return snap
}
