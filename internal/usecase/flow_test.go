package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owningthelook/backend/internal/domain"
)

// blockingAnalyzer waits on release before answering
type blockingAnalyzer struct {
	started  chan struct{}
	release  chan struct{}
	result   *domain.AnalysisResult
	err      error
	received string
}

func newBlockingAnalyzer(result *domain.AnalysisResult, err error) *blockingAnalyzer {
	return &blockingAnalyzer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		result:  result,
		err:     err,
	}
}

func (b *blockingAnalyzer) Analyze(ctx context.Context, image string) (*domain.AnalysisResult, error) {
	b.received = image
	b.started <- struct{}{}
	<-b.release
	return b.result, b.err
}

// instantAnalyzer answers immediately
type instantAnalyzer struct {
	result   *domain.AnalysisResult
	err      error
	received string
}

func (i *instantAnalyzer) Analyze(ctx context.Context, image string) (*domain.AnalysisResult, error) {
	i.received = image
	return i.result, i.err
}

var photo = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("photo-bytes"))

func newTestSession(analyzer Analyzer) (*Session, *fakeCropper) {
	cropper := &fakeCropper{size: domain.Size{Width: 1000, Height: 800}}
	return NewSession("s-1", cropper, analyzer, newGatedSearcher()), cropper
}

func TestSession_HappyPath(t *testing.T) {
	analyzer := &instantAnalyzer{result: viewAnalysis()}
	s, cropper := newTestSession(analyzer)
	assert.Equal(t, StateLanding, s.State())

	require.NoError(t, s.SelectImage(photo))
	assert.Equal(t, StateCrop, s.State())
	assert.Equal(t, domain.DefaultCropRect(), *s.Snapshot().Crop)

	require.NoError(t, s.BeginGesture(domain.HandleMove, domain.Point{X: 0, Y: 0}))
	require.NoError(t, s.UpdateGesture(domain.Point{X: 100, Y: 80}, domain.Size{Width: 1000, Height: 800}))
	require.NoError(t, s.EndGesture())
	assert.Equal(t, domain.CropRect{X: 35, Y: 35, Width: 50, Height: 45}, *s.Snapshot().Crop)

	done, err := s.Confirm(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, done)
	waitFor(t, done)

	assert.True(t, cropper.called)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("cropped")), analyzer.received)

	snap := s.Snapshot()
	assert.Equal(t, StateResults, snap.State)
	assert.Nil(t, snap.Crop)
	require.NotNil(t, snap.Results)
	assert.Equal(t, "main", snap.Results.ActiveItemID)
	assert.Len(t, snap.Results.Matches, 1)
	assert.Equal(t, analyzer.received, snap.Image)
}

func TestSession_SkipPassesOriginalThrough(t *testing.T) {
	analyzer := &instantAnalyzer{result: viewAnalysis()}
	s, cropper := newTestSession(analyzer)
	require.NoError(t, s.SelectImage(photo))

	done, err := s.Confirm(context.Background(), true)
	require.NoError(t, err)
	waitFor(t, done)

	assert.False(t, cropper.called)
	assert.Equal(t, 1, cropper.original)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("jpeg-of-original")), analyzer.received)
	assert.Equal(t, photo, s.Snapshot().Image)
}

func TestSession_AnalysisFailureReturnsToLanding(t *testing.T) {
	s, _ := newTestSession(&instantAnalyzer{err: domain.ErrVisionFailure})
	require.NoError(t, s.SelectImage(photo))

	done, err := s.Confirm(context.Background(), true)

	require.NoError(t, err)
	assert.Nil(t, done)
	snap := s.Snapshot()
	assert.Equal(t, StateLanding, snap.State)
	assert.Equal(t, AnalysisFailedNotice, snap.Notice)

	// Selecting a new image clears the notice
	require.NoError(t, s.SelectImage(photo))
	assert.Empty(t, s.Snapshot().Notice)
}

func TestSession_ResetDuringAnalysisDiscardsOutcome(t *testing.T) {
	analyzer := newBlockingAnalyzer(viewAnalysis(), nil)
	s, _ := newTestSession(analyzer)
	require.NoError(t, s.SelectImage(photo))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background(), true)
		errc <- err
	}()

	<-analyzer.started
	assert.Equal(t, StateAnalyzing, s.State())
	s.Reset()
	close(analyzer.release)

	err := <-errc
	assert.ErrorIs(t, err, ErrAnalysisSuperseded)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	snap := s.Snapshot()
	assert.Equal(t, StateLanding, snap.State)
	assert.Nil(t, snap.Results)
	assert.Empty(t, snap.Notice)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s, _ := newTestSession(&instantAnalyzer{result: viewAnalysis()})

	assert.ErrorIs(t, s.BeginGesture(domain.HandleMove, domain.Point{}), domain.ErrInvalidTransition)
	_, err := s.Confirm(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = s.SelectItem(context.Background(), "main")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = s.Broaden(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Refine(), domain.ErrInvalidTransition)

	require.NoError(t, s.SelectImage(photo))
	assert.ErrorIs(t, s.SelectImage(photo), domain.ErrInvalidTransition)
}

func TestSession_SelectImageRejectsBadInput(t *testing.T) {
	s, cropper := newTestSession(&instantAnalyzer{})

	assert.ErrorIs(t, s.SelectImage(""), domain.ErrInvalidRequest)
	assert.ErrorIs(t, s.SelectImage("data:image/png;base64,%%%"), domain.ErrUnsupportedImage)

	cropper.sizeErr = domain.ErrUnsupportedImage
	assert.ErrorIs(t, s.SelectImage(photo), domain.ErrUnsupportedImage)
	assert.Equal(t, StateLanding, s.State())
}

func TestSession_SelectItemAndBroaden(t *testing.T) {
	s, _ := newTestSession(&instantAnalyzer{result: viewAnalysis()})
	require.NoError(t, s.SelectImage(photo))
	done, err := s.Confirm(context.Background(), true)
	require.NoError(t, err)
	waitFor(t, done)

	done, err = s.SelectItem(context.Background(), "det-0")
	require.NoError(t, err)
	waitFor(t, done)
	assert.Equal(t, "jeans B", s.Snapshot().Results.Query)

	done, err = s.Broaden(context.Background())
	require.NoError(t, err)
	waitFor(t, done)
	results := s.Snapshot().Results
	assert.True(t, results.Broadened)
	assert.Equal(t, "Bottoms", results.Query)
}

func TestSession_RefineReturnsToCrop(t *testing.T) {
	s, _ := newTestSession(&instantAnalyzer{result: viewAnalysis()})
	require.NoError(t, s.SelectImage(photo))
	require.NoError(t, s.BeginGesture(domain.HandleMove, domain.Point{}))
	require.NoError(t, s.UpdateGesture(domain.Point{X: 50, Y: 0}, domain.Size{Width: 1000, Height: 800}))
	done, err := s.Confirm(context.Background(), false)
	require.NoError(t, err)
	waitFor(t, done)

	require.NoError(t, s.Refine())

	snap := s.Snapshot()
	assert.Equal(t, StateCrop, snap.State)
	assert.Equal(t, domain.DefaultCropRect(), *snap.Crop)
	assert.Nil(t, snap.Results)

	// the original photo is still there to crop again
	done, err = s.Confirm(context.Background(), true)
	require.NoError(t, err)
	waitFor(t, done)
}

func TestSession_CropErrorStaysOnCrop(t *testing.T) {
	s, cropper := newTestSession(&instantAnalyzer{result: viewAnalysis()})
	require.NoError(t, s.SelectImage(photo))

	cropper.sizeErr = errors.New("decode failed")
	_, err := s.Confirm(context.Background(), false)

	assert.Error(t, err)
	assert.Equal(t, StateCrop, s.State())
}

// gatedCropper blocks inside Crop until release is closed
type gatedCropper struct {
	fakeCropper
	started chan struct{}
	release chan struct{}
}

func (g *gatedCropper) Crop(src []byte, region domain.RegionFunc) (*domain.CroppedImage, error) {
	g.started <- struct{}{}
	<-g.release
	return g.fakeCropper.Crop(src, region)
}

func TestSession_CropRunsWithoutLock(t *testing.T) {
	cropper := &gatedCropper{
		fakeCropper: fakeCropper{size: domain.Size{Width: 1000, Height: 800}},
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	analyzer := &instantAnalyzer{result: viewAnalysis()}
	s := NewSession("s-1", cropper, analyzer, newGatedSearcher())
	require.NoError(t, s.SelectImage(photo))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background(), false)
		errc <- err
	}()

	<-cropper.started
	snap := s.Snapshot()
	assert.Equal(t, StateAnalyzing, snap.State)
	assert.Empty(t, snap.Image)
	assert.ErrorIs(t, s.BeginGesture(domain.HandleMove, domain.Point{}), domain.ErrInvalidTransition)

	s.Reset()
	close(cropper.release)

	assert.ErrorIs(t, <-errc, ErrAnalysisSuperseded)
	assert.Empty(t, analyzer.received)
	assert.Equal(t, StateLanding, s.State())
}

func TestSession_CropDecodesOnce(t *testing.T) {
	analyzer := &instantAnalyzer{result: viewAnalysis()}
	s, cropper := newTestSession(analyzer)
	require.NoError(t, s.SelectImage(photo))

	done, err := s.Confirm(context.Background(), false)
	require.NoError(t, err)
	waitFor(t, done)

	assert.Equal(t, 1, cropper.decodes)
}
