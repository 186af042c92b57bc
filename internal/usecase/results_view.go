package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/owningthelook/backend/internal/domain"
)

// MatchSearcher runs an aggregate search for one item
type MatchSearcher interface {
	Respond(ctx context.Context, item domain.FashionItem, broaden bool) *domain.MatchesResponse
}

// ResultsSnapshot is the client-facing state of the results screen
type ResultsSnapshot struct {
	ActiveItemID string                `json:"activeItemId"`
	Items        []domain.FashionItem  `json:"items"`
	Matches      []domain.ProductMatch `json:"matches"`
	Loading      bool                  `json:"loading"`
	Empty        bool                  `json:"empty"`
	Broadened    bool                  `json:"broadened"`
	DataSource   string                `json:"dataSource"`
	Query        string                `json:"query"`
	Guidance     string                `json:"guidance,omitempty"`
}

// ResultsView tracks the active item and its matches. Every search is tagged
// with the item id and a generation; a search that settles after the user
// moved on is dropped.
type ResultsView struct {
	mu       sync.Mutex
	searcher MatchSearcher
	analysis *domain.AnalysisResult

	activeID   string
	generation uint64
	loading    bool
	broadened  bool
	response   *domain.MatchesResponse
}

// NewResultsView creates a view over a completed analysis
func NewResultsView(searcher MatchSearcher, analysis *domain.AnalysisResult) *ResultsView {
	return &ResultsView{searcher: searcher, analysis: analysis}
}

// Select makes itemID active and starts its search. The returned channel is
// closed once that search settles, whether or not its result was kept.
func (v *ResultsView) Select(ctx context.Context, itemID string) (<-chan struct{}, error) {
	item, ok := v.analysis.FindItem(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown item %q", domain.ErrInvalidRequest, itemID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.activeID = itemID
	v.broadened = false
	return v.start(ctx, item, false), nil
}

// Broaden repeats the active item's search with its category as the query
func (v *ResultsView) Broaden(ctx context.Context) (<-chan struct{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.activeID == "" {
		return nil, fmt.Errorf("%w: no active item", domain.ErrInvalidTransition)
	}
	item, _ := v.analysis.FindItem(v.activeID)
	v.broadened = true
	return v.start(ctx, item, true), nil
}

// start must be called with mu held
func (v *ResultsView) start(ctx context.Context, item domain.FashionItem, broaden bool) <-chan struct{} {
	v.generation++
	gen := v.generation
	v.loading = true
	v.response = nil

	// In-flight searches are never cancelled, only ignored when stale
	searchCtx := context.WithoutCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		resp := v.searcher.Respond(searchCtx, item, broaden)

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.generation || item.ID != v.activeID {
			return
		}
		v.response = resp
		v.loading = false
	}()

	return done
}

// Snapshot returns a copy of the current state
func (v *ResultsView) Snapshot() ResultsSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := ResultsSnapshot{
		ActiveItemID: v.activeID,
		Items:        v.analysis.Items(),
		Matches:      []domain.ProductMatch{},
		Loading:      v.loading,
		Broadened:    v.broadened,
	}
	if v.response != nil {
		snap.Matches = append(snap.Matches, v.response.Matches...)
		snap.Empty = v.response.Empty
		snap.DataSource = v.response.DataSource
		snap.Query = v.response.Query
		snap.Guidance = v.response.Guidance
	}
	return snap
}
