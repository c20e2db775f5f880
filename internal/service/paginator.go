package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"souqly/internal/model"
	"souqly/internal/session"
)

// FeedStore is the remote surface FeedPaginator needs. FeedService
// satisfies it; tests substitute mocks.
type FeedStore interface {
	ListPage(ctx context.Context, offset, limit int) (*model.ProductPage, error)
	Search(ctx context.Context, query string) (*model.SearchResult, error)
	LikedIDs(ctx context.Context, viewerID int64) ([]int64, error)
}

// LoadingState distinguishes the three in-flight indicators a feed
// screen renders. They are separate states, not one boolean: a refresh
// with content on screen must not show the full-screen loader.
type LoadingState struct {
	Initial     bool
	LoadingMore bool
	Refreshing  bool
}

// FeedPaginator manages one screen instance of the incrementally
// loaded, client-filtered home feed. It starts paginated, switches to
// unpaginated search mode when a query is present, and filters by
// listing type purely on the client.
//
// Overlapping async operations are resolved with a per-instance
// generation counter: FetchFirstPage, Refresh and Close each bump it,
// and a response is committed only if its generation is still current.
// A stale search response or a load-more racing a refresh is dropped
// instead of overwriting newer state.
type FeedPaginator struct {
	session *session.Context
	store   FeedStore

	initialPageSize int
	pageIncrement   int

	mu              sync.Mutex
	generation      uint64
	closed          bool
	items           []model.Product
	total           int
	hasMore         bool
	searchMode      bool
	query           string
	filter          string
	categoryMatches map[int64]int
	liked           map[int64]bool
	loading         LoadingState
}

// NewFeedPaginator creates the state holder for one feed screen.
// initialPageSize and pageIncrement are independent: the first page may
// be larger or smaller than subsequent increments.
func NewFeedPaginator(sess *session.Context, store FeedStore, initialPageSize, pageIncrement int) *FeedPaginator {
	if initialPageSize <= 0 {
		initialPageSize = 10
	}
	if pageIncrement <= 0 {
		pageIncrement = 10
	}
	return &FeedPaginator{
		session:         sess,
		store:           store,
		initialPageSize: initialPageSize,
		pageIncrement:   pageIncrement,
		hasMore:         true,
		filter:          model.FilterAll,
	}
}

// FetchFirstPage loads the first page, replacing any current items.
// A non-empty query switches to search mode: one unpaginated fetch of
// matching listings plus per-category match counts, hasMore forced
// false. An empty query fetches the first initialPageSize listings and
// the total count.
func (p *FeedPaginator) FetchFirstPage(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.loading.Initial = len(p.items) == 0
	p.query = query
	p.mu.Unlock()

	err := p.loadFirst(ctx, gen, query)

	p.mu.Lock()
	p.loading.Initial = false
	p.mu.Unlock()
	return err
}

// FetchNextPage appends the next pageIncrement listings.
//
// It is a hard no-op - no request is issued - when the feed is in
// search mode, when there is nothing more to load, when a listing-type
// sub-filter is active (the next page may not satisfy the filter, so
// offering "load more" would misrepresent the end of the list), or
// when a previous load-more is still in flight.
func (p *FeedPaginator) FetchNextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || p.searchMode || !p.hasMore || p.filter != model.FilterAll || p.loading.LoadingMore {
		p.mu.Unlock()
		return nil
	}
	gen := p.generation
	offset := len(p.items)
	p.loading.LoadingMore = true
	p.mu.Unlock()

	page, err := p.store.ListPage(ctx, offset, p.pageIncrement)

	p.mu.Lock()
	defer p.mu.Unlock()
	// The flag belongs to this request, so clear it even when the
	// response itself is stale. Leaving it set would make the in-flight
	// guard above a permanent no-op.
	p.loading.LoadingMore = false
	if gen != p.generation {
		// A refresh or new query superseded this response; drop it.
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch next page: %w", err)
	}

	p.items = append(p.items, p.annotateLocked(page.Products)...)
	p.total = page.Total
	p.hasMore = page.Total > len(p.items)
	return nil
}

// Refresh discards all accumulated state, resets the type filter to
// All, re-fetches the viewer's liked set (it is keyed off the viewer,
// not the feed) and reloads the first page. Used by pull-to-refresh.
func (p *FeedPaginator) Refresh(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.items = nil
	p.total = 0
	p.hasMore = true
	p.filter = model.FilterAll
	p.loading.Refreshing = true
	p.query = query
	p.mu.Unlock()

	if viewerID, ok := p.session.UserID(); ok {
		if ids, err := p.store.LikedIDs(ctx, viewerID); err == nil {
			liked := make(map[int64]bool, len(ids))
			for _, id := range ids {
				liked[id] = true
			}
			p.mu.Lock()
			if gen == p.generation {
				p.liked = liked
			}
			p.mu.Unlock()
		}
	}

	err := p.loadFirst(ctx, gen, query)

	p.mu.Lock()
	p.loading.Refreshing = false
	p.mu.Unlock()
	return err
}

// loadFirst performs the first-page or search fetch for a given
// generation and commits the result only if that generation is still
// current.
func (p *FeedPaginator) loadFirst(ctx context.Context, gen uint64, query string) error {
	if query != "" {
		result, err := p.store.Search(ctx, query)

		p.mu.Lock()
		defer p.mu.Unlock()
		if gen != p.generation || p.closed {
			return nil
		}
		if err != nil {
			return fmt.Errorf("search %q: %w", query, err)
		}
		p.items = p.annotateLocked(result.Products)
		p.total = len(result.Products)
		p.searchMode = true
		p.hasMore = false
		p.categoryMatches = result.CategoryMatches
		return nil
	}

	page, err := p.store.ListPage(ctx, 0, p.initialPageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.closed {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch first page: %w", err)
	}
	p.items = p.annotateLocked(page.Products)
	p.total = page.Total
	p.searchMode = false
	p.hasMore = page.Total > len(p.items)
	p.categoryMatches = nil
	return nil
}

// SetTypeFilter selects the active listing-type filter. Purely a view
// concern: the accumulated items are never mutated and no fetch is
// triggered.
func (p *FeedPaginator) SetTypeFilter(filter string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = filter
}

// Visible returns the items the screen should render: the accumulated
// items passed through the active type filter.
func (p *FeedPaginator) Visible() []model.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return FilterByType(p.items, p.filter)
}

// Items returns a copy of all accumulated items, unfiltered.
func (p *FeedPaginator) Items() []model.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Product, len(p.items))
	copy(out, p.items)
	return out
}

// HasMore reports whether a "load more" affordance should be offered.
// Always false in search mode and under a sub-filter.
func (p *FeedPaginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore && !p.searchMode && p.filter == model.FilterAll
}

// SearchMode reports whether the feed is showing search results.
func (p *FeedPaginator) SearchMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searchMode
}

// CategoryMatches returns the per-category match counts from the last
// search, nil outside search mode. Categories absent from the map have
// zero matches and are hidden.
func (p *FeedPaginator) CategoryMatches() map[int64]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.categoryMatches
}

// Loading returns the current in-flight indicator states.
func (p *FeedPaginator) Loading() LoadingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Close detaches the paginator from its screen. Any in-flight response
// is dropped instead of committed.
func (p *FeedPaginator) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.generation++
}

func (p *FeedPaginator) annotateLocked(products []model.Product) []model.Product {
	if p.liked == nil {
		return products
	}
	for i := range products {
		products[i].IsLiked = p.liked[products[i].ID]
	}
	return products
}

// FilterByType is the pure type filter: FilterAll is the identity,
// otherwise only items whose listing type matches, case-insensitively,
// are returned. The input is never mutated.
func FilterByType(items []model.Product, filter string) []model.Product {
	if filter == "" || filter == model.FilterAll {
		out := make([]model.Product, len(items))
		copy(out, items)
		return out
	}

	out := make([]model.Product, 0, len(items))
	for _, item := range items {
		if strings.EqualFold(item.ListingType, filter) {
			out = append(out, item)
		}
	}
	return out
}
