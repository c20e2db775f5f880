package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"souqly/internal/model"
	"souqly/internal/session"
)

// =============================================================================
// MOCK FOLLOW STORE
// =============================================================================

type mockFollowStore struct {
	mu sync.Mutex

	followFn       func(ctx context.Context, followerID, followingID int64) error
	unfollowFn     func(ctx context.Context, followerID, followingID int64) error
	getFollowersFn func(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error)
	getFollowingFn func(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error)

	followCalls   int
	unfollowCalls int
	loadCalls     int
}

func (m *mockFollowStore) Follow(ctx context.Context, followerID, followingID int64) error {
	m.mu.Lock()
	m.followCalls++
	m.mu.Unlock()
	if m.followFn != nil {
		return m.followFn(ctx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowStore) Unfollow(ctx context.Context, followerID, followingID int64) error {
	m.mu.Lock()
	m.unfollowCalls++
	m.mu.Unlock()
	if m.unfollowFn != nil {
		return m.unfollowFn(ctx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowStore) GetFollowers(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, targetID, viewerID)
	}
	return &model.FollowListResponse{Users: []model.FollowView{}}, nil
}

func (m *mockFollowStore) GetFollowing(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, targetID, viewerID)
	}
	return &model.FollowListResponse{Users: []model.FollowView{}}, nil
}

func followViews(rows ...model.FollowView) *model.FollowListResponse {
	return &model.FollowListResponse{Users: rows, Total: len(rows)}
}

func view(id int64, follows bool) model.FollowView {
	return model.FollowView{
		UserSummary:   model.UserSummary{ID: id},
		ViewerFollows: follows,
	}
}

func loggedInGraph(t *testing.T, viewerID int64, store *mockFollowStore, rows ...model.FollowView) *FollowGraph {
	t.Helper()
	sess := session.NewContext()
	sess.SetUser(viewerID)
	store.getFollowersFn = func(ctx context.Context, targetID int64, vID *int64) (*model.FollowListResponse, error) {
		return followViews(rows...), nil
	}
	g := NewFollowGraph(sess, store)
	if err := g.LoadFollowers(context.Background(), 100); err != nil {
		t.Fatalf("load: %v", err)
	}
	return g
}

// =============================================================================
// TOGGLE TESTS
// =============================================================================

func TestFollowGraph_Toggle_RequiresSession(t *testing.T) {
	g := NewFollowGraph(session.NewContext(), &mockFollowStore{})

	err := g.Toggle(context.Background(), 2)

	if !errors.Is(err, model.ErrAuthRequired) {
		t.Errorf("error = %v, want %v", err, model.ErrAuthRequired)
	}
}

func TestFollowGraph_Toggle_SelfIsNoop(t *testing.T) {
	store := &mockFollowStore{}
	g := loggedInGraph(t, 1, store, view(1, false))

	if err := g.Toggle(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.followCalls != 0 || store.unfollowCalls != 0 {
		t.Error("self toggle must not reach the store")
	}
}

func TestFollowGraph_Toggle_UnknownTarget(t *testing.T) {
	store := &mockFollowStore{}
	g := loggedInGraph(t, 1, store, view(2, false))

	err := g.Toggle(context.Background(), 42)

	if !errors.Is(err, model.ErrInvalidReference) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidReference)
	}
}

func TestFollowGraph_Toggle_FollowThenUnfollow(t *testing.T) {
	store := &mockFollowStore{}
	g := loggedInGraph(t, 1, store, view(2, false))

	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !g.Views()[0].ViewerFollows {
		t.Fatal("flag should be true after follow toggle")
	}

	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if g.Views()[0].ViewerFollows {
		t.Fatal("flag should be false after unfollow toggle")
	}

	// A full round trip is one follow plus one unfollow, nothing extra
	if store.followCalls != 1 || store.unfollowCalls != 1 {
		t.Errorf("store calls = (follow=%d, unfollow=%d), want (1, 1)", store.followCalls, store.unfollowCalls)
	}
}

func TestFollowGraph_Toggle_RevertsOnFailure(t *testing.T) {
	storeErr := errors.New("network unreachable")
	store := &mockFollowStore{
		followFn: func(ctx context.Context, followerID, followingID int64) error {
			return storeErr
		},
	}
	g := loggedInGraph(t, 1, store, view(2, false))

	err := g.Toggle(context.Background(), 2)

	if !errors.Is(err, storeErr) {
		t.Errorf("error = %v, want %v", err, storeErr)
	}
	if g.Views()[0].ViewerFollows {
		t.Error("flag must be rolled back when the remote write fails")
	}
}

func TestFollowGraph_Toggle_ConvergedConflictIsBenign(t *testing.T) {
	store := &mockFollowStore{
		followFn: func(ctx context.Context, followerID, followingID int64) error {
			return model.ErrAlreadyFollowing
		},
	}
	g := loggedInGraph(t, 1, store, view(2, false))

	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The store already holds the state we displayed; no rollback
	if !g.Views()[0].ViewerFollows {
		t.Error("flag should stay flipped when the store reports the edge already exists")
	}
}

func TestFollowGraph_Toggle_PendingPairIsNoop(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	store := &mockFollowStore{
		followFn: func(ctx context.Context, followerID, followingID int64) error {
			close(started)
			<-release
			return nil
		},
	}
	g := loggedInGraph(t, 1, store, view(2, false))

	done := make(chan error, 1)
	go func() {
		done <- g.Toggle(context.Background(), 2)
	}()
	<-started

	// Second toggle for the same pair while the first is in flight
	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("pending toggle should be a silent no-op, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	if store.followCalls != 1 {
		t.Errorf("store Follow called %d times, want 1", store.followCalls)
	}
	if !g.Views()[0].ViewerFollows {
		t.Error("final state should be the serialized outcome of the first toggle")
	}
}

// =============================================================================
// COUNT TESTS
// =============================================================================

func ownFollowingGraph(t *testing.T, viewerID int64, store *mockFollowStore, rows ...model.FollowView) *FollowGraph {
	t.Helper()
	sess := session.NewContext()
	sess.SetUser(viewerID)
	store.getFollowingFn = func(ctx context.Context, targetID int64, vID *int64) (*model.FollowListResponse, error) {
		return followViews(rows...), nil
	}
	g := NewFollowGraph(sess, store)
	if err := g.LoadFollowing(context.Background(), viewerID); err != nil {
		t.Fatalf("load: %v", err)
	}
	return g
}

func TestFollowGraph_Toggle_AdjustsOwnFollowingCount(t *testing.T) {
	store := &mockFollowStore{}
	g := ownFollowingGraph(t, 1, store, view(2, true), view(3, true))

	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("unfollow toggle: %v", err)
	}
	if g.Count() != 1 {
		t.Errorf("count after unfollow = %d, want 1", g.Count())
	}

	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("follow toggle: %v", err)
	}
	if g.Count() != 2 {
		t.Errorf("count after re-follow = %d, want 2", g.Count())
	}
}

func TestFollowGraph_Toggle_CountRevertedOnFailure(t *testing.T) {
	store := &mockFollowStore{
		unfollowFn: func(ctx context.Context, followerID, followingID int64) error {
			return errors.New("network unreachable")
		},
	}
	g := ownFollowingGraph(t, 1, store, view(2, true), view(3, true))

	if err := g.Toggle(context.Background(), 2); err == nil {
		t.Fatal("expected the store error to surface")
	}
	if g.Count() != 2 {
		t.Errorf("count after rollback = %d, want 2", g.Count())
	}
}

func TestFollowGraph_Toggle_FollowersListCountUntouched(t *testing.T) {
	store := &mockFollowStore{}
	g := loggedInGraph(t, 1, store, view(2, false), view(3, true))

	if err := g.Toggle(context.Background(), 2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	// On someone else's followers screen the count is the row count, not
	// the viewer's following count
	if g.Count() != 2 {
		t.Errorf("count = %d, want 2", g.Count())
	}
}

// =============================================================================
// CONFIRM UNFOLLOW TESTS
// =============================================================================

func TestFollowGraph_ConfirmUnfollow_NotConfirmed(t *testing.T) {
	store := &mockFollowStore{}
	g := loggedInGraph(t, 1, store, view(2, true))

	if err := g.ConfirmUnfollow(context.Background(), 2, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Views()) != 1 {
		t.Error("declined confirmation must leave the row in place")
	}
	if store.unfollowCalls != 0 {
		t.Error("declined confirmation must not reach the store")
	}
}

func TestFollowGraph_ConfirmUnfollow_RemovesRow(t *testing.T) {
	store := &mockFollowStore{}
	g := loggedInGraph(t, 1, store, view(2, true), view(3, true))

	before := g.Count()
	if err := g.ConfirmUnfollow(context.Background(), 2, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	views := g.Views()
	if len(views) != 1 || views[0].ID != 3 {
		t.Errorf("views = %+v, want only user 3", views)
	}
	if g.Count() != before-1 {
		t.Errorf("count = %d, want %d", g.Count(), before-1)
	}
}

func TestFollowGraph_ConfirmUnfollow_ReloadsOnFailure(t *testing.T) {
	storeErr := errors.New("write timeout")
	store := &mockFollowStore{
		unfollowFn: func(ctx context.Context, followerID, followingID int64) error {
			return storeErr
		},
	}
	g := loggedInGraph(t, 1, store, view(2, true))
	loadsBefore := store.loadCalls

	err := g.ConfirmUnfollow(context.Background(), 2, true)

	if !errors.Is(err, storeErr) {
		t.Errorf("error = %v, want %v", err, storeErr)
	}
	// The row was already dropped locally, so recovery is a full reload
	if store.loadCalls != loadsBefore+1 {
		t.Errorf("load calls = %d, want %d", store.loadCalls, loadsBefore+1)
	}
	if len(g.Views()) != 1 {
		t.Errorf("views after reload = %d rows, want 1", len(g.Views()))
	}
}
