package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"souqly/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// FollowService depends on the repository INTERFACES, so the tests swap
// in mocks with per-test behavior and call tracking.

type mockFollowRepository struct {
	createFn          func(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error)
	deleteFn          func(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error
	existsFn          func(ctx context.Context, followerID, followingID int64) (bool, error)
	followerIDsFn     func(ctx context.Context, userID int64) ([]int64, error)
	followingIDsFn    func(ctx context.Context, userID int64) ([]int64, error)
	checkFollowsFn    func(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error)
	checkFollowedByFn func(ctx context.Context, followingID int64, followerIDs []int64) (map[int64]bool, error)

	checkFollowsCalls    []checkFollowsCall
	checkFollowedByCalls []checkFollowsCall
}

type checkFollowsCall struct {
	UserID       int64
	CandidateIDs []int64
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, followerID, followingID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, followerID, followingID)
	}
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followingID)
	}
	return false, nil
}

func (m *mockFollowRepository) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.followerIDsFn != nil {
		return m.followerIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.followingIDsFn != nil {
		return m.followingIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error) {
	m.checkFollowsCalls = append(m.checkFollowsCalls, checkFollowsCall{UserID: followerID, CandidateIDs: followingIDs})
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followingIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) CheckFollowedBy(ctx context.Context, followingID int64, followerIDs []int64) (map[int64]bool, error) {
	m.checkFollowedByCalls = append(m.checkFollowedByCalls, checkFollowsCall{UserID: followingID, CandidateIDs: followerIDs})
	if m.checkFollowedByFn != nil {
		return m.checkFollowedByFn(ctx, followingID, followerIDs)
	}
	return map[int64]bool{}, nil
}

type mockUserRepository struct {
	getByIDFn  func(ctx context.Context, id int64) (*model.User, error)
	getByIDsFn func(ctx context.Context, ids []int64) ([]model.UserSummary, error)

	getByIDsCalls [][]int64
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
	m.getByIDsCalls = append(m.getByIDsCalls, ids)
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	return nil, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementListingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func summaries(ids ...int64) []model.UserSummary {
	out := make([]model.UserSummary, len(ids))
	for i, id := range ids {
		out[i] = model.UserSummary{ID: id, Username: string(rune('a' + i))}
	}
	return out
}

// =============================================================================
// FOLLOW TESTS
// =============================================================================

func TestFollowService_Follow_Self(t *testing.T) {
	svc := NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, nil, nil)

	err := svc.Follow(context.Background(), 7, 7)

	if !errors.Is(err, model.ErrCannotFollowSelf) {
		t.Errorf("error = %v, want %v", err, model.ErrCannotFollowSelf)
	}
}

func TestFollowService_Follow_TargetMissing(t *testing.T) {
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewFollowService(&mockFollowRepository{}, userRepo, nil, nil)

	err := svc.Follow(context.Background(), 1, 2)

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

// =============================================================================
// GET FOLLOWERS TESTS
// =============================================================================

func TestFollowService_GetFollowers_EmptyShortCircuit(t *testing.T) {
	followRepo := &mockFollowRepository{
		followerIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return nil, nil
		},
	}
	userRepo := &mockUserRepository{}
	svc := NewFollowService(followRepo, userRepo, nil, nil)

	viewerID := int64(9)
	resp, err := svc.GetFollowers(context.Background(), 1, &viewerID)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Users == nil || len(resp.Users) != 0 {
		t.Errorf("users = %v, want empty non-nil slice", resp.Users)
	}

	// Empty edge list must not trigger user or enrichment queries
	if len(userRepo.getByIDsCalls) != 0 {
		t.Errorf("GetByIDs called %d times, want 0", len(userRepo.getByIDsCalls))
	}
	if len(followRepo.checkFollowsCalls) != 0 {
		t.Errorf("CheckFollows called %d times, want 0", len(followRepo.checkFollowsCalls))
	}
}

func TestFollowService_GetFollowers_FlagsForThirdViewer(t *testing.T) {
	// Target T=1 is followed by A=2 and B=3. Viewer W=9 follows only A.
	// T follows B back but not A.
	followRepo := &mockFollowRepository{
		followerIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
		checkFollowsFn: func(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error) {
			switch followerID {
			case 9: // the viewer
				return map[int64]bool{2: true, 3: false}, nil
			case 1: // the target's follow-back check
				return map[int64]bool{2: false, 3: true}, nil
			}
			t.Fatalf("unexpected CheckFollows for user %d", followerID)
			return nil, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
			return summaries(ids...), nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, nil, nil)

	viewerID := int64(9)
	resp, err := svc.GetFollowers(context.Background(), 1, &viewerID)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(resp.Users))
	}

	a, b := resp.Users[0], resp.Users[1]
	if !a.ViewerFollows || a.MutualWithTarget {
		t.Errorf("user A flags = (follows=%v, mutual=%v), want (true, false)", a.ViewerFollows, a.MutualWithTarget)
	}
	if b.ViewerFollows || !b.MutualWithTarget {
		t.Errorf("user B flags = (follows=%v, mutual=%v), want (false, true)", b.ViewerFollows, b.MutualWithTarget)
	}

	// Exactly two batch checks: one for the viewer, one for the target
	if len(followRepo.checkFollowsCalls) != 2 {
		t.Errorf("CheckFollows called %d times, want 2", len(followRepo.checkFollowsCalls))
	}
}

func TestFollowService_GetFollowers_AnonymousViewer(t *testing.T) {
	followRepo := &mockFollowRepository{
		followerIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
		checkFollowsFn: func(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{2: true}, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
			return summaries(ids...), nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, nil, nil)

	resp, err := svc.GetFollowers(context.Background(), 1, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Users[0].ViewerFollows {
		t.Error("anonymous viewer must never get viewer_follows=true")
	}
	// Only the target's follow-back check should have run
	if len(followRepo.checkFollowsCalls) != 1 {
		t.Errorf("CheckFollows called %d times, want 1", len(followRepo.checkFollowsCalls))
	}
}

func TestFollowService_GetFollowers_EnrichmentDegradesGracefully(t *testing.T) {
	followRepo := &mockFollowRepository{
		followerIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
		checkFollowsFn: func(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error) {
			return nil, errors.New("redis down, db overloaded")
		},
	}
	userRepo := &mockUserRepository{
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
			return summaries(ids...), nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, nil, nil)

	viewerID := int64(9)
	resp, err := svc.GetFollowers(context.Background(), 1, &viewerID)

	// The list itself must survive a failed enrichment
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(resp.Users))
	}
	for _, u := range resp.Users {
		if u.ViewerFollows || u.MutualWithTarget {
			t.Errorf("flags must default to false when enrichment fails, got %+v", u)
		}
	}
}

// =============================================================================
// GET FOLLOWING TESTS
// =============================================================================

func TestFollowService_GetFollowing_MutualDirection(t *testing.T) {
	// Target T=1 follows C=4. C follows T back, so the following screen
	// must flag C as mutual via the reverse-direction check.
	followRepo := &mockFollowRepository{
		followingIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{4}, nil
		},
		checkFollowedByFn: func(ctx context.Context, followingID int64, followerIDs []int64) (map[int64]bool, error) {
			if followingID != 1 {
				t.Fatalf("CheckFollowedBy target = %d, want 1", followingID)
			}
			return map[int64]bool{4: true}, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
			return summaries(ids...), nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, nil, nil)

	resp, err := svc.GetFollowing(context.Background(), 1, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Users[0].MutualWithTarget {
		t.Error("expected mutual flag from the follow-back direction")
	}
	if len(followRepo.checkFollowedByCalls) != 1 {
		t.Errorf("CheckFollowedBy called %d times, want 1", len(followRepo.checkFollowedByCalls))
	}
}

// =============================================================================
// IS MUTUAL TESTS
// =============================================================================

func TestFollowService_IsMutual(t *testing.T) {
	tests := []struct {
		name    string
		forward bool
		reverse bool
		want    bool
	}{
		{"both directions", true, true, true},
		{"forward only", true, false, false},
		{"reverse only", false, true, false},
		{"no edges", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			followRepo := &mockFollowRepository{
				existsFn: func(ctx context.Context, followerID, followingID int64) (bool, error) {
					if followerID == 1 {
						return tt.forward, nil
					}
					return tt.reverse, nil
				},
			}
			svc := NewFollowService(followRepo, &mockUserRepository{}, nil, nil)

			got, err := svc.IsMutual(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsMutual = %v, want %v", got, tt.want)
			}
		})
	}
}
