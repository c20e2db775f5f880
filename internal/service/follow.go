package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"souqly/internal/model"
	"souqly/internal/queue"
	"souqly/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	publisher  queue.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		publisher:  publisher,
	}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followingID int64) error {
	if followerID == followingID {
		return model.ErrCannotFollowSelf
	}

	_, err := s.userRepo.GetByID(ctx, followingID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, followerID, followingID)
	if err != nil {
		return err
	}

	if !inserted {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followingID, 1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async notification fan-out (after commit!)
	if s.publisher != nil {
		event := queue.NewUserFollowedEvent(followerID, followingID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[FollowService] Failed to publish UserFollowed event: follower=%d following=%d err=%v",
				followerID, followingID, err)
		}
	}

	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.followRepo.Delete(ctx, tx, followerID, followingID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followingID, -1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		event := queue.NewUserUnfollowedEvent(followerID, followingID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[FollowService] Failed to publish UserUnfollowed event: follower=%d following=%d err=%v",
				followerID, followingID, err)
		}
	}

	return nil
}

// GetFollowers builds the follower list of targetID as seen by viewerID.
//
// Query sequence, in order:
//  1. Edge membership (who follows the target). An empty membership
//     short-circuits: no user or enrichment queries are issued.
//  2. User records for the members, ordered by username.
//  3. If a viewer is present, one batch check of which members the
//     viewer follows.
//  4. One batch check of which members the target follows back - the
//     "mutual with profile owner" flag on a followers screen.
//
// The enrichment checks are batch queries over ANY($1), never N+1, and
// degrade gracefully: if a check fails the list is still returned with
// the affected flags false.
func (s *FollowService) GetFollowers(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error) {
	followerIDs, err := s.followRepo.FollowerIDs(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if len(followerIDs) == 0 {
		return &model.FollowListResponse{Users: []model.FollowView{}}, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, followerIDs)
	if err != nil {
		return nil, err
	}

	viewerFollows := s.checkViewerFollows(ctx, viewerID, followerIDs)

	// Mutual on the followers screen: does the target follow U back.
	mutual, err := s.followRepo.CheckFollows(ctx, targetID, followerIDs)
	if err != nil {
		log.Printf("[FollowService] Mutual check failed for target=%d: %v", targetID, err)
		mutual = nil
	}

	return &model.FollowListResponse{
		Users: composeFollowViews(users, viewerFollows, mutual),
		Total: len(users),
	}, nil
}

// GetFollowing builds the list of users targetID follows, as seen by
// viewerID. Symmetric to GetFollowers except for the mutual direction:
// here the flag means "does this followed user follow the target back".
func (s *FollowService) GetFollowing(ctx context.Context, targetID int64, viewerID *int64) (*model.FollowListResponse, error) {
	followingIDs, err := s.followRepo.FollowingIDs(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if len(followingIDs) == 0 {
		return &model.FollowListResponse{Users: []model.FollowView{}}, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, followingIDs)
	if err != nil {
		return nil, err
	}

	viewerFollows := s.checkViewerFollows(ctx, viewerID, followingIDs)

	mutual, err := s.followRepo.CheckFollowedBy(ctx, targetID, followingIDs)
	if err != nil {
		log.Printf("[FollowService] Mutual check failed for target=%d: %v", targetID, err)
		mutual = nil
	}

	return &model.FollowListResponse{
		Users: composeFollowViews(users, viewerFollows, mutual),
		Total: len(users),
	}, nil
}

// IsMutual reports whether both edge directions exist between two users.
func (s *FollowService) IsMutual(ctx context.Context, a, b int64) (bool, error) {
	forward, err := s.followRepo.Exists(ctx, a, b)
	if err != nil {
		return false, err
	}
	if !forward {
		return false, nil
	}
	return s.followRepo.Exists(ctx, b, a)
}

func (s *FollowService) checkViewerFollows(ctx context.Context, viewerID *int64, candidateIDs []int64) map[int64]bool {
	if viewerID == nil {
		return nil
	}

	follows, err := s.followRepo.CheckFollows(ctx, *viewerID, candidateIDs)
	if err != nil {
		log.Printf("[FollowService] Viewer follow check failed for viewer=%d: %v", *viewerID, err)
		return nil
	}
	return follows
}

func composeFollowViews(users []model.UserSummary, viewerFollows, mutual map[int64]bool) []model.FollowView {
	views := make([]model.FollowView, len(users))
	for i, u := range users {
		view := model.FollowView{UserSummary: u}
		if viewerFollows != nil {
			view.ViewerFollows = viewerFollows[u.ID]
		}
		if mutual != nil {
			view.MutualWithTarget = mutual[u.ID]
		}
		views[i] = view
	}
	return views
}
