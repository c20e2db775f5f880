package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"souqly/internal/model"
	"souqly/internal/repository"
)

// UserService handles business logic for user operations
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
}

func NewUserService(repo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
	}
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, fmt.Errorf("username is required")
	}

	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		PasswordHashed: string(hashedPassword),
	}

	if req.Bio != "" {
		user.Bio = &req.Bio
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with username and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		// Don't reveal whether username exists or not
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile retrieves a user's profile with the viewer's relationship
// to it. The existence check fails fast; the relationship checks
// degrade gracefully so a failed follow lookup never blocks the profile.
func (s *UserService) GetProfile(ctx context.Context, userID int64, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.ProfileResponse{
		User: user,
	}

	if viewerID != nil && *viewerID != userID {
		if isFollowing, err := s.followRepo.Exists(ctx, *viewerID, userID); err == nil {
			profile.IsFollowing = isFollowing
			if isFollowing {
				if followsBack, err := s.followRepo.Exists(ctx, userID, *viewerID); err == nil {
					profile.IsMutual = followsBack
				}
			}
		}
	}

	return profile, nil
}

// Search finds users by username prefix, enriched with whether the
// viewer already follows each result. The enrichment is a single batch
// query over all result ids, not one lookup per row.
func (s *UserService) Search(ctx context.Context, query string, limit int, viewerID *int64) ([]model.FollowView, error) {
	summaries, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	views := make([]model.FollowView, 0, len(summaries))
	if len(summaries) == 0 {
		return views, nil
	}

	var followMap map[int64]bool
	if viewerID != nil {
		ids := make([]int64, 0, len(summaries))
		for _, u := range summaries {
			ids = append(ids, u.ID)
		}
		followMap, err = s.followRepo.CheckFollows(ctx, *viewerID, ids)
		if err != nil {
			// Keep showing the results without the flags
			followMap = nil
		}
	}

	for _, u := range summaries {
		views = append(views, model.FollowView{
			UserSummary:   u,
			ViewerFollows: followMap[u.ID],
		})
	}

	return views, nil
}

// UpdateProfile applies editable profile fields for the user.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return s.repo.UpdateProfile(ctx, userID, req)
}
