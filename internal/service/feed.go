package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"souqly/internal/cache"
	"souqly/internal/model"
	"souqly/internal/queue"
	"souqly/internal/repository"
)

// FeedService owns the catalog side of the home feed: paged listing
// reads, unpaginated search with category highlighting, listing
// creation, and the viewer's liked set.
type FeedService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	likesCache   cache.LikesCache
	db           *sqlx.DB
	publisher    queue.Publisher
}

func NewFeedService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	likesCache cache.LikesCache,
	db *sqlx.DB,
	publisher queue.Publisher,
) *FeedService {
	return &FeedService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		likesCache:   likesCache,
		db:           db,
		publisher:    publisher,
	}
}

// ListPage returns one newest-first page plus pagination metadata.
// HasMore compares the total against how many rows the client has seen.
func (s *FeedService) ListPage(ctx context.Context, offset, limit int) (*model.ProductPage, error) {
	products, total, err := s.productRepo.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	return &model.ProductPage{
		Products: products,
		Total:    total,
		HasMore:  total > offset+len(products),
	}, nil
}

// Search returns all listings matching the query (case-insensitive
// substring, newest first) together with per-category match counts.
// Search results are never paginated.
func (s *FeedService) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	query = strings.TrimSpace(query)

	products, err := s.productRepo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.productRepo.CategoryMatchCounts(ctx, query)
	if err != nil {
		// The result list is still useful without the category strip.
		log.Printf("[FeedService] Category match count failed for query=%q: %v", query, err)
		matches = map[int64]int{}
	}

	return &model.SearchResult{
		Products:        products,
		CategoryMatches: matches,
	}, nil
}

// Get returns a single listing with its owner joined in.
func (s *FeedService) Get(ctx context.Context, productID int64) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, productID)
}

// Categories returns the static category reference data.
func (s *FeedService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.List(ctx)
}

// Create validates and publishes a new listing.
func (s *FeedService) Create(ctx context.Context, ownerID int64, req *model.CreateProductRequest) (*model.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrProductNameEmpty
	}
	if len(name) > model.MaxProductNameLength {
		return nil, model.ErrProductNameTooLong
	}
	if !model.IsValidListingType(req.ListingType) {
		return nil, model.ErrInvalidListingType
	}
	if req.Price < 0 {
		return nil, model.ErrNegativePrice
	}
	if _, err := s.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		OwnerID:     ownerID,
		Name:        name,
		Price:       req.Price,
		ListingType: req.ListingType,
		ImageURL:    req.ImageURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CategoryID:  req.CategoryID,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.Create(ctx, tx, product); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementListingCount(ctx, tx, ownerID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return product, nil
}

// Delete removes a listing owned by ownerID.
func (s *FeedService) Delete(ctx context.Context, productID, ownerID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.Delete(ctx, tx, productID, ownerID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementListingCount(ctx, tx, ownerID, -1); err != nil {
		return err
	}

	return tx.Commit()
}

// Like records viewerID liking productID and notifies the owner
// asynchronously.
func (s *FeedService) Like(ctx context.Context, viewerID, productID int64) error {
	if _, err := s.productRepo.GetOwnerID(ctx, productID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.productRepo.Like(ctx, tx, productID, viewerID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyLiked
	}

	if err := s.productRepo.IncrementLikeCount(ctx, tx, productID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.likesCache != nil {
		if err := s.likesCache.Add(ctx, viewerID, productID); err != nil {
			log.Printf("[FeedService] Likes cache add failed: user=%d product=%d err=%v", viewerID, productID, err)
		}
	}

	if s.publisher != nil {
		event := queue.NewProductLikedEvent(productID, viewerID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[FeedService] Failed to publish ProductLiked event: product=%d liker=%d err=%v",
				productID, viewerID, err)
		}
	}

	return nil
}

// Unlike removes viewerID's like of productID.
func (s *FeedService) Unlike(ctx context.Context, viewerID, productID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.Unlike(ctx, tx, productID, viewerID); err != nil {
		return err
	}

	if err := s.productRepo.IncrementLikeCount(ctx, tx, productID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.likesCache != nil {
		if err := s.likesCache.Remove(ctx, viewerID, productID); err != nil {
			log.Printf("[FeedService] Likes cache remove failed: user=%d product=%d err=%v", viewerID, productID, err)
		}
	}

	return nil
}

// LikedIDs returns all listing ids the viewer has liked, from the
// Redis set when warm, warming it from the database on a miss. The
// viewer-keyed liked set is re-fetched on every feed refresh.
func (s *FeedService) LikedIDs(ctx context.Context, viewerID int64) ([]int64, error) {
	if s.likesCache != nil {
		exists, err := s.likesCache.Exists(ctx, viewerID)
		if err == nil && exists {
			ids, err := s.likesCache.Members(ctx, viewerID)
			if err == nil {
				return ids, nil
			}
			log.Printf("[FeedService] Likes cache read failed, falling back to DB: user=%d err=%v", viewerID, err)
		}
	}

	ids, err := s.productRepo.LikedIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if s.likesCache != nil {
		if err := s.likesCache.Warm(ctx, viewerID, ids); err != nil {
			log.Printf("[FeedService] Likes cache warm failed: user=%d err=%v", viewerID, err)
		}
	}

	return ids, nil
}
