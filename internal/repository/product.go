package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"souqly/internal/model"
)

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, owner_id, name, price, listing_type, image_url, latitude, longitude, category_id, like_count, created_at`

// Create inserts a listing inside the caller's transaction.
func (r *productRepository) Create(ctx context.Context, tx *sqlx.Tx, p *model.Product) error {
	query := `
		INSERT INTO products (owner_id, name, price, listing_type, image_url, latitude, longitude, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, like_count, created_at
	`

	row := tx.QueryRowxContext(ctx, query,
		p.OwnerID, p.Name, p.Price, p.ListingType, p.ImageURL, p.Latitude, p.Longitude, p.CategoryID)

	if err := row.Scan(&p.ID, &p.LikeCount, &p.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, productID int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	err := r.db.GetContext(ctx, &p, query, productID)
	if err == sql.ErrNoRows {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

func (r *productRepository) GetOwnerID(ctx context.Context, productID int64) (int64, error) {
	query := `SELECT owner_id FROM products WHERE id = $1`

	var ownerID int64
	err := r.db.GetContext(ctx, &ownerID, query, productID)
	if err == sql.ErrNoRows {
		return 0, model.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get product owner: %w", err)
	}

	return ownerID, nil
}

func (r *productRepository) Delete(ctx context.Context, tx *sqlx.Tx, productID, ownerID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND owner_id = $2`, productID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID)
		if exists {
			return model.ErrNotProductOwner
		}
		return model.ErrProductNotFound
	}

	return nil
}

// ListPage returns one newest-first page of listings plus the total count.
// Offset pagination matches the client's length-based "load more": the
// next offset is always the number of items already displayed.
func (r *productRepository) ListPage(ctx context.Context, offset, limit int) ([]model.Product, int, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`

	var products []model.Product
	if err := r.db.SelectContext(ctx, &products, query, offset, limit); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, total, nil
}

// Search returns all listings whose name contains the query,
// case-insensitively, newest first. Search results are not paginated.
func (r *productRepository) Search(ctx context.Context, query string) ([]model.Product, error) {
	sqlQuery := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC
	`

	var products []model.Product
	if err := r.db.SelectContext(ctx, &products, sqlQuery, query); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	return products, nil
}

// CategoryMatchCounts counts matches per category for the search query.
// Used to highlight the category strip in search mode; categories not in
// the result set have zero matches and are hidden.
func (r *productRepository) CategoryMatchCounts(ctx context.Context, query string) (map[int64]int, error) {
	sqlQuery := `
		SELECT category_id, COUNT(*) AS matches
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
		GROUP BY category_id
	`

	rows, err := r.db.QueryxContext(ctx, sqlQuery, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count category matches: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var categoryID int64
		var matches int
		if err := rows.Scan(&categoryID, &matches); err != nil {
			return nil, fmt.Errorf("failed to scan category match: %w", err)
		}
		counts[categoryID] = matches
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category matches: %w", err)
	}

	return counts, nil
}

// Like inserts a like row. Idempotent via the unique pair constraint;
// returns false when the like already existed.
func (r *productRepository) Like(ctx context.Context, tx *sqlx.Tx, productID, userID int64) (bool, error) {
	query := `
		INSERT INTO product_likes (product_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, productID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *productRepository) Unlike(ctx context.Context, tx *sqlx.Tx, productID, userID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM product_likes WHERE product_id = $1 AND user_id = $2`, productID, userID)
	if err != nil {
		return fmt.Errorf("failed to unlike product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotLiked
	}

	return nil
}

func (r *productRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, productID int64, delta int) error {
	query := `UPDATE products SET like_count = like_count + $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, productID, delta); err != nil {
		return fmt.Errorf("failed to update like count: %w", err)
	}
	return nil
}

// CheckLikes reports which of productIDs the user has liked, in one
// batch query.
func (r *productRepository) CheckLikes(ctx context.Context, userID int64, productIDs []int64) (map[int64]bool, error) {
	if len(productIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT product_id FROM product_likes WHERE user_id = $1 AND product_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(productIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range productIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

// LikedIDs returns all product ids the user has liked. Used to warm the
// Redis likes cache.
func (r *productRepository) LikedIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT product_id FROM product_likes WHERE user_id = $1`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get liked ids: %w", err)
	}
	return ids, nil
}
