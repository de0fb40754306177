// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	ListBySeller(ctx context.Context, sellerID string, params ListParams) ([]Review, int, error)
	// LockSeller serializes concurrent reviews of one seller so the stats
	// refresh sees every committed review.
	LockSeller(ctx context.Context, sellerID string) error
	// RefreshSellerStats recomputes the seller's rating and review count from
	// the reviews table.
	RefreshSellerStats(ctx context.Context, sellerID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rev *Review) error {
	query := `
		INSERT INTO reviews (id, order_id, product_id, reviewer_id, seller_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &rev.CreatedAt, query,
		rev.ID,
		rev.OrderID,
		rev.ProductID,
		rev.ReviewerID,
		rev.SellerID,
		rev.Rating,
		rev.Comment,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create review: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID string, params ListParams) ([]Review, int, error) {
	params.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM reviews WHERE seller_id = $1`, sellerID); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `
		SELECT rv.id, rv.order_id, rv.product_id, rv.reviewer_id, rv.seller_id,
		       rv.rating, rv.comment, rv.created_at,
		       u.name AS reviewer_name, u.avatar_url AS reviewer_avatar
		FROM reviews rv
		JOIN users u ON u.id = rv.reviewer_id
		WHERE rv.seller_id = $1
		ORDER BY rv.created_at DESC
		LIMIT $2 OFFSET $3`

	var reviews []Review
	if err := r.db.SelectContext(ctx, &reviews, query, sellerID, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

func (r *repository) LockSeller(ctx context.Context, sellerID string) error {
	var id string
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock seller: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock seller: %w", err)
	}
	return nil
}

func (r *repository) RefreshSellerStats(ctx context.Context, sellerID string) error {
	query := `
		UPDATE users u
		SET rating = s.avg_rating, review_count = s.review_count, updated_at = NOW()
		FROM (
			SELECT COALESCE(ROUND(AVG(rating)::NUMERIC, 1), 0) AS avg_rating,
			       COUNT(*) AS review_count
			FROM reviews
			WHERE seller_id = $1
		) s
		WHERE u.id = $1`

	result, err := r.db.ExecContext(ctx, query, sellerID)
	if err != nil {
		return fmt.Errorf("refresh seller rating: %w", err)
	}

	return core.ExpectRows(result, "refresh seller rating", nil)
}
