// AngelaMos | 2026
// entity.go

// Package review holds the ratings buyers leave sellers after a completed
// order. A seller's rating and review count are derived from these rows.
package review

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         string    `db:"id"`
	OrderID    string    `db:"order_id"`
	ProductID  string    `db:"product_id"`
	ReviewerID string    `db:"reviewer_id"`
	SellerID   string    `db:"seller_id"`
	Rating     int       `db:"rating"`
	Comment    string    `db:"comment"`
	CreatedAt  time.Time `db:"created_at"`

	ReviewerName   string `db:"reviewer_name"`
	ReviewerAvatar string `db:"reviewer_avatar"`
}
