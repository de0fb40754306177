// AngelaMos | 2026
// dto.go

package review

import "time"

type CreateReviewRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Rating  int    `json:"rating"   validate:"required,min=1,max=5"`
	Comment string `json:"comment"  validate:"max=1000"`
}

type ListParams struct {
	Page     int
	PageSize int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 50 {
		p.PageSize = 10
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type AuthorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type ReviewResponse struct {
	ID        string         `json:"id"`
	OrderID   string         `json:"order_id"`
	ProductID string         `json:"product_id"`
	Author    AuthorResponse `json:"author"`
	Rating    int            `json:"rating"`
	Comment   string         `json:"comment"`
	CreatedAt time.Time      `json:"created_at"`
}

func ToReviewResponse(r *Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Author: AuthorResponse{
			ID:        r.ReviewerID,
			Name:      r.ReviewerName,
			AvatarURL: r.ReviewerAvatar,
		},
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func ToReviewResponseList(reviews []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToReviewResponse(&reviews[i]))
	}
	return out
}
