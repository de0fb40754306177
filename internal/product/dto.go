// AngelaMos | 2026
// dto.go

package product

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

// Prices are in centimes once decoded; listings cap at one million dirhams.
type CreateProductRequest struct {
	Title         string        `json:"title"                    validate:"required,min=3,max=120"`
	Description   string        `json:"description"              validate:"max=4000"`
	Price         money.Amount  `json:"price"                    validate:"gt=0,max=100000000"`
	OriginalPrice *money.Amount `json:"original_price,omitempty" validate:"omitempty,gt=0,max=100000000"`
	Category      string        `json:"category"                 validate:"required,max=80"`
	Condition     string        `json:"condition"                validate:"required"`
	Size          *string       `json:"size,omitempty"           validate:"omitempty,max=40"`
	City          string        `json:"city"                     validate:"required,max=100"`
	Images        []string      `json:"images"                   validate:"required,min=1,max=10,dive,url"`
}

type UpdateProductRequest struct {
	Title         *string       `json:"title,omitempty"          validate:"omitempty,min=3,max=120"`
	Description   *string       `json:"description,omitempty"    validate:"omitempty,max=4000"`
	Price         *money.Amount `json:"price,omitempty"          validate:"omitempty,gt=0,max=100000000"`
	OriginalPrice *money.Amount `json:"original_price,omitempty" validate:"omitempty,gt=0,max=100000000"`
	Category      *string       `json:"category,omitempty"       validate:"omitempty,max=80"`
	Condition     *string       `json:"condition,omitempty"`
	Size          *string       `json:"size,omitempty"           validate:"omitempty,max=40"`
	City          *string       `json:"city,omitempty"           validate:"omitempty,max=100"`
	Images        []string      `json:"images,omitempty"         validate:"omitempty,min=1,max=10,dive,url"`
}

type ModerateRequest struct {
	Status  Status `json:"status"  validate:"required,oneof=approved rejected"`
	Version int    `json:"version" validate:"gte=1"`
}

type ProductResponse struct {
	ID            string        `json:"id"`
	SellerID      string        `json:"seller_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Price         money.Amount  `json:"price"`
	OriginalPrice *money.Amount `json:"original_price,omitempty"`
	Category      string        `json:"category"`
	Condition     string        `json:"condition"`
	Size          *string       `json:"size,omitempty"`
	City          string        `json:"city"`
	Images        []string      `json:"images"`
	Status        Status        `json:"status"`
	StatusLabel   string        `json:"status_label"`
	IsFeatured    bool          `json:"is_featured"`
	BoostedUntil  *time.Time    `json:"boosted_until,omitempty"`
	Version       int           `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ListParams filters the catalogue. Public listings only ever see approved
// products; Status is honoured for sellers and admins.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Category string
	City     string
	SellerID string
	Status   Status
	MinPrice money.Amount
	MaxPrice money.Amount
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 24
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToProductResponse(p *Product) ProductResponse {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}

	return ProductResponse{
		ID:            p.ID,
		SellerID:      p.SellerID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Category:      p.Category,
		Condition:     p.Condition,
		Size:          p.Size,
		City:          p.City,
		Images:        images,
		Status:        p.Status,
		StatusLabel:   p.Status.Label(),
		IsFeatured:    p.IsFeatured,
		BoostedUntil:  p.BoostedUntil,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}
