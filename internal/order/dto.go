// AngelaMos | 2026
// dto.go

package order

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type CheckoutRequest struct {
	ProductID     string `json:"product_id"     validate:"required,uuid"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card balance"`
}

type ShipRequest struct {
	TrackingNumber   string `json:"tracking_number"   validate:"required,min=3,max=64"`
	ShippingProvider string `json:"shipping_provider" validate:"required,oneof=Amana Aramex DHL Cat-Logistique Autre"`
}

type UpdateStatusRequest struct {
	Status  Status `json:"status"            validate:"required"`
	Version *int   `json:"version,omitempty" validate:"omitempty,gte=1"`
}

type TransitionRequest struct {
	Version *int `json:"version,omitempty" validate:"omitempty,gte=1"`
}

type OrderResponse struct {
	ID                 string       `json:"id"`
	ProductID          string       `json:"product_id"`
	BuyerID            string       `json:"buyer_id"`
	SellerID           string       `json:"seller_id"`
	Price              money.Amount `json:"price"`
	BuyerProtectionFee money.Amount `json:"buyer_protection_fee"`
	ShippingFee        money.Amount `json:"shipping_fee"`
	TotalAmount        money.Amount `json:"total_amount"`
	PaymentMethod      string       `json:"payment_method"`
	Status             Status       `json:"status"`
	StatusLabel        string       `json:"status_label"`
	TrackingNumber     *string      `json:"tracking_number,omitempty"`
	ShippingProvider   *string      `json:"shipping_provider,omitempty"`
	ShippedAt          *time.Time   `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time   `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	Version            int          `json:"version"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type ListParams struct {
	Page     int
	PageSize int
	BuyerID  string
	SellerID string
	Status   Status
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToOrderResponse(o *Order) OrderResponse {
	return OrderResponse{
		ID:                 o.ID,
		ProductID:          o.ProductID,
		BuyerID:            o.BuyerID,
		SellerID:           o.SellerID,
		Price:              o.Price,
		BuyerProtectionFee: o.BuyerProtectionFee,
		ShippingFee:        o.ShippingFee,
		TotalAmount:        o.TotalAmount,
		PaymentMethod:      o.PaymentMethod,
		Status:             o.Status,
		StatusLabel:        o.Status.Label(),
		TrackingNumber:     o.TrackingNumber,
		ShippingProvider:   o.ShippingProvider,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		Version:            o.Version,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out
}
