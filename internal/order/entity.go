// AngelaMos | 2026
// entity.go

package order

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusDisputed       Status = "disputed"
)

var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusShipped, StatusCancelled, StatusDisputed},
	StatusShipped:        {StatusDelivered, StatusCancelled, StatusDisputed},
	StatusDelivered:      {StatusCompleted, StatusCancelled, StatusDisputed},
	StatusDisputed:       {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether the lifecycle allows from -> to. Completed and
// Cancelled have no outgoing edges.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusShipped, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPendingPayment:
		return "En attente de paiement"
	case StatusPaid:
		return "Payée"
	case StatusShipped:
		return "Expédiée"
	case StatusDelivered:
		return "Livrée"
	case StatusCompleted:
		return "Terminée"
	case StatusCancelled:
		return "Annulée"
	case StatusDisputed:
		return "En litige"
	}
	return string(s)
}

var ShippingProviders = []string{"Amana", "Aramex", "DHL", "Cat-Logistique", "Autre"}

type Order struct {
	ID                 string       `db:"id"`
	ProductID          string       `db:"product_id"`
	BuyerID            string       `db:"buyer_id"`
	SellerID           string       `db:"seller_id"`
	Price              money.Amount `db:"price"`
	BuyerProtectionFee money.Amount `db:"buyer_protection_fee"`
	ShippingFee        money.Amount `db:"shipping_fee"`
	TotalAmount        money.Amount `db:"total_amount"`
	PaymentMethod      string       `db:"payment_method"`
	Status             Status       `db:"status"`
	TrackingNumber     *string      `db:"tracking_number"`
	ShippingProvider   *string      `db:"shipping_provider"`
	ShippedAt          *time.Time   `db:"shipped_at"`
	DeliveredAt        *time.Time   `db:"delivered_at"`
	CompletedAt        *time.Time   `db:"completed_at"`
	CancelledAt        *time.Time   `db:"cancelled_at"`
	Version            int          `db:"version"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func (o *Order) IsParty(userID string) bool {
	return userID != "" && (o.BuyerID == userID || o.SellerID == userID)
}

// Counterparty is the other side of the sale from userID.
func (o *Order) Counterparty(userID string) string {
	if userID == o.BuyerID {
		return o.SellerID
	}
	return o.BuyerID
}

// stamp records when the order entered status.
func (o *Order) stamp(status Status, at time.Time) {
	switch status {
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCompleted:
		o.CompletedAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
	}
}

// Actor is whoever drives a transition.
type Actor struct {
	ID      string
	IsAdmin bool
}
