// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type Type string

const (
	TypeSale            Type = "sale"
	TypeBump            Type = "bump"
	TypeFeature         Type = "feature"
	TypeDeposit         Type = "deposit"
	TypeSubscription    Type = "subscription"
	TypeBuyerProtection Type = "buyer_protection"
)

func (t Type) Label() string {
	switch t {
	case TypeSale:
		return "Vente"
	case TypeBump:
		return "Remontée"
	case TypeFeature:
		return "Mise en avant"
	case TypeDeposit:
		return "Dépôt"
	case TypeSubscription:
		return "Abonnement Pro"
	case TypeBuyerProtection:
		return "Protection acheteur"
	}
	return string(t)
}

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	// StatusCancelled marks a movement voided by an order cancellation.
	StatusCancelled Status = "cancelled"
)

// Transaction is an append-only money movement. Only a pending sale may later
// be settled, to completed or cancelled, when its order ends.
type Transaction struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Type      Type         `db:"type"`
	ProductID *string      `db:"product_id"`
	OrderID   *string      `db:"order_id"`
	Amount    money.Amount `db:"amount"`
	Status    Status       `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
}

type TransactionResponse struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Type      Type         `json:"type"`
	TypeLabel string       `json:"type_label"`
	ProductID *string      `json:"product_id,omitempty"`
	OrderID   *string      `json:"order_id,omitempty"`
	Amount    money.Amount `json:"amount"`
	Status    Status       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func ToTransactionResponse(t *Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Type:      t.Type,
		TypeLabel: t.Type.Label(),
		ProductID: t.ProductID,
		OrderID:   t.OrderID,
		Amount:    t.Amount,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

func ToTransactionResponseList(txs []Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, ToTransactionResponse(&txs[i]))
	}
	return out
}

type ListParams struct {
	Page     int
	PageSize int
	UserID   string
	Type     Type
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
