// AngelaMos | 2026
// dto.go

package billing

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type DepositRequest struct {
	Amount money.Amount `json:"amount" validate:"required"`
}

type BoostRequest struct {
	Kind          string `json:"kind"           validate:"required,oneof=bump feature"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card balance"`
}

type BalanceResponse struct {
	Balance      money.Amount `json:"balance"`
	IsPro        bool         `json:"is_pro"`
	ProExpiresAt *time.Time   `json:"pro_expires_at,omitempty"`
}

type BoostResponse struct {
	ProductID    string       `json:"product_id"`
	Kind         string       `json:"kind"`
	Price        money.Amount `json:"price"`
	IsFeatured   bool         `json:"is_featured"`
	BoostedUntil *time.Time   `json:"boosted_until,omitempty"`
}

type PricesResponse struct {
	Bump            money.Amount `json:"bump"`
	Feature         money.Amount `json:"feature"`
	ProSubscription money.Amount `json:"pro_subscription"`
}
