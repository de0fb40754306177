// AngelaMos | 2026
// fees.go

package money

import (
	"github.com/shopspring/decimal"
)

// FeeSchedule is the subset of marketplace settings a checkout quote needs.
type FeeSchedule struct {
	BuyerProtectionPercent decimal.Decimal
	BuyerProtectionFixed   Amount
	ShippingFee            Amount
}

type Quote struct {
	Price              Amount `json:"price"`
	BuyerProtectionFee Amount `json:"buyer_protection_fee"`
	ShippingFee        Amount `json:"shipping_fee"`
	Total              Amount `json:"total"`
}

// BuyerProtectionFee is price × percent/100 + fixed, rounded half-up to the
// centime.
func BuyerProtectionFee(price Amount, percent decimal.Decimal, fixed Amount) Amount {
	variable := price.Decimal().Mul(percent).Div(hundred)
	return round(variable).Add(fixed)
}

func NewQuote(price Amount, fees FeeSchedule) Quote {
	protection := BuyerProtectionFee(price, fees.BuyerProtectionPercent, fees.BuyerProtectionFixed)

	return Quote{
		Price:              price,
		BuyerProtectionFee: protection,
		ShippingFee:        fees.ShippingFee,
		Total:              price.Add(protection).Add(fees.ShippingFee),
	}
}

// Commission is the platform's cut of a sale at the given percent.
func Commission(price Amount, percent decimal.Decimal) Amount {
	return round(price.Decimal().Mul(percent).Div(hundred))
}

func (a Amount) Add(b Amount) Amount {
	return a + b
}

func (a Amount) Sub(b Amount) Amount {
	return a - b
}
