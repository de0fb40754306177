// AngelaMos | 2026
// money.go

// Package money holds MAD amounts as integer centimes and the fee arithmetic
// applied at checkout.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/balaoui/internal/core"
)

// Amount is a quantity of Moroccan dirhams expressed in centimes.
type Amount int64

const centimesPerDirham = 100

// MaxAmount bounds every amount read from input: ten billion dirhams. Sums of a
// handful of amounts at this size stay far inside int64.
const MaxAmount Amount = 10_000_000_000 * centimesPerDirham

// ErrOutOfRange is returned for input amounts beyond ±MaxAmount.
var ErrOutOfRange = fmt.Errorf("%w: amount out of range", core.ErrInvalidInput)

var (
	hundred  = decimal.NewFromInt(centimesPerDirham)
	maxScale = decimal.NewFromInt(int64(MaxAmount))
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// FromMAD converts trusted values such as configured prices.
func FromMAD(mad float64) Amount {
	return round(decimal.NewFromFloat(mad))
}

// FromDecimal converts dirhams to centimes, rounding half away from zero.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	scaled := d.Mul(hundred).Round(0)
	if scaled.Abs().GreaterThan(maxScale) {
		return 0, fmt.Errorf("%s: %w", d.String(), ErrOutOfRange)
	}
	return Amount(scaled.IntPart()), nil
}

func round(d decimal.Decimal) Amount {
	return Amount(d.Mul(hundred).Round(0).IntPart())
}

// Parse reads a decimal string such as "150" or "12.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	a, err := FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	return a, nil
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) MAD() float64 {
	return a.Decimal().InexactFloat64()
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

func (a Amount) IsPositive() bool {
	return a > 0
}

// MarshalJSON renders the amount in dirhams, e.g. 197.5.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal().String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*a = v
	return nil
}
