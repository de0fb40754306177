// AngelaMos | 2026
// dto_test.go

package product

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/balaoui/internal/money"
)

func TestCreateRequestPriceBounds(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())

	base := func(price money.Amount) CreateProductRequest {
		return CreateProductRequest{
			Title:     "Caftan brodé",
			Price:     price,
			Category:  "women",
			Condition: "good",
			City:      "Fès",
			Images:    []string{"https://cdn.example.com/a.jpg"},
		}
	}

	assert.NoError(t, v.Struct(base(money.FromMAD(1_000_000))))
	assert.Error(t, v.Struct(base(money.FromMAD(1_000_000.01))))
	assert.Error(t, v.Struct(base(0)))

	tooHigh := money.FromMAD(2_000_000)
	req := base(money.FromMAD(150))
	req.OriginalPrice = &tooHigh
	assert.Error(t, v.Struct(req))
}
