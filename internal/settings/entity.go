// AngelaMos | 2026
// entity.go

package settings

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/balaoui/internal/config"
	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/money"
)

const (
	KeyAppSettings = "app_settings"
	KeyAppContent  = "app_content"
)

const (
	PaymentCard    = "card"
	PaymentBalance = "balance"
)

type AppSettings struct {
	CommissionRate            decimal.Decimal `json:"commission_rate"`
	ProCommissionRate         decimal.Decimal `json:"pro_commission_rate"`
	BumpPrice                 money.Amount    `json:"bump_price"`
	FeaturePrice              money.Amount    `json:"feature_price"`
	ProSubscriptionPrice      money.Amount    `json:"pro_subscription_price"`
	BuyerProtectionFeePercent decimal.Decimal `json:"buyer_protection_fee_percent"`
	BuyerProtectionFeeFixed   money.Amount    `json:"buyer_protection_fee_fixed"`
	ShippingFee               money.Amount    `json:"shipping_fee"`
	PaymentMethods            []string        `json:"payment_methods"`
}

type AppContent struct {
	LogoURL       string `json:"logo_url"`
	HeroImageURL  string `json:"hero_image_url"`
	HeroSlogan    string `json:"hero_slogan"`
	HeroSubSlogan string `json:"hero_sub_slogan"`
}

func (s AppSettings) Fees() money.FeeSchedule {
	return money.FeeSchedule{
		BuyerProtectionPercent: s.BuyerProtectionFeePercent,
		BuyerProtectionFixed:   s.BuyerProtectionFeeFixed,
		ShippingFee:            s.ShippingFee,
	}
}

func (s AppSettings) PaymentEnabled(method string) bool {
	return slices.Contains(s.PaymentMethods, method)
}

// CommissionFor returns the rate charged to a seller of the given tier.
func (s AppSettings) CommissionFor(isPro bool) decimal.Decimal {
	if isPro {
		return s.ProCommissionRate
	}
	return s.CommissionRate
}

func (s AppSettings) Validate() error {
	hundred := decimal.NewFromInt(100)
	for name, rate := range map[string]decimal.Decimal{
		"commission_rate":              s.CommissionRate,
		"pro_commission_rate":          s.ProCommissionRate,
		"buyer_protection_fee_percent": s.BuyerProtectionFeePercent,
	} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("%s must be between 0 and 100: %w", name, core.ErrInvalidInput)
		}
	}

	for name, amount := range map[string]money.Amount{
		"bump_price":                 s.BumpPrice,
		"feature_price":              s.FeaturePrice,
		"pro_subscription_price":     s.ProSubscriptionPrice,
		"buyer_protection_fee_fixed": s.BuyerProtectionFeeFixed,
		"shipping_fee":               s.ShippingFee,
	} {
		if amount < 0 {
			return fmt.Errorf("%s cannot be negative: %w", name, core.ErrInvalidInput)
		}
	}

	if len(s.PaymentMethods) == 0 {
		return fmt.Errorf("at least one payment method is required: %w", core.ErrInvalidInput)
	}
	for _, m := range s.PaymentMethods {
		if m != PaymentCard && m != PaymentBalance {
			return fmt.Errorf("unknown payment method %q: %w", m, core.ErrInvalidInput)
		}
	}

	return nil
}

// DefaultsFromConfig builds the settings seeded into an empty database.
func DefaultsFromConfig(cfg config.MarketplaceConfig) AppSettings {
	return AppSettings{
		CommissionRate:            decimal.NewFromFloat(cfg.CommissionRate),
		ProCommissionRate:         decimal.NewFromFloat(cfg.ProCommissionRate),
		BumpPrice:                 money.FromMAD(cfg.BumpPrice),
		FeaturePrice:              money.FromMAD(cfg.FeaturePrice),
		ProSubscriptionPrice:      money.FromMAD(cfg.ProPrice),
		BuyerProtectionFeePercent: decimal.NewFromFloat(cfg.BuyerProtectionFeePercent),
		BuyerProtectionFeeFixed:   money.FromMAD(cfg.BuyerProtectionFeeFixed),
		ShippingFee:               money.FromMAD(cfg.ShippingFee),
		PaymentMethods:            slices.Clone(cfg.PaymentMethods),
	}
}

func DefaultContent() AppContent {
	return AppContent{
		LogoURL:       "https://i.ibb.co/9vM9yBv/logo-no-background.png",
		HeroImageURL:  "https://images.unsplash.com/photo-1556905055-8f358a7a47b2?q=80&w=2070&auto=format&fit=crop",
		HeroSlogan:    "BALAoui. Trouvez. Partagez.",
		HeroSubSlogan: "La marketplace C2C nouvelle génération au Maroc. Achetez et vendez des articles de seconde main en toute confiance.",
	}
}
