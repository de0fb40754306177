// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/product"
	"github.com/carterperez-dev/balaoui/internal/settings"
	"github.com/carterperez-dev/balaoui/internal/user"
)

// MaxDeposit caps a single top-up.
var MaxDeposit = money.FromMAD(20000)

type Stores struct {
	Users    user.Repository
	Products product.Repository
	Ledger   ledger.Repository
}

type StoreFactory func(tx core.DBTX) Stores

func TxStores(tx core.DBTX) Stores {
	return Stores{
		Users:    user.NewRepository(tx),
		Products: product.NewRepository(tx),
		Ledger:   ledger.NewRepository(tx),
	}
}

type SettingsSource interface {
	AppSettings(ctx context.Context) (settings.AppSettings, error)
}

type Service struct {
	users    user.Repository
	tx       core.Transactor
	stores   StoreFactory
	settings SettingsSource
	now      func() time.Time
}

func NewService(users user.Repository, tx core.Transactor, stores StoreFactory, settingsSrc SettingsSource) *Service {
	return &Service{
		users:    users,
		tx:       tx,
		stores:   stores,
		settings: settingsSrc,
		now:      time.Now,
	}
}

func (s *Service) Prices(ctx context.Context) (PricesResponse, error) {
	cfg, err := s.settings.AppSettings(ctx)
	if err != nil {
		return PricesResponse{}, fmt.Errorf("load prices: %w", err)
	}
	return PricesResponse{
		Bump:            cfg.BumpPrice,
		Feature:         cfg.FeaturePrice,
		ProSubscription: cfg.ProSubscriptionPrice,
	}, nil
}

// Deposit tops up the member's balance. Card capture is simulated.
func (s *Service) Deposit(ctx context.Context, userID string, amount money.Amount) (*user.User, error) {
	if !amount.IsPositive() || amount > MaxDeposit {
		return nil, fmt.Errorf("deposit %s: %w", amount, core.ErrInvalidInput)
	}

	var updated *user.User
	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		if _, err := st.Users.Credit(ctx, userID, amount); err != nil {
			return err
		}

		if err := st.Ledger.Append(ctx, &ledger.Transaction{
			UserID: userID,
			Type:   ledger.TypeDeposit,
			Amount: amount,
			Status: ledger.StatusCompleted,
		}); err != nil {
			return err
		}

		var err error
		updated, err = st.Users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	slog.InfoContext(ctx, "balance topped up", "user_id", userID, "amount", amount.String())
	return updated, nil
}

// Boost promotes an approved listing. A bump lifts it to the top for a day;
// a feature pins it to the home page.
func (s *Service) Boost(ctx context.Context, userID, productID string, req BoostRequest) (*BoostResponse, error) {
	ctx, span := core.StartSpan(ctx, "billing.boost",
		attribute.String("product.id", productID),
		attribute.String("boost.kind", req.Kind),
	)
	defer span.End()

	cfg, err := s.settings.AppSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("boost: %w", err)
	}
	if !cfg.PaymentEnabled(req.PaymentMethod) {
		return nil, fmt.Errorf("boost: payment method %q: %w", req.PaymentMethod, core.ErrInvalidInput)
	}

	var (
		price      money.Amount
		ledgerType ledger.Type
	)
	switch req.Kind {
	case product.BoostBump:
		price, ledgerType = cfg.BumpPrice, ledger.TypeBump
	case product.BoostFeature:
		price, ledgerType = cfg.FeaturePrice, ledger.TypeFeature
	default:
		return nil, fmt.Errorf("boost kind %q: %w", req.Kind, core.ErrInvalidInput)
	}

	var boosted *product.Product
	err = s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		p, err := st.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if !p.OwnedBy(userID) {
			return core.ErrForbidden
		}
		if !p.Purchasable() {
			return fmt.Errorf("product is %s: %w", p.Status, core.ErrInvalidTransition)
		}

		featured := p.IsFeatured
		until := p.BoostedUntil
		if req.Kind == product.BoostFeature {
			if p.IsFeatured {
				return fmt.Errorf("already featured: %w", core.ErrConflict)
			}
			featured = true
		} else {
			next := s.now().Add(product.BumpPeriod)
			until = &next
		}

		if req.PaymentMethod == settings.PaymentBalance {
			if _, err := st.Users.Debit(ctx, userID, price); err != nil {
				return err
			}
		}

		boosted, err = st.Products.SetBoost(ctx, productID, featured, until)
		if err != nil {
			return err
		}

		return st.Ledger.Append(ctx, &ledger.Transaction{
			UserID:    userID,
			Type:      ledgerType,
			ProductID: &productID,
			Amount:    price,
			Status:    ledger.StatusCompleted,
		})
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("boost: %w", err)
	}

	slog.InfoContext(ctx, "listing boosted",
		"product_id", productID,
		"kind", req.Kind,
		"payment_method", req.PaymentMethod,
		"price", price.String(),
	)

	return &BoostResponse{
		ProductID:    boosted.ID,
		Kind:         req.Kind,
		Price:        price,
		IsFeatured:   boosted.IsFeatured,
		BoostedUntil: boosted.BoostedUntil,
	}, nil
}

// SubscribePro charges the pro price to the balance. A running subscription
// is extended from its current expiry.
func (s *Service) SubscribePro(ctx context.Context, userID string) (*user.User, error) {
	cfg, err := s.settings.AppSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe pro: %w", err)
	}

	var updated *user.User
	err = s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		u, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if _, err := st.Users.Debit(ctx, userID, cfg.ProSubscriptionPrice); err != nil {
			return err
		}

		start := s.now()
		if u.ProActive(start) && u.ProExpiresAt != nil {
			start = *u.ProExpiresAt
		}
		expires := start.Add(user.ProPeriod)

		updated, err = st.Users.SetPro(ctx, userID, true, &expires)
		if err != nil {
			return err
		}

		return st.Ledger.Append(ctx, &ledger.Transaction{
			UserID: userID,
			Type:   ledger.TypeSubscription,
			Amount: cfg.ProSubscriptionPrice,
			Status: ledger.StatusCompleted,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe pro: %w", err)
	}

	slog.InfoContext(ctx, "pro subscription purchased", "user_id", userID, "expires_at", updated.ProExpiresAt)
	return updated, nil
}

func (s *Service) Balance(ctx context.Context, userID string) (*user.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("balance: %w", core.ErrUnauthorized)
	}
	return s.users.GetByID(ctx, userID)
}
