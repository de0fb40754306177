// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/product"
	"github.com/carterperez-dev/balaoui/internal/settings"
	"github.com/carterperez-dev/balaoui/internal/user"
)

// Stores groups every repository an order mutation touches so they all share
// one transaction.
type Stores struct {
	Orders   Repository
	Products product.Repository
	Users    user.Repository
	Ledger   ledger.Repository
	Outbox   notify.Outbox
}

type StoreFactory func(tx core.DBTX) Stores

func TxStores(tx core.DBTX) Stores {
	return Stores{
		Orders:   NewRepository(tx),
		Products: product.NewRepository(tx),
		Users:    user.NewRepository(tx),
		Ledger:   ledger.NewRepository(tx),
		Outbox:   notify.NewOutbox(tx),
	}
}

type SettingsSource interface {
	AppSettings(ctx context.Context) (settings.AppSettings, error)
}

type Service struct {
	repo     Repository
	catalog  product.Repository
	tx       core.Transactor
	stores   StoreFactory
	settings SettingsSource
	now      func() time.Time
}

func NewService(
	repo Repository,
	catalog product.Repository,
	tx core.Transactor,
	stores StoreFactory,
	settingsSrc SettingsSource,
) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		tx:       tx,
		stores:   stores,
		settings: settingsSrc,
		now:      time.Now,
	}
}

// Quote prices a listing at the current fee schedule without buying it.
func (s *Service) Quote(ctx context.Context, productID string) (money.Quote, error) {
	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return money.Quote{}, err
	}
	if !p.Purchasable() {
		return money.Quote{}, fmt.Errorf("quote: listing is %s: %w", p.Status, core.ErrInvalidTransition)
	}

	cfg, err := s.settings.AppSettings(ctx)
	if err != nil {
		return money.Quote{}, fmt.Errorf("quote: %w", err)
	}
	return money.NewQuote(p.Price, cfg.Fees()), nil
}

// Checkout buys an approved product. The order is created directly in Paid:
// card payments are simulated, balance payments are debited here.
func (s *Service) Checkout(ctx context.Context, buyerID string, req CheckoutRequest) (*Order, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("checkout: %w", core.ErrUnauthorized)
	}

	ctx, span := core.StartSpan(ctx, "order.checkout",
		attribute.String("product.id", req.ProductID),
		attribute.String("order.payment_method", req.PaymentMethod),
	)
	defer span.End()

	cfg, err := s.settings.AppSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if !cfg.PaymentEnabled(req.PaymentMethod) {
		return nil, fmt.Errorf("checkout: payment method %q disabled: %w", req.PaymentMethod, core.ErrInvalidInput)
	}

	var created *Order
	err = s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		buyer, err := st.Users.GetByID(ctx, buyerID)
		if err != nil {
			return err
		}
		if buyer.IsBanned {
			return fmt.Errorf("checkout: %w", core.ErrBanned)
		}

		p, err := st.Products.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if p.OwnedBy(buyerID) {
			return fmt.Errorf("checkout: cannot buy your own listing: %w", core.ErrForbidden)
		}
		if p.Status == product.StatusSold {
			return fmt.Errorf("checkout: %w", core.ErrConflict)
		}
		if !p.Purchasable() {
			return fmt.Errorf("checkout: listing is %s: %w", p.Status, core.ErrInvalidTransition)
		}

		seller, err := st.Users.GetByID(ctx, p.SellerID)
		if err != nil {
			return err
		}

		quote := money.NewQuote(p.Price, cfg.Fees())

		if req.PaymentMethod == settings.PaymentBalance {
			if _, err := st.Users.Debit(ctx, buyerID, quote.Total); err != nil {
				return err
			}
		}

		o := &Order{
			ID:                 uuid.New().String(),
			ProductID:          p.ID,
			BuyerID:            buyerID,
			SellerID:           p.SellerID,
			Price:              quote.Price,
			BuyerProtectionFee: quote.BuyerProtectionFee,
			ShippingFee:        quote.ShippingFee,
			TotalAmount:        quote.Total,
			PaymentMethod:      req.PaymentMethod,
			Status:             StatusPaid,
		}
		if err := st.Orders.Create(ctx, o); err != nil {
			return err
		}

		if _, err := st.Products.SetStatus(ctx, p.ID, product.StatusApproved, product.StatusSold, p.Version); err != nil {
			return err
		}

		commission := money.Commission(p.Price, cfg.CommissionFor(seller.ProActive(s.now())))
		orderID, productID := o.ID, p.ID

		if err := st.Ledger.Append(ctx, &ledger.Transaction{
			UserID:    buyerID,
			Type:      ledger.TypeBuyerProtection,
			ProductID: &productID,
			OrderID:   &orderID,
			Amount:    quote.BuyerProtectionFee,
			Status:    ledger.StatusCompleted,
		}); err != nil {
			return err
		}
		if err := st.Ledger.Append(ctx, &ledger.Transaction{
			UserID:    p.SellerID,
			Type:      ledger.TypeSale,
			ProductID: &productID,
			OrderID:   &orderID,
			Amount:    p.Price.Sub(commission),
			Status:    ledger.StatusPending,
		}); err != nil {
			return err
		}

		if err := st.Outbox.Enqueue(ctx, notify.OrderStatusChanged(
			buyerID, p.SellerID, o.ID, p.ID, p.Title, string(StatusPaid),
		)); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	core.AddSpanEvent(ctx, "order.created",
		attribute.String("order.id", created.ID),
		attribute.String("order.total", created.TotalAmount.String()),
	)
	slog.InfoContext(ctx, "order created",
		"order_id", created.ID,
		"product_id", created.ProductID,
		"buyer_id", buyerID,
		"total", created.TotalAmount.String(),
	)

	return created, nil
}

// Ship attaches tracking details. Shipping an already shipped order only
// replaces the tracking details.
func (s *Service) Ship(ctx context.Context, actor Actor, orderID string, req ShipRequest) (*Order, error) {
	return s.transition(ctx, actor, orderID, StatusShipped, nil, func(o *Order) error {
		if req.TrackingNumber == "" || req.ShippingProvider == "" {
			return fmt.Errorf("ship: tracking number and provider required: %w", core.ErrInvalidInput)
		}
		o.TrackingNumber = &req.TrackingNumber
		o.ShippingProvider = &req.ShippingProvider
		return nil
	})
}

// Deliver is the buyer confirming reception.
func (s *Service) Deliver(ctx context.Context, actor Actor, orderID string, version *int) (*Order, error) {
	return s.transition(ctx, actor, orderID, StatusDelivered, version, nil)
}

// Complete releases the seller's funds.
func (s *Service) Complete(ctx context.Context, actor Actor, orderID string, version *int) (*Order, error) {
	return s.transition(ctx, actor, orderID, StatusCompleted, version, nil)
}

// Cancel voids the sale and puts the listing back on the market.
func (s *Service) Cancel(ctx context.Context, actor Actor, orderID string, version *int) (*Order, error) {
	return s.transition(ctx, actor, orderID, StatusCancelled, version, nil)
}

// UpdateStatus is the admin's generic transition. Setting the current status
// again returns the order untouched.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, orderID string, to Status, version *int) (*Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("update order status: unknown status %q: %w", to, core.ErrInvalidInput)
	}
	if to == StatusShipped {
		return s.transition(ctx, actor, orderID, to, version, func(o *Order) error {
			if o.TrackingNumber == nil {
				return fmt.Errorf("update order status: use ship to add tracking: %w", core.ErrInvalidInput)
			}
			return nil
		})
	}
	return s.transition(ctx, actor, orderID, to, version, nil)
}

func (s *Service) transition(
	ctx context.Context,
	actor Actor,
	orderID string,
	to Status,
	version *int,
	mutate func(o *Order) error,
) (*Order, error) {
	ctx, span := core.StartSpan(ctx, "order.transition",
		attribute.String("order.id", orderID),
		attribute.String("order.to", string(to)),
	)
	defer span.End()

	var (
		result *Order
		from   Status
	)
	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		o, err := st.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if version != nil && *version != o.Version {
			return fmt.Errorf("order %s: stale version %d: %w", orderID, *version, core.ErrConflict)
		}
		if !actor.IsAdmin && !o.IsParty(actor.ID) {
			return fmt.Errorf("order %s: %w", orderID, core.ErrNotFound)
		}

		from = o.Status
		if from != to && !CanTransition(from, to) {
			return fmt.Errorf("order %s: %s -> %s: %w", orderID, from, to, core.ErrInvalidTransition)
		}
		if err := authorize(actor, o, to); err != nil {
			return err
		}
		if from == to && to != StatusShipped {
			result = o
			return nil
		}

		if mutate != nil {
			if err := mutate(o); err != nil {
				return err
			}
		}

		o.Status = to
		if from != to {
			o.stamp(to, s.now().UTC())
		}

		if err := st.Orders.Save(ctx, o); err != nil {
			return err
		}

		if err := s.applySideEffects(ctx, st, actor, o, from); err != nil {
			return err
		}

		result = o
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	if from != to {
		slog.InfoContext(ctx, "order status changed",
			"order_id", orderID,
			"actor_id", actor.ID,
			"from", from,
			"to", to,
		)
	}

	return result, nil
}

func (s *Service) applySideEffects(ctx context.Context, st Stores, actor Actor, o *Order, from Status) error {
	p, err := st.Products.GetByID(ctx, o.ProductID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	title := ""
	if p != nil {
		title = p.Title
	}

	var events []notify.Event

	switch o.Status {
	case StatusShipped:
		events = append(events, notify.OrderShipped(
			actor.ID, o.BuyerID, o.ID, o.ProductID, title,
			deref(o.ShippingProvider), deref(o.TrackingNumber),
		))

	case StatusCompleted:
		payout, err := st.Ledger.CompleteSale(ctx, o.ID)
		if err != nil {
			return err
		}
		if payout > 0 {
			if _, err := st.Users.Credit(ctx, o.SellerID, payout); err != nil {
				return err
			}
		}
		events = append(events, notify.OrderStatusChanged(
			actor.ID, o.SellerID, o.ID, o.ProductID, title, string(o.Status),
		))

	case StatusCancelled:
		if p != nil && p.Status == product.StatusSold {
			if _, err := st.Products.SetStatus(ctx, p.ID, product.StatusSold, product.StatusApproved, p.Version); err != nil {
				return err
			}
		}
		if err := st.Ledger.CancelOrder(ctx, o.ID); err != nil {
			return err
		}
		if o.PaymentMethod == settings.PaymentBalance && from != StatusPendingPayment {
			if _, err := st.Users.Credit(ctx, o.BuyerID, o.TotalAmount); err != nil {
				return err
			}
		}
		events = append(events, s.statusEvents(actor, o, title)...)

	case StatusDisputed:
		events = append(events, s.statusEvents(actor, o, title)...)
	}

	if len(events) == 0 {
		return nil
	}
	return st.Outbox.Enqueue(ctx, events...)
}

// statusEvents tells the other party, or both parties when an admin acted.
func (s *Service) statusEvents(actor Actor, o *Order, title string) []notify.Event {
	if o.IsParty(actor.ID) {
		return []notify.Event{notify.OrderStatusChanged(
			actor.ID, o.Counterparty(actor.ID), o.ID, o.ProductID, title, string(o.Status),
		)}
	}
	return []notify.Event{
		notify.OrderStatusChanged(actor.ID, o.BuyerID, o.ID, o.ProductID, title, string(o.Status)),
		notify.OrderStatusChanged(actor.ID, o.SellerID, o.ID, o.ProductID, title, string(o.Status)),
	}
}

// authorize decides who may drive an order to a status.
func authorize(actor Actor, o *Order, to Status) error {
	if actor.IsAdmin {
		return nil
	}

	allowed := false
	switch to {
	case StatusShipped:
		allowed = actor.ID == o.SellerID
	case StatusDelivered:
		allowed = actor.ID == o.BuyerID
	case StatusCompleted:
		allowed = actor.ID == o.BuyerID && (o.Status == StatusDelivered || o.Status == StatusCompleted)
	case StatusCancelled:
		allowed = o.Status == StatusPaid || o.Status == StatusPendingPayment || o.Status == StatusCancelled
	}

	if !allowed {
		return fmt.Errorf("order %s: %s not allowed for this user: %w", o.ID, to, core.ErrForbidden)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !o.IsParty(actor.ID) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	return o, nil
}

func (s *Service) ListPurchases(ctx context.Context, buyerID string, params ListParams) ([]Order, int, error) {
	params.BuyerID = buyerID
	params.SellerID = ""
	return s.repo.List(ctx, params)
}

func (s *Service) ListSales(ctx context.Context, sellerID string, params ListParams) ([]Order, int, error) {
	params.SellerID = sellerID
	params.BuyerID = ""
	return s.repo.List(ctx, params)
}

func (s *Service) ListAll(ctx context.Context, params ListParams) ([]Order, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
