// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/order"
	"github.com/carterperez-dev/balaoui/internal/product"
)

type Stores struct {
	Reviews  Repository
	Orders   order.Repository
	Products product.Repository
	Outbox   notify.Outbox
}

type StoreFactory func(tx core.DBTX) Stores

func TxStores(tx core.DBTX) Stores {
	return Stores{
		Reviews:  NewRepository(tx),
		Orders:   order.NewRepository(tx),
		Products: product.NewRepository(tx),
		Outbox:   notify.NewOutbox(tx),
	}
}

type Service struct {
	reviews Repository
	tx      core.Transactor
	stores  StoreFactory
}

func NewService(reviews Repository, tx core.Transactor, stores StoreFactory) *Service {
	return &Service{
		reviews: reviews,
		tx:      tx,
		stores:  stores,
	}
}

// Create records the buyer's rating of a completed order. Each order takes one
// review; the seller's rating is recomputed in the same transaction.
func (s *Service) Create(ctx context.Context, reviewerID string, req CreateReviewRequest) (*Review, error) {
	ctx, span := core.StartSpan(ctx, "review.create",
		attribute.String("order.id", req.OrderID),
		attribute.Int("review.rating", req.Rating),
	)
	defer span.End()

	if reviewerID == "" {
		return nil, fmt.Errorf("create review: %w", core.ErrUnauthorized)
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, fmt.Errorf("create review: rating must be between %d and %d: %w",
			MinRating, MaxRating, core.ErrInvalidInput)
	}

	var created *Review
	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		o, err := st.Orders.GetByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if o.BuyerID != reviewerID {
			return fmt.Errorf("review order %s: not the buyer: %w", o.ID, core.ErrForbidden)
		}
		if o.Status != order.StatusCompleted {
			return fmt.Errorf("review order %s: order is %s: %w", o.ID, o.Status, core.ErrInvalidTransition)
		}

		if err := st.Reviews.LockSeller(ctx, o.SellerID); err != nil {
			return err
		}

		rev := &Review{
			ID:         uuid.New().String(),
			OrderID:    o.ID,
			ProductID:  o.ProductID,
			ReviewerID: reviewerID,
			SellerID:   o.SellerID,
			Rating:     req.Rating,
			Comment:    strings.TrimSpace(req.Comment),
		}
		if err := st.Reviews.Create(ctx, rev); err != nil {
			return err
		}
		if err := st.Reviews.RefreshSellerStats(ctx, o.SellerID); err != nil {
			return err
		}

		title := ""
		if p, err := st.Products.GetByID(ctx, o.ProductID); err == nil {
			title = p.Title
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}

		if err := st.Outbox.Enqueue(ctx, notify.ReviewPosted(
			reviewerID, o.SellerID, o.ID, o.ProductID, title, rev.Rating,
		)); err != nil {
			return err
		}

		created = rev
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	slog.InfoContext(ctx, "review posted",
		"review_id", created.ID,
		"order_id", created.OrderID,
		"seller_id", created.SellerID,
		"rating", created.Rating,
	)
	return created, nil
}

func (s *Service) ListForSeller(ctx context.Context, sellerID string, params ListParams) ([]Review, int, error) {
	params.Normalize()

	reviews, total, err := s.reviews.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list seller reviews: %w", err)
	}
	return reviews, total, nil
}
