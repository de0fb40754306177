// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/notify"
)

// Stores are the repositories a moderation decision writes through inside
// one transaction.
type Stores struct {
	Products Repository
	Outbox   notify.Outbox
}

type StoreFactory func(tx core.DBTX) Stores

func TxStores(tx core.DBTX) Stores {
	return Stores{
		Products: NewRepository(tx),
		Outbox:   notify.NewOutbox(tx),
	}
}

type Service struct {
	repo   Repository
	tx     core.Transactor
	stores StoreFactory
}

func NewService(repo Repository, tx core.Transactor, stores StoreFactory) *Service {
	return &Service{repo: repo, tx: tx, stores: stores}
}

func (s *Service) Create(ctx context.Context, sellerID string, req CreateProductRequest) (*Product, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("create product: %w", core.ErrUnauthorized)
	}
	if !slices.Contains(Conditions, req.Condition) {
		return nil, fmt.Errorf("create product: unknown condition %q: %w", req.Condition, core.ErrInvalidInput)
	}

	p := &Product{
		ID:            uuid.New().String(),
		SellerID:      sellerID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Condition:     req.Condition,
		Size:          req.Size,
		City:          req.City,
		Images:        ImageList(req.Images),
		Status:        StatusPending,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product submitted", "product_id", p.ID, "seller_id", sellerID)
	return p, nil
}

// Get hides pending and rejected listings from everyone but the seller and admins.
func (s *Service) Get(ctx context.Context, id, viewerID string, viewerIsAdmin bool) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status == StatusApproved || p.Status == StatusSold {
		return p, nil
	}
	if viewerIsAdmin || p.OwnedBy(viewerID) {
		return p, nil
	}
	return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
}

// Update edits a listing. Any edit sends the listing back to moderation.
func (s *Service) Update(ctx context.Context, sellerID, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.OwnedBy(sellerID) {
		return nil, fmt.Errorf("update product: %w", core.ErrForbidden)
	}
	if p.Status == StatusSold {
		return nil, fmt.Errorf("update product: listing already sold: %w", core.ErrInvalidTransition)
	}

	if req.Condition != nil && !slices.Contains(Conditions, *req.Condition) {
		return nil, fmt.Errorf("update product: unknown condition %q: %w", *req.Condition, core.ErrInvalidInput)
	}

	applyUpdate(p, req)
	p.Status = StatusPending

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func applyUpdate(p *Product, req UpdateProductRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		p.OriginalPrice = req.OriginalPrice
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Condition != nil {
		p.Condition = *req.Condition
	}
	if req.Size != nil {
		p.Size = req.Size
	}
	if req.City != nil {
		p.City = *req.City
	}
	if len(req.Images) > 0 {
		p.Images = ImageList(req.Images)
	}
}

func (s *Service) Delete(ctx context.Context, userID string, isAdmin bool, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && !p.OwnedBy(userID) {
		return fmt.Errorf("delete product: %w", core.ErrForbidden)
	}
	if p.Status == StatusSold {
		return fmt.Errorf("delete product: listing already sold: %w", core.ErrInvalidTransition)
	}

	return s.repo.SoftDelete(ctx, id)
}

// Browse lists the public catalogue.
func (s *Service) Browse(ctx context.Context, params ListParams) ([]Product, int, error) {
	params.Status = StatusApproved
	return s.repo.List(ctx, params)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string, params ListParams) ([]Product, int, error) {
	params.SellerID = sellerID
	return s.repo.List(ctx, params)
}

func (s *Service) ListAll(ctx context.Context, params ListParams) ([]Product, int, error) {
	return s.repo.List(ctx, params)
}

// Moderate approves or rejects a pending listing and tells the seller.
func (s *Service) Moderate(ctx context.Context, adminID, id string, to Status, version int) (*Product, error) {
	if to != StatusApproved && to != StatusRejected {
		return nil, fmt.Errorf("moderate product: %q is not a decision: %w", to, core.ErrInvalidInput)
	}

	ctx, span := core.StartSpan(ctx, "product.moderate",
		attribute.String("product.id", id),
		attribute.String("product.decision", string(to)),
	)
	defer span.End()

	var updated *Product
	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		stores := s.stores(tx)

		current, err := stores.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return fmt.Errorf("moderate product: status is %s: %w", current.Status, core.ErrInvalidTransition)
		}

		updated, err = stores.Products.SetStatus(ctx, id, StatusPending, to, version)
		if err != nil {
			return err
		}

		return stores.Outbox.Enqueue(ctx, notify.ProductStatusChanged(
			adminID, updated.SellerID, updated.ID, updated.Title, string(to),
		))
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	slog.InfoContext(ctx, "product moderated",
		"product_id", id,
		"admin_id", adminID,
		"status", to,
	)
	return updated, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}
