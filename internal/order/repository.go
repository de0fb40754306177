// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	// Save writes the mutable lifecycle fields if o.Version is still current
	// and bumps the version.
	Save(ctx context.Context, o *Order) error
	List(ctx context.Context, params ListParams) ([]Order, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

const orderColumns = `
	id, product_id, buyer_id, seller_id, price, buyer_protection_fee,
	shipping_fee, total_amount, payment_method, status, tracking_number,
	shipping_provider, shipped_at, delivered_at, completed_at, cancelled_at,
	version, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (
			id, product_id, buyer_id, seller_id, price, buyer_protection_fee,
			shipping_fee, total_amount, payment_method, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + orderColumns

	err := r.db.GetContext(ctx, o, query,
		o.ID,
		o.ProductID,
		o.BuyerID,
		o.SellerID,
		o.Price,
		o.BuyerProtectionFee,
		o.ShippingFee,
		o.TotalAmount,
		o.PaymentMethod,
		o.Status,
	)
	if err != nil {
		// orders_live_product_key: someone else holds a live order on the product
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create order: product already sold: %w", core.ErrConflict)
		}
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.getOne(ctx, "get order", `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return r.getOne(ctx, "lock order", `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) getOne(ctx context.Context, op, query string, args ...any) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &o, nil
}

func (r *repository) Save(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders
		SET status = $3, tracking_number = $4, shipping_provider = $5,
		    shipped_at = $6, delivered_at = $7, completed_at = $8, cancelled_at = $9,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		o.ID,
		o.Version,
		o.Status,
		o.TrackingNumber,
		o.ShippingProvider,
		o.ShippedAt,
		o.DeliveredAt,
		o.CompletedAt,
		o.CancelledAt,
	).Scan(&o.Version, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save order: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Order, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, arg)
		argIdx++
	}

	if params.BuyerID != "" {
		add("buyer_id = $%d", params.BuyerID)
	}
	if params.SellerID != "" {
		add("seller_id = $%d", params.SellerID)
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM orders WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}

	out := make(map[Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
