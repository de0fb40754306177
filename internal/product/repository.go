// AngelaMos | 2026
// repository.go

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	// GetForUpdate locks the product row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	// SetStatus moves a product from one status to another only if nobody
	// touched it since version was read.
	SetStatus(ctx context.Context, id string, from, to Status, version int) (*Product, error)
	SetBoost(ctx context.Context, id string, featured bool, boostedUntil *time.Time) (*Product, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]Product, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

const productColumns = `
	id, seller_id, title, description, price, original_price, category,
	condition, size, city, images, status, is_featured, boosted_until,
	version, created_at, updated_at, deleted_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (
			id, seller_id, title, description, price, original_price,
			category, condition, size, city, images, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + productColumns

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.SellerID,
		p.Title,
		p.Description,
		p.Price,
		p.OriginalPrice,
		p.Category,
		p.Condition,
		p.Size,
		p.City,
		p.Images,
		p.Status,
	)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create product: unknown seller: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	return r.getOne(ctx, "get product",
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*Product, error) {
	return r.getOne(ctx, "lock product",
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
}

func (r *repository) getOne(ctx context.Context, op, query string, args ...any) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET title = $3, description = $4, price = $5, original_price = $6,
		    category = $7, condition = $8, size = $9, city = $10, images = $11,
		    status = $12, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
		RETURNING version, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Version,
		p.Title,
		p.Description,
		p.Price,
		p.OriginalPrice,
		p.Category,
		p.Condition,
		p.Size,
		p.City,
		p.Images,
		p.Status,
	).Scan(&p.Version, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (r *repository) SetStatus(
	ctx context.Context,
	id string,
	from, to Status,
	version int,
) (*Product, error) {
	query := `
		UPDATE products
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND version = $4 AND deleted_at IS NULL
		RETURNING ` + productColumns

	p, err := r.getOne(ctx, "set product status", query, id, from, to, version)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("set product status %s -> %s: %w", from, to, core.ErrConflict)
	}
	return p, err
}

func (r *repository) SetBoost(
	ctx context.Context,
	id string,
	featured bool,
	boostedUntil *time.Time,
) (*Product, error) {
	query := `
		UPDATE products
		SET is_featured = $2, boosted_until = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + productColumns

	return r.getOne(ctx, "boost product", query, id, featured, boostedUntil)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE products
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status <> 'sold'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return core.ExpectRows(result, "delete product", nil)
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Product, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argIdx := 1

	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, arg)
		argIdx++
	}

	if params.Search != "" {
		pattern := "%" + escapeLike(params.Search) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, pattern)
		argIdx++
	}
	if params.Category != "" {
		add("category = $%d", params.Category)
	}
	if params.City != "" {
		add("city = $%d", params.City)
	}
	if params.SellerID != "" {
		add("seller_id = $%d", params.SellerID)
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.MinPrice > 0 {
		add("price >= $%d", params.MinPrice)
	}
	if params.MaxPrice > 0 {
		add("price <= $%d", params.MaxPrice)
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM products WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY is_featured DESC,
		         COALESCE(boosted_until > NOW(), FALSE) DESC,
		         created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}

	query := `
		SELECT status, COUNT(*) AS count
		FROM products
		WHERE deleted_at IS NULL
		GROUP BY status`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count products by status: %w", err)
	}

	out := make(map[Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
