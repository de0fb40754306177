// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/money"
)

type Repository interface {
	Append(ctx context.Context, tx *Transaction) error
	// CompleteSale settles the seller's pending sale row of an order and
	// returns the amount to pay out, zero when nothing was pending.
	CompleteSale(ctx context.Context, orderID string) (money.Amount, error)
	// CancelOrder voids the pending sale row and the buyer protection fee of
	// an order. Settled sales are left alone.
	CancelOrder(ctx context.Context, orderID string) error
	List(ctx context.Context, params ListParams) ([]Transaction, int, error)
	TotalsByType(ctx context.Context) (map[Type]money.Amount, error)
}

const transactionColumns = `id, user_id, type, product_id, order_id, amount, status, created_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, t *Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}

	query := `
		INSERT INTO transactions (id, user_id, type, product_id, order_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &t.CreatedAt, query,
		t.ID,
		t.UserID,
		t.Type,
		t.ProductID,
		t.OrderID,
		t.Amount,
		t.Status,
	)
	if err != nil {
		return fmt.Errorf("append %s transaction: %w", t.Type, err)
	}

	return nil
}

func (r *repository) CompleteSale(ctx context.Context, orderID string) (money.Amount, error) {
	query := `
		UPDATE transactions
		SET status = 'completed', updated_at = NOW()
		WHERE order_id = $1 AND type = 'sale' AND status = 'pending'
		RETURNING amount`

	var amounts []money.Amount
	if err := r.db.SelectContext(ctx, &amounts, query, orderID); err != nil {
		return 0, fmt.Errorf("complete sale: %w", err)
	}

	var total money.Amount
	for _, a := range amounts {
		total += a
	}
	return total, nil
}

func (r *repository) CancelOrder(ctx context.Context, orderID string) error {
	query := `
		UPDATE transactions
		SET status = 'cancelled', updated_at = NOW()
		WHERE order_id = $1
		  AND ((type = 'sale' AND status = 'pending')
		    OR (type = 'buyer_protection' AND status = 'completed'))`

	if _, err := r.db.ExecContext(ctx, query, orderID); err != nil {
		return fmt.Errorf("cancel order transactions: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Transaction, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, params.UserID)
		argIdx++
	}
	if params.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, params.Type)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM transactions WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		transactionColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var txs []Transaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	return txs, total, nil
}

// TotalsByType sums completed movements only.
func (r *repository) TotalsByType(ctx context.Context) (map[Type]money.Amount, error) {
	var rows []struct {
		Type  Type         `db:"type"`
		Total money.Amount `db:"total"`
	}

	query := `
		SELECT type, COALESCE(SUM(amount), 0)::BIGINT AS total
		FROM transactions
		WHERE status = 'completed'
		GROUP BY type`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}

	out := make(map[Type]money.Amount, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Total
	}
	return out, nil
}
