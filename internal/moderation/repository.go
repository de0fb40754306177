// AngelaMos | 2026
// repository.go

package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetForUpdate(ctx context.Context, id string) (*Report, error)
	// SetStatus only succeeds while the report is still in from.
	SetStatus(ctx context.Context, id string, from, to ReportStatus) (*Report, error)
	List(ctx context.Context, params ListParams) ([]Report, int, error)
	CountPending(ctx context.Context) (int, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, d *Dispute) error
	GetForUpdate(ctx context.Context, id string) (*Dispute, error)
	Close(ctx context.Context, id string, to DisputeStatus, resolution *string) (*Dispute, error)
	List(ctx context.Context, params ListParams) ([]Dispute, int, error)
	CountOpen(ctx context.Context) (int, error)
}

const reportColumns = `
	id, product_id, reporter_id, reason, details, status, created_at, updated_at`

const disputeColumns = `
	id, order_id, initiator_id, reason, description, status, resolution, created_at, updated_at`

type reportRepository struct {
	db core.DBTX
}

func NewReportRepository(db core.DBTX) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, rep *Report) error {
	query := `
		INSERT INTO reports (id, product_id, reporter_id, reason, details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		rep.ID,
		rep.ProductID,
		rep.ReporterID,
		rep.Reason,
		rep.Details,
		rep.Status,
	).Scan(&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create report: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetForUpdate(ctx context.Context, id string) (*Report, error) {
	var rep Report
	err := r.db.GetContext(ctx, &rep,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock report: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock report: %w", err)
	}
	return &rep, nil
}

func (r *reportRepository) SetStatus(ctx context.Context, id string, from, to ReportStatus) (*Report, error) {
	query := `
		UPDATE reports
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + reportColumns

	var rep Report
	err := r.db.GetContext(ctx, &rep, query, id, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set report status: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("set report status: %w", err)
	}
	return &rep, nil
}

func (r *reportRepository) List(ctx context.Context, params ListParams) ([]Report, int, error) {
	params.Normalize()

	where := "TRUE"
	args := []any{}
	if params.Status != "" {
		where = "status = $1"
		args = append(args, params.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM reports WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM reports
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		reportColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var reports []Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}

func (r *reportRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reports WHERE status = 'pending'`); err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return n, nil
}

type disputeRepository struct {
	db core.DBTX
}

func NewDisputeRepository(db core.DBTX) DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) Create(ctx context.Context, d *Dispute) error {
	query := `
		INSERT INTO disputes (id, order_id, initiator_id, reason, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		d.ID,
		d.OrderID,
		d.InitiatorID,
		d.Reason,
		d.Description,
		d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create dispute: %w", core.ErrConflict)
		}
		return fmt.Errorf("create dispute: %w", err)
	}
	return nil
}

func (r *disputeRepository) GetForUpdate(ctx context.Context, id string) (*Dispute, error) {
	var d Dispute
	err := r.db.GetContext(ctx, &d,
		`SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock dispute: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock dispute: %w", err)
	}
	return &d, nil
}

func (r *disputeRepository) Close(
	ctx context.Context,
	id string,
	to DisputeStatus,
	resolution *string,
) (*Dispute, error) {
	query := `
		UPDATE disputes
		SET status = $2, resolution = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING ` + disputeColumns

	var d Dispute
	err := r.db.GetContext(ctx, &d, query, id, to, resolution)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("close dispute: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("close dispute: %w", err)
	}
	return &d, nil
}

func (r *disputeRepository) List(ctx context.Context, params ListParams) ([]Dispute, int, error) {
	params.Normalize()

	where := "TRUE"
	args := []any{}
	if params.Status != "" {
		where = "status = $1"
		args = append(args, params.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM disputes WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count disputes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM disputes
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		disputeColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var disputes []Dispute
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list disputes: %w", err)
	}
	return disputes, total, nil
}

func (r *disputeRepository) CountOpen(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM disputes WHERE status = 'open'`); err != nil {
		return 0, fmt.Errorf("count open disputes: %w", err)
	}
	return n, nil
}
