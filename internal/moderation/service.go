// AngelaMos | 2026
// service.go

package moderation

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
	Reports  ReportRepository
	Disputes DisputeRepository
	Orders   order.Repository
	Products product.Repository
	Outbox   notify.Outbox
}

type StoreFactory func(tx core.DBTX) Stores

func TxStores(tx core.DBTX) Stores {
	return Stores{
		Reports:  NewReportRepository(tx),
		Disputes: NewDisputeRepository(tx),
		Orders:   order.NewRepository(tx),
		Products: product.NewRepository(tx),
		Outbox:   notify.NewOutbox(tx),
	}
}

type Service struct {
	reports  ReportRepository
	disputes DisputeRepository
	catalog  product.Repository
	tx       core.Transactor
	stores   StoreFactory
}

func NewService(
	reports ReportRepository,
	disputes DisputeRepository,
	catalog product.Repository,
	tx core.Transactor,
	stores StoreFactory,
) *Service {
	return &Service{
		reports:  reports,
		disputes: disputes,
		catalog:  catalog,
		tx:       tx,
		stores:   stores,
	}
}

func (s *Service) CreateReport(ctx context.Context, reporterID string, req CreateReportRequest) (*Report, error) {
	if reporterID == "" {
		return nil, fmt.Errorf("create report: %w", core.ErrUnauthorized)
	}

	p, err := s.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	if p.OwnedBy(reporterID) {
		return nil, fmt.Errorf("create report: own listing: %w", core.ErrForbidden)
	}

	rep := &Report{
		ID:         uuid.New().String(),
		ProductID:  p.ID,
		ReporterID: reporterID,
		Reason:     strings.TrimSpace(req.Reason),
		Details:    strings.TrimSpace(req.Details),
		Status:     ReportPending,
	}
	if rep.Reason == "" {
		return nil, fmt.Errorf("create report: reason: %w", core.ErrInvalidInput)
	}

	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product reported",
		"report_id", rep.ID,
		"product_id", rep.ProductID,
		"reporter_id", reporterID,
	)
	return rep, nil
}

// ResolveReport closes a pending report and tells the reporter the outcome.
func (s *Service) ResolveReport(ctx context.Context, adminID, reportID string, to ReportStatus) (*Report, error) {
	ctx, span := core.StartSpan(ctx, "moderation.resolve_report",
		attribute.String("report.id", reportID),
		attribute.String("report.status", string(to)),
	)
	defer span.End()

	if to != ReportResolved && to != ReportDismissed {
		return nil, fmt.Errorf("resolve report: %w", core.ErrInvalidInput)
	}

	var updated *Report
	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		rep, err := st.Reports.GetForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		if rep.Status != ReportPending {
			return fmt.Errorf("report is %s: %w", rep.Status, core.ErrInvalidTransition)
		}

		updated, err = st.Reports.SetStatus(ctx, reportID, ReportPending, to)
		if err != nil {
			return err
		}

		title := s.productTitle(ctx, st.Products, rep.ProductID)
		return st.Outbox.Enqueue(ctx,
			notify.ReportStatusChanged(adminID, rep.ReporterID, rep.ProductID, title, string(to)))
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("resolve report: %w", err)
	}

	slog.InfoContext(ctx, "report resolved", "report_id", reportID, "status", to, "admin_id", adminID)
	return updated, nil
}

func (s *Service) ListReports(ctx context.Context, params ListParams) ([]Report, int, error) {
	return s.reports.List(ctx, params)
}

// OpenDispute freezes an order in the disputed state until an admin settles it.
func (s *Service) OpenDispute(ctx context.Context, userID string, req OpenDisputeRequest) (*Dispute, error) {
	ctx, span := core.StartSpan(ctx, "moderation.open_dispute",
		attribute.String("order.id", req.OrderID),
	)
	defer span.End()

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("open dispute: reason: %w", core.ErrInvalidInput)
	}

	d := &Dispute{
		ID:          uuid.New().String(),
		OrderID:     req.OrderID,
		InitiatorID: userID,
		Reason:      reason,
		Description: strings.TrimSpace(req.Description),
		Status:      DisputeOpen,
	}

	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		o, err := st.Orders.GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if !o.IsParty(userID) {
			return core.ErrNotFound
		}

		switch o.Status {
		case order.StatusPaid, order.StatusShipped, order.StatusDelivered:
		default:
			return fmt.Errorf("order is %s: %w", o.Status, core.ErrInvalidTransition)
		}
		if !order.CanTransition(o.Status, order.StatusDisputed) {
			return fmt.Errorf("order is %s: %w", o.Status, core.ErrInvalidTransition)
		}

		o.Status = order.StatusDisputed
		if err := st.Orders.Save(ctx, o); err != nil {
			return err
		}

		if err := st.Disputes.Create(ctx, d); err != nil {
			return err
		}

		title := s.productTitle(ctx, st.Products, o.ProductID)
		return st.Outbox.Enqueue(ctx, notify.OrderStatusChanged(
			userID, o.Counterparty(userID), o.ID, o.ProductID, title, string(order.StatusDisputed)))
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("open dispute: %w", err)
	}

	slog.InfoContext(ctx, "dispute opened", "dispute_id", d.ID, "order_id", d.OrderID, "initiator_id", userID)
	return d, nil
}

// ResolveDispute settles an open dispute and echoes the decision to the
// member who opened it. The order itself is moved separately by an admin.
func (s *Service) ResolveDispute(
	ctx context.Context,
	adminID, disputeID string,
	req ResolveDisputeRequest,
) (*Dispute, error) {
	ctx, span := core.StartSpan(ctx, "moderation.resolve_dispute",
		attribute.String("dispute.id", disputeID),
		attribute.String("dispute.status", string(req.Status)),
	)
	defer span.End()

	if req.Status != DisputeResolved && req.Status != DisputeClosed {
		return nil, fmt.Errorf("resolve dispute: %w", core.ErrInvalidInput)
	}

	resolution := strings.TrimSpace(req.Resolution)
	if req.Status == DisputeResolved && resolution == "" {
		return nil, fmt.Errorf("resolve dispute: resolution: %w", core.ErrInvalidInput)
	}

	var resolutionPtr *string
	if resolution != "" {
		resolutionPtr = &resolution
	}

	var updated *Dispute
	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		d, err := st.Disputes.GetForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if d.Status != DisputeOpen {
			return fmt.Errorf("dispute is %s: %w", d.Status, core.ErrInvalidTransition)
		}

		updated, err = st.Disputes.Close(ctx, disputeID, req.Status, resolutionPtr)
		if err != nil {
			return err
		}

		var (
			productID *string
			title     string
		)
		if o, err := st.Orders.GetByID(ctx, d.OrderID); err == nil {
			if p, err := st.Products.GetByID(ctx, o.ProductID); err == nil {
				productID = &p.ID
				title = p.Title
			}
		}

		return st.Outbox.Enqueue(ctx, notify.DisputeStatusChanged(
			adminID, d.InitiatorID, d.OrderID, productID, title, string(req.Status), resolution))
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("resolve dispute: %w", err)
	}

	slog.InfoContext(ctx, "dispute settled", "dispute_id", disputeID, "status", req.Status, "admin_id", adminID)
	return updated, nil
}

func (s *Service) ListDisputes(ctx context.Context, params ListParams) ([]Dispute, int, error) {
	return s.disputes.List(ctx, params)
}

// Pending counts the open moderation queue for the admin dashboard.
func (s *Service) Pending(ctx context.Context) (reports, disputes int, err error) {
	if reports, err = s.reports.CountPending(ctx); err != nil {
		return 0, 0, err
	}
	if disputes, err = s.disputes.CountOpen(ctx); err != nil {
		return 0, 0, err
	}
	return reports, disputes, nil
}

// productTitle tolerates deleted listings; the notice then goes out untitled.
func (s *Service) productTitle(ctx context.Context, products product.Repository, id string) string {
	p, err := products.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "product lookup failed", "product_id", id, "error", err)
		}
		return ""
	}
	return p.Title
}
