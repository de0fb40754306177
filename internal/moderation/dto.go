// AngelaMos | 2026
// dto.go

package moderation

import "time"

type CreateReportRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Reason    string `json:"reason"     validate:"required,max=100"`
	Details   string `json:"details"    validate:"max=2000"`
}

type ResolveReportRequest struct {
	Status ReportStatus `json:"status" validate:"required,oneof=resolved dismissed"`
}

type OpenDisputeRequest struct {
	OrderID     string `json:"order_id"    validate:"required,uuid"`
	Reason      string `json:"reason"      validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

type ResolveDisputeRequest struct {
	Status     DisputeStatus `json:"status"     validate:"required,oneof=resolved closed"`
	Resolution string        `json:"resolution" validate:"required_if=Status resolved,max=2000"`
}

type ListParams struct {
	Page     int
	PageSize int
	Status   string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type ReportResponse struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"product_id"`
	ReporterID  string       `json:"reporter_id"`
	Reason      string       `json:"reason"`
	Details     string       `json:"details,omitempty"`
	Status      ReportStatus `json:"status"`
	StatusLabel string       `json:"status_label"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type DisputeResponse struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	InitiatorID string        `json:"initiator_id"`
	Reason      string        `json:"reason"`
	Description string        `json:"description,omitempty"`
	Status      DisputeStatus `json:"status"`
	StatusLabel string        `json:"status_label"`
	Resolution  *string       `json:"resolution,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func ToReportResponse(r *Report) ReportResponse {
	return ReportResponse{
		ID:          r.ID,
		ProductID:   r.ProductID,
		ReporterID:  r.ReporterID,
		Reason:      r.Reason,
		Details:     r.Details,
		Status:      r.Status,
		StatusLabel: r.Status.Label(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToDisputeResponse(d *Dispute) DisputeResponse {
	return DisputeResponse{
		ID:          d.ID,
		OrderID:     d.OrderID,
		InitiatorID: d.InitiatorID,
		Reason:      d.Reason,
		Description: d.Description,
		Status:      d.Status,
		StatusLabel: d.Status.Label(),
		Resolution:  d.Resolution,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
