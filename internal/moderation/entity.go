// AngelaMos | 2026
// entity.go

package moderation

import "time"

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Label() string {
	switch s {
	case ReportPending:
		return "En attente"
	case ReportResolved:
		return "Résolu"
	case ReportDismissed:
		return "Rejeté"
	}
	return string(s)
}

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
	DisputeClosed   DisputeStatus = "closed"
)

func (s DisputeStatus) Label() string {
	switch s {
	case DisputeOpen:
		return "Ouvert"
	case DisputeResolved:
		return "Résolu"
	case DisputeClosed:
		return "Fermé"
	}
	return string(s)
}

// ReportReasons are the choices offered by the report form.
var ReportReasons = []string{
	"Article contrefait",
	"Article interdit",
	"Description trompeuse",
	"Prix abusif",
	"Arnaque",
	"Autre",
}

type Report struct {
	ID         string       `db:"id"`
	ProductID  string       `db:"product_id"`
	ReporterID string       `db:"reporter_id"`
	Reason     string       `db:"reason"`
	Details    string       `db:"details"`
	Status     ReportStatus `db:"status"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

type Dispute struct {
	ID          string        `db:"id"`
	OrderID     string        `db:"order_id"`
	InitiatorID string        `db:"initiator_id"`
	Reason      string        `db:"reason"`
	Description string        `db:"description"`
	Status      DisputeStatus `db:"status"`
	Resolution  *string       `db:"resolution"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
