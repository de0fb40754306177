// AngelaMos | 2026
// entity.go

package product

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSold     Status = "sold"
)

// Label is the French wording shown to members.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusApproved:
		return "Approuvé"
	case StatusRejected:
		return "Rejeté"
	case StatusSold:
		return "Vendu"
	}
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSold:
		return true
	}
	return false
}

// ImageList is stored as a JSONB array of URLs.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *ImageList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan images: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

type Product struct {
	ID            string        `db:"id"`
	SellerID      string        `db:"seller_id"`
	Title         string        `db:"title"`
	Description   string        `db:"description"`
	Price         money.Amount  `db:"price"`
	OriginalPrice *money.Amount `db:"original_price"`
	Category      string        `db:"category"`
	Condition     string        `db:"condition"`
	Size          *string       `db:"size"`
	City          string        `db:"city"`
	Images        ImageList     `db:"images"`
	Status        Status        `db:"status"`
	IsFeatured    bool          `db:"is_featured"`
	BoostedUntil  *time.Time    `db:"boosted_until"`
	Version       int           `db:"version"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
	DeletedAt     *time.Time    `db:"deleted_at"`
}

func (p *Product) OwnedBy(userID string) bool {
	return p.SellerID == userID
}

func (p *Product) Purchasable() bool {
	return p.Status == StatusApproved && p.DeletedAt == nil
}

func (p *Product) Boosted(now time.Time) bool {
	return p.BoostedUntil != nil && p.BoostedUntil.After(now)
}

// Boost kinds sold to sellers.
const (
	BoostBump    = "bump"
	BoostFeature = "feature"
)

const BumpPeriod = 24 * time.Hour

var Conditions = []string{"Neuf avec étiquette", "Neuf sans étiquette", "Très bon état", "Bon état", "Satisfaisant"}
