// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/money"
)

type User struct {
	ID           string       `db:"id"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Name         string       `db:"name"`
	AvatarURL    string       `db:"avatar_url"`
	City         string       `db:"city"`
	Rating       float64      `db:"rating"`
	ReviewCount  int          `db:"review_count"`
	Role         string       `db:"role"`
	Balance      money.Amount `db:"balance"`
	IsPro        bool         `db:"is_pro"`
	ProExpiresAt *time.Time   `db:"pro_expires_at"`
	IsBanned     bool         `db:"is_banned"`
	TokenVersion int          `db:"token_version"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	DeletedAt    *time.Time   `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ProActive reports whether the pro subscription is in force at now.
func (u *User) ProActive(now time.Time) bool {
	if !u.IsPro {
		return false
	}
	return u.ProExpiresAt == nil || u.ProExpiresAt.After(now)
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const ProPeriod = 30 * 24 * time.Hour
