// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RevokeReason records why a refresh token stopped working. Admins read it
// when a member asks why they were signed out.
type RevokeReason string

const (
	RevokeLogout         RevokeReason = "logout"
	RevokeLogoutAll      RevokeReason = "logout_all"
	RevokePasswordChange RevokeReason = "password_change"
	RevokeBanned         RevokeReason = "banned"
	RevokeTokenReuse     RevokeReason = "token_reuse"
)

type RefreshToken struct {
	ID            string        `db:"id"`
	UserID        string        `db:"user_id"`
	TokenHash     string        `db:"token_hash"`
	FamilyID      string        `db:"family_id"`
	ExpiresAt     time.Time     `db:"expires_at"`
	CreatedAt     time.Time     `db:"created_at"`
	IsUsed        bool          `db:"is_used"`
	UsedAt        *time.Time    `db:"used_at"`
	RevokedAt     *time.Time    `db:"revoked_at"`
	RevokedReason *RevokeReason `db:"revoked_reason"`
	ReplacedByID  *string       `db:"replaced_by_id"`
	UserAgent     string        `db:"user_agent"`
	IPAddress     string        `db:"ip_address"`
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsValidAt reports whether the token can still be exchanged at now.
func (t *RefreshToken) IsValidAt(now time.Time) bool {
	return now.Before(t.ExpiresAt) && !t.IsRevoked() && !t.IsUsed
}

func (t *RefreshToken) Session() SessionInfo {
	return SessionInfo{
		ID:        t.ID,
		UserAgent: t.UserAgent,
		IPAddress: t.IPAddress,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}
