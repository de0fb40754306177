// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/balaoui/internal/core"
)

// Repository stores refresh tokens. A login starts a family; every rotation
// adds a token to it and marks the previous one used.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	Revoke(ctx context.Context, id string, reason RevokeReason) error
	RevokeFamily(ctx context.Context, familyID string, reason RevokeReason) (int64, error)
	// RevokeAllForUser ends every live session of the user and returns how
	// many were still open.
	RevokeAllForUser(ctx context.Context, userID string, reason RevokeReason) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

const tokenColumns = `
	id, user_id, token_hash, family_id, expires_at, created_at, is_used,
	used_at, revoked_at, revoked_reason, replaced_by_id, user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("store session %s: %w", token.ID, err)
	}

	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.getOne(ctx, "find session by token",
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	return r.getOne(ctx, "find session",
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE id = $1`, id)
}

func (r *repository) getOne(ctx context.Context, op, query string, args ...any) (*RefreshToken, error) {
	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &token, nil
}

// MarkAsUsed fails with ErrNotFound when another refresh already rotated the
// token, which the caller treats as a lost race.
func (r *repository) MarkAsUsed(ctx context.Context, id, replacedByID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = TRUE, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND NOT is_used`

	result, err := r.db.ExecContext(ctx, query, id, replacedByID)
	if err != nil {
		return fmt.Errorf("rotate session %s: %w", id, err)
	}

	return core.ExpectRows(result, "rotate session", nil)
}

func (r *repository) Revoke(ctx context.Context, id string, reason RevokeReason) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("revoke session %s: %w", id, err)
	}

	return core.ExpectRows(result, "revoke session", nil)
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string, reason RevokeReason) (int64, error) {
	return r.revokeWhere(ctx, "revoke session family", "family_id = $1", familyID, reason)
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID string, reason RevokeReason) (int64, error) {
	return r.revokeWhere(ctx, "revoke user sessions", "user_id = $1", userID, reason)
}

func (r *repository) revokeWhere(
	ctx context.Context,
	op, cond, arg string,
	reason RevokeReason,
) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoked_reason = $2
		WHERE ` + cond + ` AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, arg, reason)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r *repository) ListActive(ctx context.Context, userID string, now time.Time) ([]RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND NOT is_used AND expires_at > $2
		ORDER BY created_at DESC`

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID, now); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
