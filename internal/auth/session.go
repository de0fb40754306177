// AngelaMos | 2026
// session.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
)

// Revocations remembers, per user, the lowest token version still accepted.
type Revocations interface {
	MarkRevoked(ctx context.Context, userID string, minVersion int) error
	MinVersion(ctx context.Context, userID string) (int, bool, error)
}

type redisRevocations struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocations keeps marks for ttl, which should cover the lifetime of
// any access token issued before the revocation.
func NewRedisRevocations(client *redis.Client, ttl time.Duration) Revocations {
	return &redisRevocations{client: client, ttl: ttl}
}

func revocationKey(userID string) string {
	return "session:revoked:" + userID
}

func (r *redisRevocations) MarkRevoked(ctx context.Context, userID string, minVersion int) error {
	if err := r.client.Set(ctx, revocationKey(userID), minVersion, r.ttl).Err(); err != nil {
		return fmt.Errorf("mark sessions revoked: %w", err)
	}
	return nil
}

func (r *redisRevocations) MinVersion(ctx context.Context, userID string) (int, bool, error) {
	raw, err := r.client.Get(ctx, revocationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read revocation mark: %w", err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse revocation mark: %w", err)
	}
	return v, true, nil
}

type tokenParser interface {
	ParseAccessToken(token string) (*middleware.AccessTokenClaims, error)
}

// SessionVerifier validates access tokens and rejects those issued before the
// user's sessions were revoked, e.g. by a ban.
type SessionVerifier struct {
	parser      tokenParser
	revocations Revocations
}

func NewSessionVerifier(parser tokenParser, revocations Revocations) *SessionVerifier {
	return &SessionVerifier{parser: parser, revocations: revocations}
}

func (v *SessionVerifier) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := v.parser.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	if v.revocations == nil {
		return claims, nil
	}

	minVersion, found, err := v.revocations.MinVersion(ctx, claims.UserID)
	if err != nil {
		// a Redis outage must not lock every member out
		slog.WarnContext(ctx, "revocation check failed", "user_id", claims.UserID, "error", err)
		return claims, nil
	}

	if found && claims.TokenVersion < minVersion {
		return nil, fmt.Errorf("verify session: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

var _ middleware.TokenVerifier = (*SessionVerifier)(nil)
