// AngelaMos | 2026
// session_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/config"
	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
)

type stubParser struct {
	claims *middleware.AccessTokenClaims
	err    error
}

func (p stubParser) ParseAccessToken(string) (*middleware.AccessTokenClaims, error) {
	return p.claims, p.err
}

type memRevocations struct {
	marks map[string]int
	err   error
}

func (m *memRevocations) MarkRevoked(_ context.Context, userID string, minVersion int) error {
	if m.marks == nil {
		m.marks = map[string]int{}
	}
	m.marks[userID] = minVersion
	return nil
}

func (m *memRevocations) MinVersion(_ context.Context, userID string) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	v, ok := m.marks[userID]
	return v, ok, nil
}

func TestSessionVerifier(t *testing.T) {
	ctx := context.Background()
	claims := &middleware.AccessTokenClaims{UserID: "u1", Role: "user", TokenVersion: 2}

	t.Run("no revocation mark", func(t *testing.T) {
		v := NewSessionVerifier(stubParser{claims: claims}, &memRevocations{})
		got, err := v.VerifyAccessToken(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
	})

	t.Run("token older than the mark", func(t *testing.T) {
		rev := &memRevocations{}
		require.NoError(t, rev.MarkRevoked(ctx, "u1", 3))

		_, err := NewSessionVerifier(stubParser{claims: claims}, rev).VerifyAccessToken(ctx, "tok")
		assert.ErrorIs(t, err, core.ErrTokenRevoked)
	})

	t.Run("token issued after the mark", func(t *testing.T) {
		rev := &memRevocations{}
		require.NoError(t, rev.MarkRevoked(ctx, "u1", 2))

		_, err := NewSessionVerifier(stubParser{claims: claims}, rev).VerifyAccessToken(ctx, "tok")
		assert.NoError(t, err)
	})

	t.Run("redis outage fails open", func(t *testing.T) {
		rev := &memRevocations{err: errors.New("dial tcp: refused")}
		_, err := NewSessionVerifier(stubParser{claims: claims}, rev).VerifyAccessToken(ctx, "tok")
		assert.NoError(t, err)
	})

	t.Run("parser error passes through", func(t *testing.T) {
		parser := stubParser{err: fmt.Errorf("verify token: %w", core.ErrTokenExpired)}
		_, err := NewSessionVerifier(parser, &memRevocations{}).VerifyAccessToken(ctx, "tok")
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})
}

type stubUsers struct {
	UserProvider
	users map[string]*UserInfo
}

func (s stubUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return u, nil
}

func TestCheckSession(t *testing.T) {
	users := stubUsers{users: map[string]*UserInfo{
		"active": {ID: "active", TokenVersion: 1},
		"banned": {ID: "banned", TokenVersion: 2, IsBanned: true},
	}}
	svc := NewService(nil, nil, users, nil)
	ctx := context.Background()

	u, err := svc.CheckSession(ctx, "active", 1)
	require.NoError(t, err)
	assert.Equal(t, "active", u.ID)

	_, err = svc.CheckSession(ctx, "active", 0)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.CheckSession(ctx, "banned", 2)
	assert.ErrorIs(t, err, core.ErrBanned)

	_, err = svc.CheckSession(ctx, "gone", 0)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	pem, err := GeneratePrivateKeyPEM()
	require.NoError(t, err)

	m, err := newJWTManagerFromPEM(pem, testJWTConfig())
	require.NoError(t, err)

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u9", Role: "admin", IsPro: true, TokenVersion: 4})
	require.NoError(t, err)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u9", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.IsPro)
	assert.Equal(t, 4, claims.TokenVersion)

	_, err = m.ParseAccessToken(token + "x")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "balaoui",
		Audience:           "balaoui-api",
	}
}
