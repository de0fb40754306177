// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type memTokens struct {
	Repository
	tokens map[string]*RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]*RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, t *RefreshToken) error {
	cp := *t
	cp.CreatedAt = time.Now()
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memTokens) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	t := m.tokens[id]
	if t.IsUsed {
		return core.ErrNotFound
	}
	t.IsUsed = true
	t.ReplacedByID = &replacedByID
	return nil
}

func (m *memTokens) revoke(t *RefreshToken, reason RevokeReason) {
	now := time.Now()
	t.RevokedAt = &now
	t.RevokedReason = &reason
}

func (m *memTokens) RevokeFamily(_ context.Context, familyID string, reason RevokeReason) (int64, error) {
	var n int64
	for _, t := range m.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			m.revoke(t, reason)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID string, reason RevokeReason) (int64, error) {
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			m.revoke(t, reason)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) reasons() map[RevokeReason]int {
	out := map[RevokeReason]int{}
	for _, t := range m.tokens {
		if t.RevokedReason != nil {
			out[*t.RevokedReason]++
		}
	}
	return out
}

type memAccounts struct {
	users map[string]*UserInfo
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*UserInfo, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memAccounts) Create(_ context.Context, email, passwordHash, name, city string) (*UserInfo, error) {
	if _, err := m.GetByEmail(context.Background(), email); err == nil {
		return nil, core.ErrDuplicateKey
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		City:         city,
		PasswordHash: passwordHash,
		Role:         "user",
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memAccounts) IncrementTokenVersion(_ context.Context, id string) error {
	m.users[id].TokenVersion++
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	m.users[id].PasswordHash = hash
	return nil
}

type countingIssuer struct {
	n int
}

func (c *countingIssuer) CreateAccessToken(claims AccessTokenClaims) (string, error) {
	return fmt.Sprintf("access-%s-v%d", claims.UserID, claims.TokenVersion), nil
}

func (c *countingIssuer) CreateRefreshToken(familyID string) (*RefreshTokenData, error) {
	c.n++
	if familyID == "" {
		familyID = uuid.New().String()
	}
	token := fmt.Sprintf("refresh-%d", c.n)
	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(time.Hour),
		FamilyID:  familyID,
	}, nil
}

func (c *countingIssuer) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

type authHarness struct {
	svc      *Service
	tokens   *memTokens
	accounts *memAccounts
	revoked  *memRevocations
}

func newAuthHarness() *authHarness {
	h := &authHarness{
		tokens:   newMemTokens(),
		accounts: &memAccounts{users: map[string]*UserInfo{}},
		revoked:  &memRevocations{},
	}
	h.svc = NewService(h.tokens, &countingIssuer{}, h.accounts, h.revoked)
	return h
}

func (h *authHarness) register(t *testing.T) *AuthResponse {
	t.Helper()
	resp, err := h.svc.Register(context.Background(), RegisterRequest{
		Email:    "salma@example.ma",
		Password: "tajine-au-citron",
		Name:     "Salma",
		City:     "Marrakech",
	}, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestRegisterCarriesCity(t *testing.T) {
	h := newAuthHarness()

	resp := h.register(t)
	assert.Equal(t, "Marrakech", resp.User.City)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.Equal(t, 900, resp.Tokens.ExpiresIn)

	_, err := h.svc.Register(context.Background(), RegisterRequest{
		Email: "salma@example.ma", Password: "another-password", Name: "Salma",
	}, "", "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRefreshReuseRevokesFamily(t *testing.T) {
	h := newAuthHarness()
	ctx := context.Background()
	first := h.register(t)

	rotated, err := h.svc.Refresh(ctx, first.Tokens.RefreshToken, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = h.svc.Refresh(ctx, first.Tokens.RefreshToken, "stolen", "10.6.6.6")
	assert.ErrorIs(t, err, ErrTokenReuse)
	assert.Equal(t, map[RevokeReason]int{RevokeTokenReuse: 2}, h.tokens.reasons(), "used and live tokens of the family")

	_, err = h.svc.Refresh(ctx, rotated.Tokens.RefreshToken, "test-agent", "10.0.0.1")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestChangePasswordEndsEverySession(t *testing.T) {
	h := newAuthHarness()
	ctx := context.Background()
	resp := h.register(t)
	userID := resp.User.ID

	_, err := h.svc.Login(ctx, LoginRequest{Email: "salma@example.ma", Password: "tajine-au-citron"}, "phone", "10.0.0.2")
	require.NoError(t, err)

	err = h.svc.ChangePassword(ctx, userID, "wrong-password", "nouveau-secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, h.svc.ChangePassword(ctx, userID, "tajine-au-citron", "nouveau-secret"))

	assert.Equal(t, map[RevokeReason]int{RevokePasswordChange: 2}, h.tokens.reasons())
	assert.Equal(t, 1, h.accounts.users[userID].TokenVersion)
	assert.Equal(t, 1, h.revoked.marks[userID])

	_, err = h.svc.Login(ctx, LoginRequest{Email: "salma@example.ma", Password: "nouveau-secret"}, "phone", "10.0.0.2")
	assert.NoError(t, err)
}

func TestBanRevokesWithReason(t *testing.T) {
	h := newAuthHarness()
	resp := h.register(t)

	require.NoError(t, h.svc.RevokeUserSessions(context.Background(), resp.User.ID, 3))

	assert.Equal(t, map[RevokeReason]int{RevokeBanned: 1}, h.tokens.reasons())
	assert.Equal(t, 3, h.revoked.marks[resp.User.ID])
}
