// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/balaoui/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	City         string
	AvatarURL    string
	PasswordHash string
	Role         string
	IsPro        bool
	IsBanned     bool
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, email, passwordHash, name, city string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type tokenIssuer interface {
	CreateAccessToken(claims AccessTokenClaims) (string, error)
	CreateRefreshToken(familyID string) (*RefreshTokenData, error)
	AccessTokenTTL() time.Duration
}

type Service struct {
	repo         Repository
	tokens       tokenIssuer
	userProvider UserProvider
	revocations  Revocations
}

func NewService(
	repo Repository,
	tokens tokenIssuer,
	userProvider UserProvider,
	revocations Revocations,
) *Service {
	return &Service{
		repo:         repo,
		tokens:       tokens,
		userProvider: userProvider,
		revocations:  revocations,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // keeps response time independent of account existence
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if user.IsBanned {
		return nil, fmt.Errorf("login: %w", core.ErrBanned)
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, passwordHash, req.Name, req.City)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		n, err := s.repo.RevokeFamily(ctx, storedToken.FamilyID, RevokeTokenReuse)
		if err != nil {
			slog.ErrorContext(ctx, "token family not revoked after reuse",
				"user_id", storedToken.UserID, "family_id", storedToken.FamilyID, "error", err)
		} else {
			slog.WarnContext(ctx, "refresh token reuse, family revoked",
				"user_id", storedToken.UserID, "family_id", storedToken.FamilyID, "revoked", n)
		}
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValidAt(time.Now()) {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.IsBanned {
		//nolint:errcheck // the ban already revoked these; this is a second sweep
		_, _ = s.repo.RevokeAllForUser(ctx, user.ID, RevokeBanned)
		return nil, fmt.Errorf("refresh: %w", core.ErrBanned)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, storedToken.FamilyID, &storedToken.ID)
}

func (s *Service) Logout(ctx context.Context, refreshToken, userID string) error {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.Revoke(ctx, storedToken.ID, RevokeLogout); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.endAllSessions(ctx, userID, RevokeLogoutAll)
}

// endAllSessions revokes refresh tokens and raises the token version so live
// access tokens die with them.
func (s *Service) endAllSessions(ctx context.Context, userID string, reason RevokeReason) error {
	n, err := s.repo.RevokeAllForUser(ctx, userID, reason)
	if err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	slog.InfoContext(ctx, "sessions ended", "user_id", userID, "reason", reason, "revoked", n)
	return s.markRevoked(ctx, userID, user.TokenVersion)
}

// RevokeUserSessions is called after the user's token version has already been
// raised to tokenVersion; access tokens below it stop working immediately.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string, tokenVersion int) error {
	if _, err := s.repo.RevokeAllForUser(ctx, userID, RevokeBanned); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	return s.markRevoked(ctx, userID, tokenVersion)
}

func (s *Service) markRevoked(ctx context.Context, userID string, minVersion int) error {
	if s.revocations == nil {
		return nil
	}
	if err := s.revocations.MarkRevoked(ctx, userID, minVersion); err != nil {
		return fmt.Errorf("mark revoked: %w", err)
	}
	return nil
}

func (s *Service) GetActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActive(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for i := range tokens {
		sessions = append(sessions, tokens[i].Session())
	}

	return sessions, nil
}

func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.Revoke(ctx, sessionID, RevokeLogout); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.endAllSessions(ctx, userID, RevokePasswordChange)
}

// CheckSession is the session check behind GET /auth/me: banned accounts and
// tokens older than the user's current version are rejected.
func (s *Service) CheckSession(ctx context.Context, userID string, tokenVersion int) (*UserInfo, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("check session: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("check session: %w", err)
	}

	if user.IsBanned {
		return nil, fmt.Errorf("check session: %w", core.ErrBanned)
	}

	if tokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("check session: %w", core.ErrTokenRevoked)
	}

	return user, nil
}

// PurgeExpired deletes refresh tokens that expired more than a day ago.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now().Add(-24*time.Hour))
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.tokens.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		IsPro:        user.IsPro,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.tokens.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		if err := s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID); err != nil {
			slog.WarnContext(ctx, "refresh token chain not recorded", "token_id", *oldTokenID, "error", err)
		}
	}

	ttl := s.tokens.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		City:      u.City,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		IsPro:     u.IsPro,
		CreatedAt: u.CreatedAt,
	}
}
