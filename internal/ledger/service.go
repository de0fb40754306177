// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/money"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListForUser(ctx context.Context, userID string, params ListParams) ([]Transaction, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("list transactions: %w", core.ErrUnauthorized)
	}
	params.UserID = userID
	return s.repo.List(ctx, params)
}

func (s *Service) ListAll(ctx context.Context, params ListParams) ([]Transaction, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) TotalsByType(ctx context.Context) (map[Type]money.Amount, error) {
	return s.repo.TotalsByType(ctx)
}
