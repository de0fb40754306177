// AngelaMos | 2026
// service.go

package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/carterperez-dev/balaoui/internal/core"
)

// Cache is the read-through store in front of the settings table.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const cachePrefix = "settings:"

type Service struct {
	repo     Repository
	cache    Cache
	ttl      time.Duration
	defaults AppSettings
}

func NewService(repo Repository, cache Cache, defaults AppSettings, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		defaults: defaults,
	}
}

// Seed writes the configured defaults for any key the database lacks.
func (s *Service) Seed(ctx context.Context) error {
	if err := s.repo.Seed(ctx, KeyAppSettings, s.defaults); err != nil {
		return err
	}
	return s.repo.Seed(ctx, KeyAppContent, DefaultContent())
}

func (s *Service) AppSettings(ctx context.Context) (AppSettings, error) {
	out := s.defaults
	out.PaymentMethods = slices.Clone(s.defaults.PaymentMethods)
	if err := s.load(ctx, KeyAppSettings, &out); err != nil {
		return AppSettings{}, err
	}
	return out, nil
}

func (s *Service) AppContent(ctx context.Context) (AppContent, error) {
	out := DefaultContent()
	if err := s.load(ctx, KeyAppContent, &out); err != nil {
		return AppContent{}, err
	}
	return out, nil
}

func (s *Service) UpdateAppSettings(ctx context.Context, next AppSettings) (AppSettings, error) {
	if err := next.Validate(); err != nil {
		return AppSettings{}, fmt.Errorf("update settings: %w", err)
	}

	if err := s.store(ctx, KeyAppSettings, next); err != nil {
		return AppSettings{}, err
	}

	slog.InfoContext(ctx, "app settings updated",
		"commission_rate", next.CommissionRate.String(),
		"shipping_fee", next.ShippingFee.String(),
	)
	return next, nil
}

func (s *Service) UpdateAppContent(ctx context.Context, next AppContent) (AppContent, error) {
	if err := s.store(ctx, KeyAppContent, next); err != nil {
		return AppContent{}, err
	}
	return next, nil
}

func (s *Service) load(ctx context.Context, key string, dest any) error {
	if s.cache != nil {
		hit, err := s.cache.GetJSON(ctx, cachePrefix+key, dest)
		if err != nil {
			slog.WarnContext(ctx, "settings cache read failed", "key", key, "error", err)
		}
		if hit {
			return nil
		}
	}

	err := s.repo.Get(ctx, key, dest)
	if errors.Is(err, core.ErrNotFound) {
		// dest already holds the defaults
		return nil
	}
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cachePrefix+key, dest, s.ttl); err != nil {
			slog.WarnContext(ctx, "settings cache write failed", "key", key, "error", err)
		}
	}

	return nil
}

func (s *Service) store(ctx context.Context, key string, value any) error {
	if err := s.repo.Put(ctx, key, value); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cachePrefix+key); err != nil {
			slog.WarnContext(ctx, "settings cache invalidation failed", "key", key, "error", err)
		}
	}

	return nil
}
