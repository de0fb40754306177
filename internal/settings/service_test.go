// AngelaMos | 2026
// service_test.go

package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/config"
	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/money"
)

type memRepo struct {
	rows map[string][]byte
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string][]byte{}}
}

func (m *memRepo) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.rows[key]
	if !ok {
		return core.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *memRepo) Put(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.rows[key] = raw
	return nil
}

func (m *memRepo) Seed(ctx context.Context, key string, value any) error {
	if _, ok := m.rows[key]; ok {
		return nil
	}
	return m.Put(ctx, key, value)
}

type memCache struct {
	entries map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
		c.deletes++
	}
	return nil
}

func testDefaults() AppSettings {
	return DefaultsFromConfig(config.MarketplaceConfig{
		CommissionRate:            5,
		ProCommissionRate:         2,
		BumpPrice:                 10,
		FeaturePrice:              50,
		ProPrice:                  99,
		BuyerProtectionFeePercent: 5,
		BuyerProtectionFeeFixed:   5,
		ShippingFee:               35,
		PaymentMethods:            []string{PaymentCard, PaymentBalance},
	})
}

func TestSeedAndRead(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, newMemCache(), testDefaults(), time.Minute)

	require.NoError(t, svc.Seed(ctx))

	got, err := svc.AppSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.FromMAD(35), got.ShippingFee)
	assert.True(t, got.PaymentEnabled(PaymentBalance))
	assert.True(t, got.CommissionFor(true).Equal(decimal.NewFromInt(2)))

	content, err := svc.AppContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BALAoui. Trouvez. Partagez.", content.HeroSlogan)
}

func TestSeedKeepsExistingValues(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	custom := testDefaults()
	custom.ShippingFee = money.FromMAD(20)
	require.NoError(t, repo.Put(ctx, KeyAppSettings, custom))

	svc := NewService(repo, nil, testDefaults(), time.Minute)
	require.NoError(t, svc.Seed(ctx))

	got, err := svc.AppSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.FromMAD(20), got.ShippingFee)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	svc := NewService(newMemRepo(), cache, testDefaults(), time.Minute)
	require.NoError(t, svc.Seed(ctx))

	_, err := svc.AppSettings(ctx)
	require.NoError(t, err)
	assert.Contains(t, cache.entries, cachePrefix+KeyAppSettings)

	next := testDefaults()
	next.PaymentMethods = []string{PaymentCard}
	_, err = svc.UpdateAppSettings(ctx, next)
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, cachePrefix+KeyAppSettings)

	got, err := svc.AppSettings(ctx)
	require.NoError(t, err)
	assert.False(t, got.PaymentEnabled(PaymentBalance))
}

func TestUpdateRejectsInvalidSettings(t *testing.T) {
	svc := NewService(newMemRepo(), nil, testDefaults(), time.Minute)

	bad := testDefaults()
	bad.CommissionRate = decimal.NewFromInt(150)
	_, err := svc.UpdateAppSettings(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	bad = testDefaults()
	bad.PaymentMethods = []string{"crypto"}
	_, err = svc.UpdateAppSettings(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestMissingRowFallsBackToDefaults(t *testing.T) {
	svc := NewService(newMemRepo(), nil, testDefaults(), time.Minute)

	got, err := svc.AppSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, money.FromMAD(10), got.BumpPrice)
}
