// AngelaMos | 2026
// repository.go

package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type Repository interface {
	Get(ctx context.Context, key string, dest any) error
	Put(ctx context.Context, key string, value any) error
	// Seed stores value only when key has never been written.
	Seed(ctx context.Context, key string, value any) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT value FROM settings WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get setting %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get setting %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}

	return nil
}

func (r *repository) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, key, raw); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}

	return nil
}

func (r *repository) Seed(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, key, raw); err != nil {
		return fmt.Errorf("seed setting %s: %w", key, err)
	}

	return nil
}
