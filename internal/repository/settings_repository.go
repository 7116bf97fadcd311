package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-service/internal/domain"
	apperrors "github.com/spec-kit/routing-service/pkg/util"
)

const (
	settingsKeyRouting = "routing_config"
	settingsKeySLA     = "sla_config"
)

// SettingsRepository reads and mutates the singleton routing/SLA settings.
// Updates validate before persisting; a malformed configuration never lands.
type SettingsRepository interface {
	RoutingConfig(ctx context.Context) (domain.RoutingConfig, error)
	SLAConfig(ctx context.Context) (domain.SLAConfig, error)
	UpdateRoutingConfig(ctx context.Context, cfg domain.RoutingConfig) error
	UpdateSLAConfig(ctx context.Context, cfg domain.SLAConfig) error
}

type settingsRepository struct {
	pool           *pgxpool.Pool
	defaultRouting domain.RoutingConfig
	defaultSLA     domain.SLAConfig
}

// NewSettingsRepository instantiates the repository. The defaults are served
// until an administrator stores explicit settings.
func NewSettingsRepository(pool *pgxpool.Pool, defaultRouting domain.RoutingConfig, defaultSLA domain.SLAConfig) SettingsRepository {
	return &settingsRepository{
		pool:           pool,
		defaultRouting: defaultRouting,
		defaultSLA:     defaultSLA,
	}
}

func (r *settingsRepository) RoutingConfig(ctx context.Context) (domain.RoutingConfig, error) {
	var cfg domain.RoutingConfig
	found, err := r.load(ctx, settingsKeyRouting, &cfg)
	if err != nil {
		return domain.RoutingConfig{}, err
	}
	if !found {
		return r.defaultRouting, nil
	}
	return cfg, nil
}

func (r *settingsRepository) SLAConfig(ctx context.Context) (domain.SLAConfig, error) {
	var cfg domain.SLAConfig
	found, err := r.load(ctx, settingsKeySLA, &cfg)
	if err != nil {
		return domain.SLAConfig{}, err
	}
	if !found {
		return r.defaultSLA, nil
	}
	return cfg, nil
}

func (r *settingsRepository) UpdateRoutingConfig(ctx context.Context, cfg domain.RoutingConfig) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigInvalid(err)
	}
	return r.store(ctx, settingsKeyRouting, cfg)
}

func (r *settingsRepository) UpdateSLAConfig(ctx context.Context, cfg domain.SLAConfig) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigInvalid(err)
	}
	return r.store(ctx, settingsKeySLA, cfg)
}

func (r *settingsRepository) load(ctx context.Context, key string, dest any) (bool, error) {
	const query = `SELECT value FROM settings WHERE key=$1`
	var raw []byte
	if err := r.pool.QueryRow(ctx, query, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *settingsRepository) store(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO settings (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err = r.pool.Exec(ctx, query, key, raw)
	return err
}
