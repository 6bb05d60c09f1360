package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/logger"

	"gorm.io/gorm"
)

const configCacheKey = "subscription_config"

// ConfigRepository is the Config Store: one row keyed by
// subscriptions.SingletonConfigID, falling back to defaults until an admin
// saves. Reads go through an optional cache.
type ConfigRepository struct {
	db    *gorm.DB
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

type ConfigOption func(*ConfigRepository)

// WithCache enables read-through caching of the config row.
func WithCache(c Cache, ttl time.Duration) ConfigOption {
	return func(r *ConfigRepository) {
		r.cache = c
		r.ttl = ttl
	}
}

func WithLogger(l *slog.Logger) ConfigOption {
	return func(r *ConfigRepository) {
		if l != nil {
			r.log = l
		}
	}
}

func NewConfigRepository(db *gorm.DB, opts ...ConfigOption) *ConfigRepository {
	r := &ConfigRepository{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ConfigRepository) Get(ctx context.Context) (subscriptions.SubscriptionConfig, error) {
	if cfg, ok := r.cached(ctx); ok {
		return cfg, nil
	}

	cfg, err := r.load(r.db.WithContext(ctx))
	if err != nil {
		return subscriptions.SubscriptionConfig{}, err
	}
	// a concurrent Update may have cached a newer row since the load
	r.store(ctx, cfg, false)
	return cfg, nil
}

// Update merges the provided fields into the stored config. Fields left nil
// in u are never written.
func (r *ConfigRepository) Update(ctx context.Context, u subscriptions.ConfigUpdate, updatedBy uint) (subscriptions.SubscriptionConfig, error) {
	var out subscriptions.SubscriptionConfig

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current subscriptions.SubscriptionConfig
		err := tx.Where("id = ?", subscriptions.SingletonConfigID).First(&current).Error
		exists := err == nil
		if errors.Is(err, gorm.ErrRecordNotFound) {
			current = subscriptions.DefaultConfig()
		} else if err != nil {
			return err
		}

		merged := u.Apply(current)
		if err := merged.Validate(); err != nil {
			return err
		}

		if !exists {
			merged.UpdatedBy = &updatedBy
			if err := tx.Create(&merged).Error; err != nil {
				return err
			}
		} else {
			cols := u.Columns()
			cols["updated_by"] = updatedBy
			if err := tx.Model(&subscriptions.SubscriptionConfig{}).
				Where("id = ?", subscriptions.SingletonConfigID).
				Updates(cols).Error; err != nil {
				return err
			}
		}

		out, err = r.load(tx)
		return err
	})
	if err != nil {
		return subscriptions.SubscriptionConfig{}, err
	}

	r.store(ctx, out, true)
	return out, nil
}

func (r *ConfigRepository) load(db *gorm.DB) (subscriptions.SubscriptionConfig, error) {
	var cfg subscriptions.SubscriptionConfig
	err := db.Where("id = ?", subscriptions.SingletonConfigID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return subscriptions.DefaultConfig(), nil
	}
	if err != nil {
		return subscriptions.SubscriptionConfig{}, err
	}
	return cfg, nil
}

// Cache failures only cost a database read, so they are logged and ignored.
func (r *ConfigRepository) cached(ctx context.Context) (subscriptions.SubscriptionConfig, bool) {
	var cfg subscriptions.SubscriptionConfig
	if r.cache == nil {
		return cfg, false
	}
	raw, err := r.cache.Get(ctx, configCacheKey)
	if err != nil {
		return cfg, false
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		r.log.WarnContext(ctx, "discarding unreadable cached config", logger.Component("config_store"), logger.Error(err))
		return cfg, false
	}
	cfg.ID = subscriptions.SingletonConfigID
	return cfg, true
}

// store caches cfg. Reads only fill an empty slot; saves overwrite it.
func (r *ConfigRepository) store(ctx context.Context, cfg subscriptions.SubscriptionConfig, overwrite bool) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	write := r.cache.SetIfAbsent
	if overwrite {
		write = r.cache.Set
	}
	if err := write(ctx, configCacheKey, string(raw), r.ttl); err != nil {
		r.log.WarnContext(ctx, "config cache write failed", logger.Component("config_store"), logger.Error(err))
	}
}
