// Package rediscache provides a read-through Redis cache in front of the
// promotion repository, keyed by coupon code. Coupon lookups happen on every
// checkout, so they are worth keeping hot.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

const codeKeyPrefix = "promotion:code:"

// PromotionCache caches promotions by coupon code.
type PromotionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPromotionCache creates a promotion cache with the given TTL.
func NewPromotionCache(client *redis.Client, ttl time.Duration) *PromotionCache {
	return &PromotionCache{client: client, ttl: ttl}
}

// GetByCode returns the cached promotion for a coupon code, or ErrNotFound
// on a cache miss.
func (c *PromotionCache) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	data, err := c.client.Get(ctx, codeKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get promotion: %w", err)
	}

	var promo domain.Promotion
	if err := json.Unmarshal(data, &promo); err != nil {
		return nil, fmt.Errorf("unmarshal cached promotion: %w", err)
	}
	return &promo, nil
}

// Set stores a promotion under its coupon code.
func (c *PromotionCache) Set(ctx context.Context, promo *domain.Promotion) error {
	if promo.Code == "" {
		return nil
	}

	data, err := json.Marshal(promo)
	if err != nil {
		return fmt.Errorf("marshal promotion: %w", err)
	}

	if err := c.client.Set(ctx, codeKeyPrefix+promo.Code, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set promotion: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a coupon code.
func (c *PromotionCache) Invalidate(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	if err := c.client.Del(ctx, codeKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("redis del promotion: %w", err)
	}
	return nil
}
