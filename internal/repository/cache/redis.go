package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

// RedisCache caches product documents and review pages
type RedisCache struct {
	client         *redis.Client
	productTTL     time.Duration
	reviewsListTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, productTTL, reviewsListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		productTTL:     productTTL,
		reviewsListTTL: reviewsListTTL,
	}
}

// ReviewPage is a cached page of reviews together with the total at the time
// the page was read
type ReviewPage struct {
	Reviews []*domain.Review `json:"reviews"`
	Total   int              `json:"total"`
}

func productKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

func reviewsPageKey(productID string, limit, offset int) string {
	return fmt.Sprintf("product:%s:reviews:limit:%d:offset:%d", productID, limit, offset)
}

func reviewKeysSet(productID string) string {
	return fmt.Sprintf("product:%s:cache_keys", productID)
}

// GetProduct returns a cached product or domain.ErrNotFound on a miss
func (c *RedisCache) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	raw, err := c.client.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SetProduct stores a product
func (c *RedisCache) SetProduct(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(product.ID), data, c.productTTL).Err()
}

// InvalidateProduct removes a cached product
func (c *RedisCache) InvalidateProduct(ctx context.Context, productID string) error {
	return c.client.Del(ctx, productKey(productID)).Err()
}

// GetReviewsPage returns a cached review page or domain.ErrNotFound on a miss
func (c *RedisCache) GetReviewsPage(ctx context.Context, productID string, limit, offset int) (*ReviewPage, error) {
	raw, err := c.client.Get(ctx, reviewsPageKey(productID, limit, offset)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var page ReviewPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetReviewsPage stores a review page and tracks its key in the product's SET
func (c *RedisCache) SetReviewsPage(ctx context.Context, productID string, limit, offset int, page *ReviewPage) error {
	key := reviewsPageKey(productID, limit, offset)
	trackingKey := reviewKeysSet(productID)

	data, err := json.Marshal(page)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.reviewsListTTL)
	pipe.SAdd(ctx, trackingKey, key)
	pipe.Expire(ctx, trackingKey, c.reviewsListTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateReviews removes every cached review page of a product
func (c *RedisCache) InvalidateReviews(ctx context.Context, productID string) error {
	trackingKey := reviewKeysSet(productID)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return c.client.Unlink(ctx, append(keys, trackingKey)...).Err()
}

// InvalidateProductAndReviews drops the product and its review pages. Used
// whenever a review write changes the product's rating.
func (c *RedisCache) InvalidateProductAndReviews(ctx context.Context, productID string) error {
	if err := c.InvalidateProduct(ctx, productID); err != nil {
		return err
	}
	return c.InvalidateReviews(ctx, productID)
}
