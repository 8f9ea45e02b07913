// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storybook/internal/platform/constants"
)

// RedisCache implements [Cache] with JSON documents in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed [Cache] with the default published TTL.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ttl: constants.PublishedStorybookTTL}
}

func cacheKey(id string) string {
	return constants.RedisPrefixPublishedStorybook + id
}

/*
Get retrieves a cached storybook.

Returns:
  - *Storybook: The cached aggregate with pages
  - bool: false on a cache miss
  - error: Connectivity or decoding errors
*/
func (cache *RedisCache) Get(context context.Context, id string) (*Storybook, bool, error) {
	payload, err := cache.client.Get(context, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis_storybook_get_failed: %w", err)
	}

	storybook := &Storybook{}
	if err := json.Unmarshal(payload, storybook); err != nil {
		return nil, false, fmt.Errorf("redis_storybook_decode_failed: %w", err)
	}

	return storybook, true, nil
}

// Set stores a published storybook with the configured TTL.
func (cache *RedisCache) Set(context context.Context, storybook *Storybook) error {
	payload, err := json.Marshal(storybook)
	if err != nil {
		return fmt.Errorf("redis_storybook_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, cacheKey(storybook.ID), payload, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_storybook_set_failed: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for id.
func (cache *RedisCache) Invalidate(context context.Context, id string) error {
	if err := cache.client.Del(context, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis_storybook_delete_failed: %w", err)
	}
	return nil
}
