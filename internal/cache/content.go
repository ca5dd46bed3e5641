// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/nodezblockchain/nodez-go/internal/content"
)

const contentKeyPrefix = "content:"

// ContentCache caches item lists per collection so public list pages
// do not hit the remote store on every request. It satisfies the view
// controller's Invalidator, which drops a collection's entry after
// every successful write.
type ContentCache struct {
	typed  *TypedCache[[]content.Item]
	logger *slog.Logger
}

// NewContentCache creates a content list cache over the given backend.
func NewContentCache(backend Cacher, ttl time.Duration, logger *slog.Logger) *ContentCache {
	return &ContentCache{
		typed:  NewTypedCache[[]content.Item](backend, ttl),
		logger: logger,
	}
}

// List returns the cached item list for the repository's collection,
// fetching through the repository on a miss. A store failure
// propagates; stale data is never served past its TTL.
func (c *ContentCache) List(ctx context.Context, repo *content.Repository) ([]content.Item, error) {
	items, err := c.typed.GetOrSet(ctx, contentKeyPrefix+repo.Collection(), func() (*[]content.Item, error) {
		fetched, err := repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return &fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return *items, nil
}

// Invalidate drops the cached list for a collection.
func (c *ContentCache) Invalidate(collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.typed.Delete(ctx, contentKeyPrefix+collection); err != nil {
		c.logger.Warn("cache invalidation failed",
			slog.String("collection", collection),
			slog.Any("error", err))
	}
}

// Warm populates the cache for each repository. Failures are logged
// and skipped: a cold key just means the next request fetches.
func (c *ContentCache) Warm(ctx context.Context, repos ...*content.Repository) {
	for _, repo := range repos {
		items, err := repo.List(ctx)
		if err != nil {
			c.logger.Warn("cache warm failed",
				slog.String("collection", repo.Collection()),
				slog.Any("error", err))
			continue
		}
		if err := c.typed.Set(ctx, contentKeyPrefix+repo.Collection(), &items); err != nil {
			c.logger.Warn("cache warm store failed",
				slog.String("collection", repo.Collection()),
				slog.Any("error", err))
		}
	}
}
