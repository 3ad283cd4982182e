// Package listings keeps the baseline internship listings fresh: it serves
// them from the persisted cache while valid and regenerates them otherwise.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
	"github.com/spigell/internify/internal/storage"
)

const (
	// DefaultTTL is how long a generated listing set stays valid.
	DefaultTTL = 30 * time.Minute

	refreshKey = "generate"
)

// Source tells where a listing set came from.
type Source int

const (
	SourceCache Source = iota + 1
	SourceGateway
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceGateway:
		return "gateway"
	default:
		return "unknown"
	}
}

// Options tune a Cache. Zero values fall back to defaults.
type Options struct {
	TTL    time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// Cache serves listings from the store and regenerates them through the
// gateway. Concurrent regenerations share a single gateway call.
type Cache struct {
	store   storage.Store
	gateway ai.Gateway
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	group singleflight.Group
}

func New(store storage.Store, gateway ai.Gateway, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		store:   store,
		gateway: gateway,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  logger.Component(opts.Logger, "listings"),
	}
}

// TTL returns the validity window of a cached set.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Load returns the cached listings when they are valid, otherwise it
// regenerates them.
func (c *Cache) Load(ctx context.Context) ([]internship.Internship, Source, error) {
	if set, ok := c.cached(ctx); ok {
		c.logger.Debug("serving listings from cache",
			zap.Int("count", len(set.Internships)),
			zap.Time("generated_at", time.UnixMilli(set.Timestamp)),
		)
		return set.Internships, SourceCache, nil
	}

	items, err := c.Refresh(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, SourceGateway, nil
}

// Refresh asks the gateway for a new listing set and persists it regardless
// of the current cache state. A failed generation leaves the store untouched.
// The shared generation is detached from any one caller's cancellation; a
// caller whose ctx ends stops waiting without affecting the others.
func (c *Cache) Refresh(ctx context.Context) ([]internship.Internship, error) {
	flight := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.generate(flight)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ai.AsGatewayError(ai.ActionGenerate, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug("joined in-flight listing generation")
	}

	items := res.Val.([]internship.Internship)
	out := make([]internship.Internship, len(items))
	for idx, item := range items {
		out[idx] = item.Clone()
	}
	return out, nil
}

func (c *Cache) generate(ctx context.Context) ([]internship.Internship, error) {
	c.logger.Info("generating listings")

	items, err := c.gateway.Generate(ctx)
	if err != nil {
		c.logger.Warn("listing generation failed", zap.Error(err))
		return nil, ai.AsGatewayError(ai.ActionGenerate, err)
	}

	set := internship.NewCachedListingSet(c.now(), items)
	if err := c.persist(ctx, set); err != nil {
		c.logger.Warn("failed to persist listing cache", zap.Error(err))
	}

	c.logger.Info("listings generated", zap.Int("count", len(set.Internships)))
	return set.Internships, nil
}

func (c *Cache) persist(ctx context.Context, set *internship.CachedListingSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal listing cache: %w", err)
	}
	if err := c.store.Set(ctx, storage.KeyListingCache, string(data)); err != nil {
		return fmt.Errorf("write listing cache: %w", err)
	}
	return nil
}

// cached reads the stored set. Unreadable entries are removed so the next
// generation starts clean.
func (c *Cache) cached(ctx context.Context) (*internship.CachedListingSet, bool) {
	raw, ok, err := storage.Lookup(ctx, c.store, storage.KeyListingCache)
	if err != nil {
		c.logger.Warn("failed to read listing cache", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var set internship.CachedListingSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		c.logger.Warn("discarding corrupted listing cache", zap.Error(err))
		if err := c.store.Remove(ctx, storage.KeyListingCache); err != nil {
			c.logger.Warn("failed to remove listing cache", zap.Error(err))
		}
		return nil, false
	}

	if !set.Valid(c.now(), c.ttl) {
		c.logger.Debug("listing cache expired or empty")
		return nil, false
	}

	return &set, true
}
