package funnel

import (
	"context"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/observability"
	"github.com/fitcoachhq/lead-funnel-go/internal/port"
)

// CachedProfiles decorates a ProfileRepository with the in-memory TTL
// cache. Every turn reads the profile, so going to the datastore each
// time would dominate turn latency.
type CachedProfiles struct {
	inner   port.ProfileRepository
	cache   port.Cache[*domain.UserProfile]
	metrics *observability.Metrics
}

// NewCachedProfiles wraps repo with cache.
func NewCachedProfiles(inner port.ProfileRepository, cache port.Cache[*domain.UserProfile], metrics *observability.Metrics) *CachedProfiles {
	return &CachedProfiles{inner: inner, cache: cache, metrics: metrics}
}

// Load returns the cached profile when fresh, falling back to the store.
func (c *CachedProfiles) Load(ctx context.Context, visitorID string) (*domain.UserProfile, error) {
	if profile, ok := c.cache.Get(visitorID); ok {
		c.metrics.IncrCacheHit("profiles")
		return profile, nil
	}
	c.metrics.IncrCacheMiss("profiles")

	profile, err := c.inner.Load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(visitorID, profile)
	return profile, nil
}

// Save writes through to the store and refreshes the cache.
func (c *CachedProfiles) Save(ctx context.Context, profile *domain.UserProfile) error {
	if err := c.inner.Save(ctx, profile); err != nil {
		return err
	}
	c.cache.Set(profile.VisitorID, profile)
	return nil
}

// Reset deletes the stored profile and invalidates the cache entry.
func (c *CachedProfiles) Reset(ctx context.Context, visitorID string) error {
	if err := c.inner.Reset(ctx, visitorID); err != nil {
		return err
	}
	c.cache.Delete(visitorID)
	return nil
}
