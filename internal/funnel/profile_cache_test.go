package funnel_test

import (
	"context"
	"testing"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/funnel"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/cache"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/memstore"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/observability"
)

type countingProfiles struct {
	*memstore.ProfileStore
	loads int
}

func (c *countingProfiles) Load(ctx context.Context, visitorID string) (*domain.UserProfile, error) {
	c.loads++
	return c.ProfileStore.Load(ctx, visitorID)
}

func TestCachedProfiles_SecondLoadSkipsStore(t *testing.T) {
	inner := &countingProfiles{ProfileStore: memstore.NewProfileStore()}
	cached := funnel.NewCachedProfiles(inner, cache.New[*domain.UserProfile](time.Minute), observability.NewMetrics())
	ctx := context.Background()

	if err := cached.Save(ctx, domain.NewUserProfile("visitor-1")); err != nil {
		t.Fatal(err)
	}

	if _, err := cached.Load(ctx, "visitor-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.Load(ctx, "visitor-1"); err != nil {
		t.Fatal(err)
	}

	if inner.loads != 0 {
		t.Errorf("expected save to warm the cache, got %d store loads", inner.loads)
	}
}

func TestCachedProfiles_ResetInvalidates(t *testing.T) {
	inner := &countingProfiles{ProfileStore: memstore.NewProfileStore()}
	cached := funnel.NewCachedProfiles(inner, cache.New[*domain.UserProfile](time.Minute), observability.NewMetrics())
	ctx := context.Background()

	if err := cached.Save(ctx, domain.NewUserProfile("visitor-1")); err != nil {
		t.Fatal(err)
	}
	if err := cached.Reset(ctx, "visitor-1"); err != nil {
		t.Fatal(err)
	}

	_, err := cached.Load(ctx, "visitor-1")
	if err == nil {
		t.Fatal("expected not-found after reset")
	}
	if inner.loads != 1 {
		t.Errorf("expected reset to force a store read, got %d loads", inner.loads)
	}
}
