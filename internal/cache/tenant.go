package cache

import (
	"context"
	"time"

	"github.com/HanTheDev/storefront-router/internal/hostname"
	"github.com/HanTheDev/storefront-router/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Lookup is the tenant lookup being cached.
type Lookup interface {
	LookupTenant(ctx context.Context, identifier string, kind hostname.Kind) (*models.Tenant, error)
}

// TenantCache is a short-lived, concurrency-safe cache in front of a Lookup.
// Only found tenants are stored; not-found results and errors always go to the
// underlying lookup, so a miss behaves exactly like a cold lookup.
type TenantCache struct {
	next    Lookup
	entries *expirable.LRU[string, *models.Tenant]
}

func NewTenantCache(next Lookup, size int, ttl time.Duration) *TenantCache {
	if size <= 0 {
		size = 1024
	}
	return &TenantCache{
		next:    next,
		entries: expirable.NewLRU[string, *models.Tenant](size, nil, ttl),
	}
}

func cacheKey(identifier string, kind hostname.Kind) string {
	return kind.String() + ":" + identifier
}

func (c *TenantCache) LookupTenant(ctx context.Context, identifier string, kind hostname.Kind) (*models.Tenant, error) {
	key := cacheKey(identifier, kind)
	if tenant, ok := c.entries.Get(key); ok {
		return tenant, nil
	}

	tenant, err := c.next.LookupTenant(ctx, identifier, kind)
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, tenant)
	return tenant, nil
}

// Purge drops a single entry and reports whether it was present.
func (c *TenantCache) Purge(identifier string, kind hostname.Kind) bool {
	return c.entries.Remove(cacheKey(identifier, kind))
}

func (c *TenantCache) Len() int {
	return c.entries.Len()
}
