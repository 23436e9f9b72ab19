package sonar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// CacheBackend names a Cache implementation.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendNATS   CacheBackend = "nats"
	// CacheBackendTiered puts a process-local LRU in front of a NATS bucket
	// shared by every client pointed at the same server.
	CacheBackendTiered CacheBackend = "tiered"
	CacheBackendNone   CacheBackend = "none"
)

var (
	ErrNATSConfigRequired  = errors.New("NATS configuration required for a NATS backed cache")
	ErrUnknownCacheBackend = errors.New("unknown cache backend")
	ErrCacheDisabled       = errors.New("cache disabled")
)

// CacheConfig selects and sizes a cache backend.
type CacheConfig struct {
	Backend CacheBackend
	// MaxEntries bounds the memory tier.
	MaxEntries int
	// Sweep is how often the memory tier drops expired entries. Zero leaves
	// expired entries to be evicted lazily on read.
	Sweep time.Duration
	// TTL is applied to the NATS bucket when NATS.TTL is unset.
	TTL  time.Duration
	NATS *NATSKVConfig
}

// NewCache builds the backend described by config. A nil config gives a
// memory cache of the default size.
func NewCache(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = &CacheConfig{Backend: CacheBackendMemory}
	}

	switch config.Backend {
	case CacheBackendMemory, "":
		return newMemoryTier(config), nil
	case CacheBackendNATS:
		shared, err := newNATSTier(config)
		if err != nil {
			return nil, err
		}

		return shared, nil
	case CacheBackendTiered:
		shared, err := newNATSTier(config)
		if err != nil {
			return nil, err
		}

		return NewTieredCache(newMemoryTier(config), shared), nil
	case CacheBackendNone:
		return NopCache{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCacheBackend, config.Backend)
	}
}

func newMemoryTier(config *CacheConfig) *MemoryCache {
	size := config.MaxEntries
	if size <= 0 {
		size = constants.DefaultCacheSize
	}

	cache := NewMemoryCache(size)
	if config.Sweep > 0 {
		cache.StartCleanup(context.Background(), config.Sweep)
	}

	return cache
}

func newNATSTier(config *CacheConfig) (*NATSKVCache, error) {
	if config.NATS == nil {
		return nil, ErrNATSConfigRequired
	}

	natsConfig := *config.NATS
	if natsConfig.TTL == 0 {
		natsConfig.TTL = config.TTL
	}

	return NewNATSKVCache(&natsConfig)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*CacheEntry, error) { return nil, ErrCacheDisabled }
func (NopCache) Set(context.Context, string, *CacheEntry) error { return nil }
func (NopCache) Delete(context.Context, string) error { return nil }
func (NopCache) Clear(context.Context) error { return nil }
func (NopCache) Has(context.Context, string) bool { return false }
func (NopCache) DeletePrefix(context.Context, string) error { return nil }

// CacheBuilder assembles a CacheConfig fluently.
type CacheBuilder struct {
	config CacheConfig
}

// NewCacheBuilder starts from a memory cache of the default size.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: CacheConfig{
		Backend:    CacheBackendMemory,
		MaxEntries: constants.DefaultCacheSize,
		TTL:        constants.DefaultCacheTTL,
	}}
}

// Memory keeps at most maxEntries responses in process.
func (b *CacheBuilder) Memory(maxEntries int) *CacheBuilder {
	b.config.MaxEntries = maxEntries

	return b
}

// SweepEvery drops expired memory entries on an interval.
func (b *CacheBuilder) SweepEvery(interval time.Duration) *CacheBuilder {
	b.config.Sweep = interval

	return b
}

// NATS stores responses in a JetStream key-value bucket. With shareOnly
// false the memory tier stays in front of the bucket.
func (b *CacheBuilder) NATS(config *NATSKVConfig, shareOnly bool) *CacheBuilder {
	b.config.NATS = config
	b.config.Backend = CacheBackendTiered

	if shareOnly {
		b.config.Backend = CacheBackendNATS
	}

	return b
}

// TTL sets the lifetime of bucket entries.
func (b *CacheBuilder) TTL(ttl time.Duration) *CacheBuilder {
	b.config.TTL = ttl

	return b
}

// Disabled turns caching off.
func (b *CacheBuilder) Disabled() *CacheBuilder {
	b.config.Backend = CacheBackendNone

	return b
}

// Build creates the cache.
func (b *CacheBuilder) Build() (Cache, error) {
	config := b.config

	return NewCache(&config)
}

// TieredCache consults its tiers fastest first. A hit in a slower tier is
// copied into the faster ones; writes and invalidations reach every tier.
type TieredCache struct {
	tiers []Cache
}

// NewTieredCache orders tiers from fastest to slowest.
func NewTieredCache(tiers ...Cache) *TieredCache {
	return &TieredCache{tiers: tiers}
}

func (c *TieredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, tier := range c.tiers {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.tiers[:i] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrCacheMiss
}

func (c *TieredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(tier Cache) error { return tier.Set(ctx, key, entry) })
}

func (c *TieredCache) Delete(ctx context.Context, key string) error {
	return c.each(func(tier Cache) error { return tier.Delete(ctx, key) })
}

// DeletePrefix drops an API area from every tier. Tiers that cannot drop
// by prefix are cleared.
func (c *TieredCache) DeletePrefix(ctx context.Context, prefix string) error {
	return c.each(func(tier Cache) error {
		if deleter, ok := tier.(PrefixDeleter); ok {
			return deleter.DeletePrefix(ctx, prefix)
		}

		return tier.Clear(ctx)
	})
}

func (c *TieredCache) Clear(ctx context.Context) error {
	return c.each(func(tier Cache) error { return tier.Clear(ctx) })
}

func (c *TieredCache) Has(ctx context.Context, key string) bool {
	for _, tier := range c.tiers {
		if tier.Has(ctx, key) {
			return true
		}
	}

	return false
}

func (c *TieredCache) each(fn func(Cache) error) error {
	var result *multierror.Error

	for _, tier := range c.tiers {
		if err := fn(tier); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
