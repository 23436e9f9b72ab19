package sonar

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveEntry(data string) *CacheEntry {
	return &CacheEntry{Data: []byte(data), ExpiresAt: time.Now().Add(time.Hour)}
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("basic operations", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cache := NewMemoryCache(10)

		require.NoError(t, cache.Set(ctx, "k", &CacheEntry{Data: []byte("v"), ETag: `"abc"`, ExpiresAt: time.Now().Add(time.Hour)}))
		assert.True(t, cache.Has(ctx, "k"))

		entry, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), entry.Data)
		assert.Equal(t, `"abc"`, entry.ETag)

		require.NoError(t, cache.Delete(ctx, "k"))
		_, err = cache.Get(ctx, "k")
		require.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cache := NewMemoryCache(2)

		require.NoError(t, cache.Set(ctx, "a", liveEntry("1")))
		require.NoError(t, cache.Set(ctx, "b", liveEntry("2")))

		_, err := cache.Get(ctx, "a")
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "c", liveEntry("3")))

		assert.Equal(t, 2, cache.Len())
		assert.True(t, cache.Has(ctx, "a"))
		assert.False(t, cache.Has(ctx, "b"))
		assert.True(t, cache.Has(ctx, "c"))
	})

	t.Run("expired entries", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cache := NewMemoryCache(10)

		require.NoError(t, cache.Set(ctx, "old", &CacheEntry{Data: []byte("x"), ExpiresAt: time.Now().Add(-time.Second)}))
		require.NoError(t, cache.Set(ctx, "stale", &CacheEntry{Data: []byte("y"), ExpiresAt: time.Now().Add(-time.Second)}))
		assert.False(t, cache.Has(ctx, "old"))

		_, err := cache.Get(ctx, "old")
		require.ErrorIs(t, err, ErrCacheEntryExpired)
		assert.Equal(t, 1, cache.Len())

		cache.Cleanup()
		assert.Zero(t, cache.Len())
	})

	t.Run("delete prefix and clear", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cache := NewMemoryCache(10)

		require.NoError(t, cache.Set(ctx, "api/issues|GET:/api/issues/search", liveEntry("1")))
		require.NoError(t, cache.Set(ctx, "api/issues|GET:/api/issues/tags", liveEntry("2")))
		require.NoError(t, cache.Set(ctx, "api/rules|GET:/api/rules/search", liveEntry("3")))

		require.NoError(t, cache.DeletePrefix(ctx, "api/issues|"))
		assert.Equal(t, 1, cache.Len())
		assert.True(t, cache.Has(ctx, "api/rules|GET:/api/rules/search"))

		require.NoError(t, cache.Clear(ctx))
		assert.Zero(t, cache.Len())
	})
}

func TestCacheArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected string
	}{
		{"/api/issues/search", "api/issues"},
		{"/api/qualitygates/project_status", "api/qualitygates"},
		{"/api/v2/fix-suggestions/ai-suggestions", "api/v2/fix-suggestions"},
		{"/api/v2/users-management/users", "api/v2/users-management"},
		{"/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, CacheArea(tt.path))
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCacheManager(t *testing.T) {
	t.Parallel()

	t.Run("keys carry area and query", func(t *testing.T) {
		t.Parallel()

		manager := NewCacheManager(nil, nil)
		key := manager.GetCacheKey("GET", "/api/issues/search", url.Values{"ps": {"10"}, "p": {"1"}})
		assert.Equal(t, "api/issues|GET:/api/issues/search?p=1&ps=10", key)
		assert.Equal(t, "api/rules|GET:/api/rules/show", manager.GetCacheKey("GET", "/api/rules/show", nil))
	})

	t.Run("stats", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		manager := NewCacheManager(NewMemoryCache(10), &CacheOptions{TTL: time.Minute})

		_, err := manager.Get(ctx, "missing")
		require.Error(t, err)

		require.NoError(t, manager.Set(ctx, "k", []byte("v"), 0))

		data, err := manager.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)

		stats := manager.GetStats()
		assert.Equal(t, int64(1), stats.Hits)
		assert.Equal(t, int64(1), stats.Misses)
		assert.Equal(t, int64(1), stats.Sets)
		assert.InDelta(t, 0.5, stats.GetHitRate(), 0.001)
		assert.Equal(t, time.Minute, manager.TTL())
	})

	t.Run("etags only when enabled", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()

		enabled := NewCacheManager(nil, &CacheOptions{TTL: time.Minute, EnableETags: true})
		require.NoError(t, enabled.SetWithETag(ctx, "k", []byte("v"), `"1"`, 0))
		entry, err := enabled.Entry(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `"1"`, entry.ETag)

		disabled := NewCacheManager(nil, &CacheOptions{TTL: time.Minute})
		require.NoError(t, disabled.SetWithETag(ctx, "k", []byte("v"), `"1"`, 0))
		entry, err = disabled.Entry(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, entry.ETag)
	})

	t.Run("invalidation drops the area only", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		manager := NewCacheManager(NewMemoryCache(10), &CacheOptions{TTL: time.Minute})

		issuesKey := manager.GetCacheKey("GET", "/api/issues/search", nil)
		rulesKey := manager.GetCacheKey("GET", "/api/rules/search", nil)
		require.NoError(t, manager.Set(ctx, issuesKey, []byte("i"), 0))
		require.NoError(t, manager.Set(ctx, rulesKey, []byte("r"), 0))

		require.NoError(t, manager.InvalidatePath(ctx, "/api/issues/assign"))

		_, err := manager.Get(ctx, issuesKey)
		require.Error(t, err)
		_, err = manager.Get(ctx, rulesKey)
		require.NoError(t, err)
		assert.Equal(t, int64(1), manager.GetStats().Invalidations)
	})

	t.Run("invalidation without prefix support clears", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		backend := &clearCountingCache{Cache: NopCache{}}
		manager := NewCacheManager(backend, nil)

		require.NoError(t, manager.InvalidatePath(ctx, "/api/issues/assign"))
		assert.Equal(t, 1, backend.clears)
	})
}

type clearCountingCache struct {
	Cache

	clears int
}

func (c *clearCountingCache) Clear(ctx context.Context) error {
	c.clears++

	return c.Cache.Clear(ctx)
}

func TestCachingPolicy(t *testing.T) {
	t.Parallel()

	policy := DefaultCachingPolicy()
	assert.True(t, policy.ShouldCache("GET", "/api/rules/search", 200))
	assert.False(t, policy.ShouldCache("GET", "/api/rules/search", 404))
	assert.False(t, policy.ShouldCache("POST", "/api/rules/create", 200))
	assert.False(t, policy.ShouldCache("DELETE", "/api/v2/x", 200))
	assert.False(t, policy.ShouldCache("GET", "/api/ce/task", 200))
	assert.False(t, policy.ShouldCache("GET", "/api/system/health", 200))

	scoped := &CachingPolicy{CacheGET: true, IncludePaths: []string{"/api/rules/"}}
	assert.True(t, scoped.ShouldCache("GET", "/api/rules/show", 200))
	assert.False(t, scoped.ShouldCache("GET", "/api/issues/search", 200))
}

func TestNewCache(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		cache, err := NewCacheBuilder().Memory(5).Build()
		require.NoError(t, err)
		assert.IsType(t, &MemoryCache{}, cache)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		cache, err := NewCache(nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryCache{}, cache)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		cache, err := NewCacheBuilder().Disabled().Build()
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, "k", liveEntry("v")))
		assert.False(t, cache.Has(ctx, "k"))

		_, err = cache.Get(ctx, "k")
		require.ErrorIs(t, err, ErrCacheDisabled)
	})

	t.Run("nats without config", func(t *testing.T) {
		t.Parallel()

		_, err := NewCache(&CacheConfig{Backend: CacheBackendNATS})
		require.ErrorIs(t, err, ErrNATSConfigRequired)

		_, err = NewCache(&CacheConfig{Backend: CacheBackendTiered})
		require.ErrorIs(t, err, ErrNATSConfigRequired)

		_, err = NewCacheBuilder().NATS(&NATSKVConfig{}, false).Build()
		require.ErrorIs(t, err, ErrNATSURLRequired)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		_, err := NewCache(&CacheConfig{Backend: "redis"})
		require.ErrorIs(t, err, ErrUnknownCacheBackend)
	})
}

func TestTieredCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l1 := NewMemoryCache(10)
	l2 := NewMemoryCache(10)
	tiered := NewTieredCache(l1, l2)

	require.NoError(t, l2.Set(ctx, "k", liveEntry("v")))
	assert.False(t, l1.Has(ctx, "k"))

	entry, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), entry.Data)
	assert.True(t, l1.Has(ctx, "k"), "hit in l2 back-fills l1")

	require.NoError(t, tiered.Set(ctx, "api/issues|x", liveEntry("i")))
	require.NoError(t, tiered.DeletePrefix(ctx, "api/issues|"))
	assert.False(t, tiered.Has(ctx, "api/issues|x"))
	assert.True(t, tiered.Has(ctx, "k"))

	require.NoError(t, tiered.Delete(ctx, "k"))
	_, err = tiered.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestTieredCache_AggregatesTierErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tiered := NewTieredCache(failingCache{NopCache{}}, NewMemoryCache(10), failingCache{NopCache{}})

	err := tiered.Set(ctx, "k", liveEntry("v"))
	require.Error(t, err)
	require.ErrorIs(t, err, errTierDown)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.True(t, tiered.Has(ctx, "k"), "healthy tiers still receive the write")
}

var errTierDown = errors.New("tier down")

type failingCache struct {
	NopCache
}

func (failingCache) Set(context.Context, string, *CacheEntry) error { return errTierDown }
