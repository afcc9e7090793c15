package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFilters struct {
	dependency.Filters
	loads   map[string]int
	filters []entity.Filter
	failAdd bool
}

func newFakeFilters(filters ...entity.Filter) *fakeFilters {
	return &fakeFilters{loads: map[string]int{}, filters: filters}
}

func (f *fakeFilters) LoadByIds(_ context.Context, ids []string) ([]entity.Filter, error) {
	f.loads["ids"]++
	return f.filters, nil
}

func (f *fakeFilters) LoadForCategory(_ context.Context, slug string) ([]entity.Filter, error) {
	f.loads["category:"+slug]++
	return f.filters, nil
}

func (f *fakeFilters) LoadForGlobalSearch(context.Context) ([]entity.Filter, error) {
	f.loads["global"]++
	return f.filters, nil
}

func (f *fakeFilters) AddFilter(context.Context, *entity.FilterBody) (string, error) {
	if f.failAdd {
		return "", errors.New("boom")
	}
	return "new", nil
}

func newMemoryCache(t *testing.T, ttl time.Duration, maxEntries int) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(ttl, maxEntries)
	t.Cleanup(c.Stop)
	return c
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryCache(t, time.Minute, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "global", []entity.Filter{{Id: "a"}})
	got, ok := c.Get(ctx, "global")
	require.True(t, ok)
	assert.Equal(t, "a", got[0].Id)

	// callers can't corrupt cached entries
	got[0].Id = "changed"
	got, _ = c.Get(ctx, "global")
	assert.Equal(t, "a", got[0].Id)

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "global")
	assert.False(t, ok)
}

func TestMemoryCacheDropsExpiredOnRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryCache(t, time.Minute, 20000)
	c.now = func() time.Time { return now }

	for i := 0; i < 10000; i++ {
		c.Set(ctx, fmt.Sprintf("ids:unknown-%d", i), nil)
	}
	require.Equal(t, 10000, c.Len())

	now = now.Add(time.Hour)
	for i := 0; i < 10000; i++ {
		_, ok := c.Get(ctx, fmt.Sprintf("ids:unknown-%d", i))
		require.False(t, ok)
	}
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryCache(t, time.Minute, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "category:old", nil)
	now = now.Add(30 * time.Second)
	c.Set(ctx, "category:new", nil)

	now = now.Add(45 * time.Second)
	c.evictExpired()
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(ctx, "category:new")
	assert.True(t, ok)
}

func TestMemoryCacheBounded(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryCache(t, time.Hour, 3)
	c.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		c.Set(ctx, fmt.Sprintf("category:%d", i), []entity.Filter{{Id: "a"}})
	}
	assert.Equal(t, 3, c.Len())

	// oldest keys go first
	_, ok := c.Get(ctx, "category:0")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "category:9")
	assert.True(t, ok)

	// overwriting a stored key never evicts
	c.Set(ctx, "category:9", nil)
	assert.Equal(t, 3, c.Len())
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(t, time.Hour, 0)
	c.Set(ctx, "global", []entity.Filter{{Id: "a"}})
	c.Invalidate(ctx)
	_, ok := c.Get(ctx, "global")
	assert.False(t, ok)
}

func TestRegistryCachesLoads(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFilters(entity.Filter{Id: "a"})
	r := NewRegistry(fs, newMemoryCache(t, time.Hour, 0))

	for i := 0; i < 3; i++ {
		_, err := r.LoadForGlobalSearch(ctx)
		require.NoError(t, err)
		_, err = r.LoadForCategory(ctx, "shoes")
		require.NoError(t, err)
		_, err = r.LoadByIds(ctx, []string{"b", "a"})
		require.NoError(t, err)
		_, err = r.LoadByIds(ctx, []string{"a", "b"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fs.loads["global"])
	assert.Equal(t, 1, fs.loads["category:shoes"])
	assert.Equal(t, 1, fs.loads["ids"])

	got, err := r.LoadByIds(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, fs.loads["ids"])
}

func TestRegistrySkipsEmptyIdLoads(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFilters()
	c := newMemoryCache(t, time.Hour, 0)
	r := NewRegistry(fs, c)

	for i := 0; i < 3; i++ {
		got, err := r.LoadByIds(ctx, []string{fmt.Sprintf("unknown-%d", i)})
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 3, fs.loads["ids"])
	assert.Equal(t, 0, c.Len())

	_, err := r.LoadForCategory(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestRegistryInvalidatesOnChange(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFilters(entity.Filter{Id: "a"})
	r := NewRegistry(fs, newMemoryCache(t, time.Hour, 0))

	_, err := r.LoadForGlobalSearch(ctx)
	require.NoError(t, err)

	fs.failAdd = true
	_, err = r.AddFilter(ctx, &entity.FilterBody{})
	require.Error(t, err)
	_, err = r.LoadForGlobalSearch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fs.loads["global"])

	fs.failAdd = false
	id, err := r.AddFilter(ctx, &entity.FilterBody{})
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	_, err = r.LoadForGlobalSearch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.loads["global"])
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("CATALOG_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CATALOG_TEST_REDIS_URL is not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, "catalog-test:"+time.Now().Format(time.RFC3339Nano)+":", time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ctx, "global")
	assert.False(t, ok)

	c.Set(ctx, "global", []entity.Filter{{Id: "a", FilterBody: entity.FilterBody{AttributeKeys: entity.AttributeKeys{"color"}}}})
	got, ok := c.Get(ctx, "global")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, entity.AttributeKeys{"color"}, got[0].AttributeKeys)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "global")
	assert.False(t, ok)
}
