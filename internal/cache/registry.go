// Package cache holds short-lived caches of filter definitions.
package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/entity"
)

// Registry decorates the filter store with a cache of registry loads.
// Every successful definition change invalidates the cache.
type Registry struct {
	dependency.Filters
	cache dependency.RegistryCache
}

func NewRegistry(filters dependency.Filters, cache dependency.RegistryCache) *Registry {
	return &Registry{
		Filters: filters,
		cache:   cache,
	}
}

func idsKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return "ids:" + strings.Join(sorted, ",")
}

// load serves key from the cache or fetches it. Empty results are cached only
// when cacheEmpty is set.
func (r *Registry) load(ctx context.Context, key string, cacheEmpty bool, fetch func(context.Context) ([]entity.Filter, error)) ([]entity.Filter, error) {
	if filters, ok := r.cache.Get(ctx, key); ok {
		return filters, nil
	}
	filters, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(filters) > 0 || cacheEmpty {
		r.cache.Set(ctx, key, filters)
	}
	return filters, nil
}

func (r *Registry) LoadByIds(ctx context.Context, ids []string) ([]entity.Filter, error) {
	if len(ids) == 0 {
		return []entity.Filter{}, nil
	}
	return r.load(ctx, idsKey(ids), false, func(ctx context.Context) ([]entity.Filter, error) {
		return r.Filters.LoadByIds(ctx, ids)
	})
}

func (r *Registry) LoadForCategory(ctx context.Context, slug string) ([]entity.Filter, error) {
	return r.load(ctx, "category:"+slug, true, func(ctx context.Context) ([]entity.Filter, error) {
		return r.Filters.LoadForCategory(ctx, slug)
	})
}

func (r *Registry) LoadForGlobalSearch(ctx context.Context) ([]entity.Filter, error) {
	return r.load(ctx, "global", true, r.Filters.LoadForGlobalSearch)
}

func (r *Registry) invalidate(ctx context.Context, err error) error {
	if err == nil {
		r.cache.Invalidate(ctx)
	}
	return err
}

func (r *Registry) AddFilter(ctx context.Context, fb *entity.FilterBody) (string, error) {
	id, err := r.Filters.AddFilter(ctx, fb)
	return id, r.invalidate(ctx, err)
}

func (r *Registry) UpdateFilter(ctx context.Context, id string, fb *entity.FilterBody) error {
	return r.invalidate(ctx, r.Filters.UpdateFilter(ctx, id, fb))
}

func (r *Registry) DeleteFilter(ctx context.Context, id string) error {
	return r.invalidate(ctx, r.Filters.DeleteFilter(ctx, id))
}

func (r *Registry) AddGroup(ctx context.Context, g *entity.FilterGroup) (string, error) {
	id, err := r.Filters.AddGroup(ctx, g)
	return id, r.invalidate(ctx, err)
}

func (r *Registry) DeleteGroup(ctx context.Context, id string) error {
	return r.invalidate(ctx, r.Filters.DeleteGroup(ctx, id))
}

func (r *Registry) SetCategoryFilters(ctx context.Context, slug string, filterIds []string) error {
	return r.invalidate(ctx, r.Filters.SetCategoryFilters(ctx, slug, filterIds))
}

func (r *Registry) SetFilterOptions(ctx context.Context, filterId string, opts []entity.FilterOption) error {
	return r.invalidate(ctx, r.Filters.SetFilterOptions(ctx, filterId, opts))
}
