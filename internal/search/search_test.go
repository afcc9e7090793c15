package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	filters   map[string]entity.Filter
	category  map[string][]entity.Filter
	global    []entity.Filter
	requested []string
	loadErr   error
}

func (r *fakeRegistry) LoadByIds(_ context.Context, ids []string) ([]entity.Filter, error) {
	r.requested = ids
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	var out []entity.Filter
	for _, id := range ids {
		if f, ok := r.filters[id]; ok {
			out = append(out, f)
		}
	}
	return filter.Bind(out), nil
}

func (r *fakeRegistry) LoadForCategory(_ context.Context, slug string) ([]entity.Filter, error) {
	return filter.Bind(r.category[slug]), nil
}

func (r *fakeRegistry) LoadForGlobalSearch(context.Context) ([]entity.Filter, error) {
	return filter.Bind(r.global), nil
}

type fakeCatalog struct {
	candidateIds []string
	searchTerm   string
	searchLimit  int
	lastWhere    string
	lastParams   map[string]any
	lastQuery    entity.ProductsQuery
	lastScope    entity.FacetScope
	products     []entity.Product
}

func (c *fakeCatalog) SearchCandidateIds(_ context.Context, term string, limit int) ([]string, error) {
	c.searchTerm, c.searchLimit = term, limit
	return c.candidateIds, nil
}

func (c *fakeCatalog) GetProductsPaged(_ context.Context, pred filter.Predicate, q entity.ProductsQuery) ([]entity.Product, int, error) {
	c.lastWhere, c.lastParams = filter.Where(pred)
	c.lastQuery = q
	return c.products, len(c.products), nil
}

func (c *fakeCatalog) DistinctBrands(_ context.Context, scope entity.FacetScope) ([]entity.FacetRow, error) {
	c.lastScope = scope
	return []entity.FacetRow{{Value: "Nike", Count: 1}, {Value: "nike", Count: 1}}, nil
}

func (c *fakeCatalog) DistinctSkus(context.Context, entity.FacetScope) ([]entity.FacetRow, error) {
	return nil, nil
}

func (c *fakeCatalog) DistinctCharacteristics(context.Context, entity.FacetScope, []string) ([]entity.FacetRow, error) {
	return nil, nil
}

func (c *fakeCatalog) DistinctVariantAttributes(context.Context, entity.FacetScope, []string) ([]entity.FacetRow, error) {
	return nil, nil
}

func (c *fakeCatalog) DistinctColumnValues(context.Context, entity.FacetScope, string) ([]entity.FacetRow, error) {
	return nil, nil
}

func (c *fakeCatalog) RangeBounds(context.Context, entity.FacetScope, entity.FieldBinding) (entity.Bounds, error) {
	return entity.Bounds{
		Min: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Max: decimal.NewNullDecimal(decimal.NewFromInt(90)),
	}, nil
}

func (c *fakeCatalog) RatingCounts(context.Context, entity.FacetScope) ([]entity.RatingCount, error) {
	return nil, nil
}

func (c *fakeCatalog) StaticOptions(context.Context, []string) (map[string][]entity.FilterOption, error) {
	return map[string][]entity.FilterOption{}, nil
}

func brandFilter() entity.Filter {
	return entity.Filter{Id: "brand", FilterBody: entity.FilterBody{
		Name: "Brand", FieldName: "brand", Type: entity.FilterTypeMultiSelect, AutoPopulate: true,
	}}
}

func TestSearchEmptySelectionIsStatusOnly(t *testing.T) {
	cat := &fakeCatalog{}
	s := New(Config{}, &fakeRegistry{}, cat)

	res, err := s.Search(context.Background(), SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, "p.status = :pa", cat.lastWhere)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, defaultPerPage, res.PerPage)
	assert.Equal(t, entity.SortRelevance, cat.lastQuery.Sort)
	assert.Equal(t, 0, cat.lastQuery.Offset)
}

func TestSearchWithTermAndSelection(t *testing.T) {
	cat := &fakeCatalog{candidateIds: []string{"p1", "p2"}}
	reg := &fakeRegistry{filters: map[string]entity.Filter{"brand": brandFilter()}}
	s := New(Config{MaxCandidates: 50}, reg, cat)

	_, err := s.Search(context.Background(), SearchRequest{
		Term:    " shoe ",
		Filters: `{"brand":["Nike"],"unknown":["x"]}`,
		Sort:    "price_desc",
		Page:    3,
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "shoe", cat.searchTerm)
	assert.Equal(t, 50, cat.searchLimit)
	assert.Equal(t, []string{"brand", "unknown"}, reg.requested)
	assert.Equal(t, "p.status = :pa AND p.id IN (:pb) AND p.brand IN (:pc)", cat.lastWhere)
	assert.Equal(t, []string{"p1", "p2"}, cat.lastParams["pb"])
	assert.Equal(t, []string{"Nike"}, cat.lastParams["pc"])
	assert.Equal(t, entity.ProductsQuery{Limit: 10, Offset: 20, Sort: entity.SortPriceDesc, Term: "shoe"}, cat.lastQuery)
}

func TestSearchHugePageFetchesNothing(t *testing.T) {
	cat := &fakeCatalog{}
	s := New(Config{}, &fakeRegistry{}, cat)

	res, err := s.Search(context.Background(), SearchRequest{Page: math.MaxInt, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, res.Page)
	assert.Equal(t, maxOffset, cat.lastQuery.Offset)

	_, err = s.Search(context.Background(), SearchRequest{Page: maxOffset/20 + 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, maxOffset/20*20, cat.lastQuery.Offset)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, offset(1, 20))
	assert.Equal(t, 40, offset(3, 20))
	assert.Equal(t, maxOffset, offset(math.MaxInt, 100))
	assert.Equal(t, maxOffset, offset(math.MaxInt32, 2))
}

func TestSearchNoCandidatesMatchesNothing(t *testing.T) {
	cat := &fakeCatalog{candidateIds: []string{}}
	s := New(Config{}, &fakeRegistry{}, cat)

	_, err := s.Search(context.Background(), SearchRequest{Term: "zzz"})
	require.NoError(t, err)
	assert.Equal(t, "p.status = :pa AND 1 = 0", cat.lastWhere)
}

func TestSearchCategoryScope(t *testing.T) {
	cat := &fakeCatalog{}
	s := New(Config{}, &fakeRegistry{}, cat)

	_, err := s.Search(context.Background(), SearchRequest{CategorySlug: "shoes", PerPage: 1000})
	require.NoError(t, err)
	assert.Contains(t, cat.lastWhere, "p.category_id IN (SELECT c.id FROM category c")
	assert.Equal(t, defaultMaxPerPage, cat.lastQuery.Limit)
}

func TestSearchRegistryError(t *testing.T) {
	s := New(Config{}, &fakeRegistry{loadErr: errors.New("db down")}, &fakeCatalog{})
	_, err := s.Search(context.Background(), SearchRequest{Filters: `{"a":["b"]}`})
	assert.Error(t, err)
}

func TestFacetsGlobalAndCategory(t *testing.T) {
	cat := &fakeCatalog{candidateIds: []string{"p1"}}
	price := entity.Filter{Id: "price", FilterBody: entity.FilterBody{
		Name: "Price", FieldName: "price_per", Type: entity.FilterTypeRange, AutoPopulate: true,
	}}
	reg := &fakeRegistry{
		global:   []entity.Filter{brandFilter()},
		category: map[string][]entity.Filter{"shoes": {brandFilter(), price}},
	}
	s := New(Config{}, reg, cat)

	groups, err := s.Facets(context.Background(), FacetRequest{})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Filters, 1)
	opts := groups[0].Filters[0].Options
	require.Len(t, opts, 1)
	assert.Equal(t, 2, *opts[0].Count)
	assert.False(t, cat.lastScope.Candidates.Restricted())

	groups, err = s.Facets(context.Background(), FacetRequest{CategorySlug: "shoes", Term: "air"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Filters, 2)
	assert.Equal(t, "shoes", cat.lastScope.CategorySlug)
	assert.Equal(t, []string{"p1"}, cat.lastScope.Candidates.IDs())

	groups, err = s.Facets(context.Background(), FacetRequest{CategorySlug: "bags"})
	require.NoError(t, err)
	assert.Empty(t, groups)
}
