package filter

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu          sync.Mutex
	brands      []entity.FacetRow
	attrs       []entity.FacetRow
	attrKeys    []string
	columns     map[string][]entity.FacetRow
	bounds      entity.Bounds
	ratings     []entity.RatingCount
	static      map[string][]entity.FilterOption
	staticCalls int
	brandDelay  time.Duration
	failBrands  bool
}

func (s *fakeSource) DistinctBrands(context.Context, entity.FacetScope) ([]entity.FacetRow, error) {
	if s.brandDelay > 0 {
		time.Sleep(s.brandDelay)
	}
	if s.failBrands {
		return nil, errors.New("connection reset")
	}
	return s.brands, nil
}

func (s *fakeSource) DistinctSkus(context.Context, entity.FacetScope) ([]entity.FacetRow, error) {
	return []entity.FacetRow{{Value: "AIR-42", Count: 1}}, nil
}

func (s *fakeSource) DistinctCharacteristics(_ context.Context, _ entity.FacetScope, keys []string) ([]entity.FacetRow, error) {
	return s.DistinctVariantAttributes(context.Background(), entity.FacetScope{}, keys)
}

func (s *fakeSource) DistinctVariantAttributes(_ context.Context, _ entity.FacetScope, keys []string) ([]entity.FacetRow, error) {
	s.mu.Lock()
	s.attrKeys = keys
	s.mu.Unlock()
	return s.attrs, nil
}

func (s *fakeSource) DistinctColumnValues(_ context.Context, _ entity.FacetScope, column string) ([]entity.FacetRow, error) {
	return s.columns[column], nil
}

func (s *fakeSource) RangeBounds(context.Context, entity.FacetScope, entity.FieldBinding) (entity.Bounds, error) {
	return s.bounds, nil
}

func (s *fakeSource) RatingCounts(context.Context, entity.FacetScope) ([]entity.RatingCount, error) {
	return s.ratings, nil
}

func (s *fakeSource) StaticOptions(context.Context, []string) (map[string][]entity.FilterOption, error) {
	s.mu.Lock()
	s.staticCalls++
	s.mu.Unlock()
	return s.static, nil
}

func auto(f entity.Filter) entity.Filter {
	f.AutoPopulate = true
	return f
}

func key(k string) sql.NullString {
	return sql.NullString{String: k, Valid: true}
}

func populate(t *testing.T, src FacetSource, filters ...entity.Filter) []entity.PopulatedFilter {
	t.Helper()
	groups, err := NewPopulator(src, 2).Populate(context.Background(), Bind(filters), entity.FacetScope{})
	require.NoError(t, err)
	var out []entity.PopulatedFilter
	for _, g := range groups {
		out = append(out, g.Filters...)
	}
	return out
}

func TestPopulateBrandDedup(t *testing.T) {
	src := &fakeSource{brands: []entity.FacetRow{
		{Value: "Nike", Count: 1},
		{Value: "nike", Count: 1},
		{Value: "Adidas", Count: 1},
	}}
	pfs := populate(t, src, auto(withId("brand", def("Brand", "brand", entity.FilterTypeMultiSelect))))
	require.Len(t, pfs, 1)
	opts := pfs[0].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "Nike", opts[0].Value)
	assert.Equal(t, 2, *opts[0].Count)
	assert.Equal(t, 1, *opts[1].Count)
	assert.False(t, pfs[0].Unavailable)
}

func TestPopulateCompositeOptions(t *testing.T) {
	src := &fakeSource{attrs: []entity.FacetRow{
		{Key: key("color"), Value: "Red", Count: 2, Image: sql.NullString{String: "red.png", Valid: true}},
		{Key: key("color"), Value: "red", Count: 1},
		{Key: sql.NullString{}, Value: "orphan", Count: 1},
	}}
	pfs := populate(t, src, auto(withId("color", def("Color", "variantAttribute", entity.FilterTypeMultiSelect, "color"))))
	require.Len(t, pfs, 1)
	opts := pfs[0].Options
	require.Len(t, opts, 1)
	assert.Equal(t, "color::Red", opts[0].Id)
	assert.Equal(t, "color::Red", opts[0].Value)
	assert.Equal(t, "Red", opts[0].Label)
	assert.Equal(t, "red.png", opts[0].Image)
	assert.Equal(t, 3, *opts[0].Count)
	assert.Equal(t, []string{"color"}, src.attrKeys)
}

func TestPopulateRange(t *testing.T) {
	src := &fakeSource{bounds: entity.Bounds{
		Min: decimal.NewNullDecimal(decimal.NewFromInt(90)),
		Max: decimal.NewNullDecimal(decimal.NewFromInt(150)),
	}}
	pfs := populate(t, src, auto(withId("price", def("Price", "price_per", entity.FilterTypeRange))))
	require.Len(t, pfs, 1)
	assert.Equal(t, "90", pfs[0].MinValue.Decimal.String())
	assert.Equal(t, "150", pfs[0].MaxValue.Decimal.String())
	assert.Empty(t, pfs[0].Options)
}

func TestPopulateRating(t *testing.T) {
	src := &fakeSource{ratings: []entity.RatingCount{
		{Rating: entity.RatingFive, Count: 1},
		{Rating: entity.RatingFour, Count: 2},
		{Rating: "BOGUS", Count: 7},
	}}
	pfs := populate(t, src, auto(withId("rating", def("Rating", "rating", entity.FilterTypeMultiSelect))))
	require.Len(t, pfs, 1)
	s := pfs[0].ReviewSummary
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Total)
	assert.InDelta(t, 13.0/3.0, s.AvgRating, 1e-9)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, s.Counts)

	opts := pfs[0].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "5", opts[0].Value)
	assert.Equal(t, "4", opts[1].Value)
}

func TestSummarizeRatingsWithoutReviews(t *testing.T) {
	s := SummarizeRatings(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgRating)
	assert.Len(t, s.Counts, 5)
}

func TestPopulateStaticOptions(t *testing.T) {
	size := withId("size", def("Size", "variantAttribute", entity.FilterTypeSelect, "size"))
	size.MinValue = decimal.NewNullDecimal(decimal.NewFromInt(1))
	src := &fakeSource{static: map[string][]entity.FilterOption{
		"size": {{Value: "S", Label: "Small"}, {Value: "s"}, {Value: "M"}},
	}}
	pfs := populate(t, src, size)
	require.Len(t, pfs, 1)
	opts := pfs[0].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "Small", opts[0].Label)
	assert.Equal(t, "M", opts[1].Label)
	assert.Nil(t, opts[0].Count)
	assert.True(t, pfs[0].MinValue.Valid)
	assert.Equal(t, 1, src.staticCalls)
}

func TestPopulateUnavailable(t *testing.T) {
	src := &fakeSource{}
	pfs := populate(t, src, auto(withId("bad", def("Secret", "password_hash", entity.FilterTypeSelect))))
	require.Len(t, pfs, 1)
	assert.True(t, pfs[0].Unavailable)
	assert.Empty(t, pfs[0].Options)
	assert.Zero(t, src.staticCalls)
}

func TestPopulateRawColumn(t *testing.T) {
	src := &fakeSource{columns: map[string][]entity.FacetRow{
		"color": {{Value: "red", Count: 2}, {Value: "RED", Count: 1}},
	}}
	pfs := populate(t, src, auto(withId("color", def("Color", "color", entity.FilterTypeSelect))))
	require.Len(t, pfs, 1)
	require.Len(t, pfs[0].Options, 1)
	assert.Equal(t, 3, *pfs[0].Options[0].Count)
}

func TestPopulateStoreErrorAborts(t *testing.T) {
	src := &fakeSource{failBrands: true}
	_, err := NewPopulator(src, 2).Populate(context.Background(),
		Bind([]entity.Filter{auto(withId("brand", def("Brand", "brand", entity.FilterTypeSelect)))}),
		entity.FacetScope{})
	assert.Error(t, err)
}

func TestPopulateOrderIgnoresCompletionOrder(t *testing.T) {
	// brand is listed first and finishes last
	src := &fakeSource{brandDelay: 20 * time.Millisecond}
	brand := auto(withId("brand", def("Brand", "brand", entity.FilterTypeSelect)))
	brand.DisplayOrder = 0
	sku := auto(withId("sku", def("SKU", "sku", entity.FilterTypeSelect)))
	sku.DisplayOrder = 1
	price := auto(withId("price", def("Price", "price", entity.FilterTypeRange)))
	price.DisplayOrder = 2

	for i := 0; i < 3; i++ {
		pfs := populate(t, src, price, brand, sku)
		require.Len(t, pfs, 3)
		assert.Equal(t, "brand", pfs[0].Filter.Id)
		assert.Equal(t, "sku", pfs[1].Filter.Id)
		assert.Equal(t, "price", pfs[2].Filter.Id)
	}
}

func TestPopulateNoFilters(t *testing.T) {
	groups, err := NewPopulator(&fakeSource{}, 0).Populate(context.Background(), nil, entity.FacetScope{})
	require.NoError(t, err)
	assert.Empty(t, groups)
}
