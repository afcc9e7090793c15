package store

import (
	"context"
	"testing"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%nike air%", likePattern("  Nike Air "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name string
		q    entity.ProductsQuery
		want string
	}{
		{"price asc", entity.ProductsQuery{Sort: entity.SortPriceAsc}, "p.price ASC, p.id"},
		{"price desc", entity.ProductsQuery{Sort: entity.SortPriceDesc}, "p.price DESC, p.id"},
		{"name asc", entity.ProductsQuery{Sort: entity.SortNameAsc}, "p.name ASC, p.id"},
		{"name desc", entity.ProductsQuery{Sort: entity.SortNameDesc}, "p.name DESC, p.id"},
		{"newest", entity.ProductsQuery{Sort: entity.SortNewest}, "p.created_at DESC, p.id"},
		{"relevance without term", entity.ProductsQuery{Sort: entity.SortRelevance}, "p.created_at DESC, p.id"},
		{"unknown falls back to relevance", entity.ProductsQuery{Sort: "random"}, "p.created_at DESC, p.id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			assert.Equal(t, tt.want, orderBy(tt.q, args))
			assert.Empty(t, args)
		})
	}
}

func TestOrderByRelevanceWithTerm(t *testing.T) {
	args := map[string]any{}
	got := orderBy(entity.ProductsQuery{Sort: entity.SortRelevance, Term: "Shirt"}, args)
	assert.Equal(t, "(LOWER(p.name) LIKE :relevanceTerm) DESC, p.created_at DESC, p.id", got)
	assert.Equal(t, "%shirt%", args["relevanceTerm"])
}

func TestBuildProductsQuery(t *testing.T) {
	where, args := filter.Where(filter.And(
		filter.ScopePredicate(entity.FacetScope{}),
	))
	list, count := buildProductsQuery(where, entity.ProductsQuery{Limit: 20, Offset: 40, Sort: entity.SortPriceAsc}, args)

	assert.Equal(t, "SELECT COUNT(*) FROM product p WHERE p.status = :pa", count)
	assert.Contains(t, list, "FROM product p WHERE p.status = :pa ORDER BY p.price ASC, p.id LIMIT 20 OFFSET 40")
	assert.Equal(t, "ACTIVE", args["pa"])
}

func TestBuildProductsQueryClampsPaging(t *testing.T) {
	list, _ := buildProductsQuery("1 = 1", entity.ProductsQuery{Limit: 0, Offset: -5}, map[string]any{})
	assert.Contains(t, list, "LIMIT 1 OFFSET 0")
}

func seedCatalog(t *testing.T, db *MYSQLStore) {
	t.Helper()
	exec(t, db, `INSERT INTO category (id, slug, name, parent_id) VALUES ('c1', 'shoes', 'Shoes', NULL), ('c2', 'sneakers', 'Sneakers', 'c1')`)
	exec(t, db, `INSERT INTO product (id, name, description, brand, price, status, category_id, color) VALUES
		('p1', 'Air Runner', 'light running shoe', 'Nike', 120.00, 'ACTIVE', 'c2', 'red'),
		('p2', 'Court Classic', 'leather sneaker', 'nike', 90.00, 'ACTIVE', 'c1', 'white'),
		('p3', 'Trail Boss', 'trail shoe', 'Adidas', 150.00, 'ACTIVE', 'c1', 'red'),
		('p4', 'Hidden Draft', 'not published', 'Nike', 10.00, 'DRAFT', 'c1', 'red')`)
	exec(t, db, `INSERT INTO product_variant (id, product_id, sku, price, image) VALUES
		('v1', 'p1', 'AIR-42', 125.00, 'v1.png'),
		('v2', 'p3', 'TRL-43', 155.00, NULL)`)
	exec(t, db, `INSERT INTO variant_attribute (id, variant_id, attr_key, attr_value, image) VALUES
		('a1', 'v1', 'size', '42', NULL),
		('a2', 'v2', 'size', '43', 'a2.png')`)
	exec(t, db, `INSERT INTO product_characteristic (id, product_id, char_key, char_value) VALUES
		('ch1', 'p2', 'material', 'leather'),
		('ch2', 'p3', 'material', 'mesh')`)
	exec(t, db, `INSERT INTO review (id, product_id, rating, body) VALUES
		('r1', 'p1', 'FIVE', ''), ('r2', 'p1', 'FOUR', ''), ('r3', 'p3', 'FOUR', '')`)
}

func TestSearchCandidateIds(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	ids, err := db.Catalog().SearchCandidateIds(ctx, "SHOE", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p3"}, ids)

	ids, err = db.Catalog().SearchCandidateIds(ctx, "trl-43", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, ids)

	ids, err = db.Catalog().SearchCandidateIds(ctx, "shoe", 1)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestGetProductsPaged(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	brand := entity.Filter{Id: "f1", FilterBody: entity.FilterBody{FieldName: "brand", Type: entity.FilterTypeMultiSelect}}
	price := entity.Filter{Id: "f2", FilterBody: entity.FilterBody{FieldName: "price_per", Type: entity.FilterTypeRange}}
	filters := filter.Bind([]entity.Filter{brand, price})

	pred := filter.Compile(ctx, filters, filter.Selection{"f2": {"90", "120"}}, entity.Unrestricted())
	prds, total, err := db.Catalog().GetProductsPaged(ctx, pred, entity.ProductsQuery{Limit: 10, Sort: entity.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, prds, 2)
	assert.Equal(t, "p2", prds[0].Id)
	assert.Equal(t, "p1", prds[1].Id)

	pred = filter.Compile(ctx, filters, filter.Selection{}, entity.RestrictTo(nil))
	prds, total, err = db.Catalog().GetProductsPaged(ctx, pred, entity.ProductsQuery{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, prds)

	pred = filter.Compile(ctx, filters, filter.Selection{}, entity.Unrestricted())
	prds, total, err = db.Catalog().GetProductsPaged(ctx, pred, entity.ProductsQuery{Limit: 2, Offset: 2, Sort: entity.SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, prds, 1)
	assert.Equal(t, "p3", prds[0].Id)
}

func TestCompositeTokenMatchesBothStorages(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	f := filter.Bind([]entity.Filter{{Id: "attrs", FilterBody: entity.FilterBody{
		FieldName:     "variantAttribute",
		Type:          entity.FilterTypeMultiSelect,
		AttributeKeys: entity.AttributeKeys{"size", "material"},
	}}})
	sel := filter.Selection{"attrs": {"size::42", "material::leather"}}

	prds, total, err := db.Catalog().GetProductsPaged(ctx, filter.Compile(ctx, f, sel, entity.Unrestricted()), entity.ProductsQuery{Limit: 10, Sort: entity.SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	ids := []string{prds[0].Id, prds[1].Id}
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}
