package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
)

// facet queries below add their own params next to the scope ones; none of
// their names start with "p".

func (ms *catalogStore) distinct(ctx context.Context, scope entity.FacetScope, query string, extra map[string]any) ([]entity.FacetRow, error) {
	where, args := filter.Where(filter.ScopePredicate(scope))
	for k, v := range extra {
		args[k] = v
	}
	query = fmt.Sprintf(query, where) +
		" ORDER BY facet_count DESC, facet_value LIMIT " + strconv.Itoa(ms.maxDistinct)

	rows, err := QueryListNamed[entity.FacetRow](ctx, ms.DB(), query, args)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []entity.FacetRow{}
	}
	return rows, nil
}

func (ms *catalogStore) DistinctBrands(ctx context.Context, scope entity.FacetScope) ([]entity.FacetRow, error) {
	query := `
	SELECT NULL AS facet_key, p.brand AS facet_value, COUNT(*) AS facet_count, NULL AS facet_image
	FROM product p
	WHERE %s AND p.brand IS NOT NULL AND p.brand <> ''
	GROUP BY p.brand`
	rows, err := ms.distinct(ctx, scope, query, nil)
	if err != nil {
		return nil, fmt.Errorf("can't get brand facet: %w", err)
	}
	return rows, nil
}

func (ms *catalogStore) DistinctSkus(ctx context.Context, scope entity.FacetScope) ([]entity.FacetRow, error) {
	query := `
	SELECT NULL AS facet_key, pv.sku AS facet_value, COUNT(DISTINCT p.id) AS facet_count, MAX(pv.image) AS facet_image
	FROM product p
	JOIN product_variant pv ON pv.product_id = p.id
	WHERE %s
	GROUP BY pv.sku`
	rows, err := ms.distinct(ctx, scope, query, nil)
	if err != nil {
		return nil, fmt.Errorf("can't get sku facet: %w", err)
	}
	return rows, nil
}

func (ms *catalogStore) DistinctCharacteristics(ctx context.Context, scope entity.FacetScope, keys []string) ([]entity.FacetRow, error) {
	keyClause := ""
	extra := map[string]any{}
	if len(keys) > 0 {
		keyClause = " AND pc.char_key IN (:facetKeys)"
		extra["facetKeys"] = keys
	}
	query := `
	SELECT pc.char_key AS facet_key, pc.char_value AS facet_value, COUNT(DISTINCT p.id) AS facet_count, NULL AS facet_image
	FROM product p
	JOIN product_characteristic pc ON pc.product_id = p.id
	WHERE %s` + keyClause + ` AND pc.char_value <> ''
	GROUP BY pc.char_key, pc.char_value`
	rows, err := ms.distinct(ctx, scope, query, extra)
	if err != nil {
		return nil, fmt.Errorf("can't get characteristic facet: %w", err)
	}
	return rows, nil
}

// DistinctVariantAttributes prefers an attribute image over the variant image.
func (ms *catalogStore) DistinctVariantAttributes(ctx context.Context, scope entity.FacetScope, keys []string) ([]entity.FacetRow, error) {
	keyClause := ""
	extra := map[string]any{}
	if len(keys) > 0 {
		keyClause = " AND va.attr_key IN (:facetKeys)"
		extra["facetKeys"] = keys
	}
	query := `
	SELECT
		va.attr_key AS facet_key,
		va.attr_value AS facet_value,
		COUNT(DISTINCT p.id) AS facet_count,
		COALESCE(MAX(va.image), MAX(pv.image)) AS facet_image
	FROM product p
	JOIN product_variant pv ON pv.product_id = p.id
	JOIN variant_attribute va ON va.variant_id = pv.id
	WHERE %s` + keyClause + ` AND va.attr_value <> ''
	GROUP BY va.attr_key, va.attr_value`
	rows, err := ms.distinct(ctx, scope, query, extra)
	if err != nil {
		return nil, fmt.Errorf("can't get variant attribute facet: %w", err)
	}
	return rows, nil
}

// DistinctColumnValues only reads allow-listed product columns.
func (ms *catalogStore) DistinctColumnValues(ctx context.Context, scope entity.FacetScope, column string) ([]entity.FacetRow, error) {
	col, ok := filter.SafeColumn(column, false)
	if !ok {
		return nil, fmt.Errorf("can't get facet for column %q: column is not bindable", column)
	}
	query := `
	SELECT NULL AS facet_key, CAST(p.` + col + ` AS CHAR) AS facet_value, COUNT(*) AS facet_count, NULL AS facet_image
	FROM product p
	WHERE %s AND p.` + col + ` IS NOT NULL
	GROUP BY p.` + col
	rows, err := ms.distinct(ctx, scope, query, nil)
	if err != nil {
		return nil, fmt.Errorf("can't get %s facet: %w", col, err)
	}
	return rows, nil
}

func (ms *catalogStore) RangeBounds(ctx context.Context, scope entity.FacetScope, b entity.FieldBinding) (entity.Bounds, error) {
	var query string
	switch b.Range {
	case entity.RangeProductPrice:
		query = `SELECT MIN(p.price) AS min_value, MAX(p.price) AS max_value FROM product p WHERE %s`
	case entity.RangeVariantPrice:
		query = `
		SELECT MIN(pv.price) AS min_value, MAX(pv.price) AS max_value
		FROM product p
		JOIN product_variant pv ON pv.product_id = p.id
		WHERE %s AND pv.price IS NOT NULL`
	case entity.RangeColumn:
		col, ok := filter.SafeColumn(b.Column, true)
		if !ok {
			return entity.Bounds{}, fmt.Errorf("can't get bounds for column %q: column is not numeric or bindable", b.Column)
		}
		query = `SELECT MIN(p.` + col + `) AS min_value, MAX(p.` + col + `) AS max_value FROM product p WHERE %s`
	default:
		return entity.Bounds{}, fmt.Errorf("can't get bounds: unknown range target %q", b.Range)
	}

	where, args := filter.Where(filter.ScopePredicate(scope))
	bounds, err := QueryNamedOne[entity.Bounds](ctx, ms.DB(), fmt.Sprintf(query, where), args)
	if err != nil {
		return entity.Bounds{}, fmt.Errorf("can't get range bounds: %w", err)
	}
	return bounds, nil
}

func (ms *catalogStore) RatingCounts(ctx context.Context, scope entity.FacetScope) ([]entity.RatingCount, error) {
	where, args := filter.Where(filter.ScopePredicate(scope))
	query := fmt.Sprintf(`
	SELECT r.rating AS rating, COUNT(*) AS review_count
	FROM review r
	JOIN product p ON p.id = r.product_id
	WHERE %s AND r.status = 'ACTIVE'
	GROUP BY r.rating`, where)

	counts, err := QueryListNamed[entity.RatingCount](ctx, ms.DB(), query, args)
	if err != nil {
		return nil, fmt.Errorf("can't get rating counts: %w", err)
	}
	return counts, nil
}
