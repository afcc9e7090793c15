package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
)

type catalogStore struct {
	*MYSQLStore
}

// Catalog returns an object implementing the read-only catalog interface
func (ms *MYSQLStore) Catalog() dependency.Catalog {
	return &catalogStore{
		MYSQLStore: ms,
	}
}

const productColumns = `
	p.id, p.created_at, p.updated_at, p.name, p.description, p.brand, p.price, p.status,
	p.category_id, p.color, p.material, p.gender, p.country_of_origin, p.weight, p.thumbnail`

// likePattern wraps a term for a case-insensitive substring LIKE, escaping wildcards.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func (ms *catalogStore) SearchCandidateIds(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	query := `
	SELECT p.id
	FROM product p
	WHERE p.status = :status AND (
		LOWER(p.name) LIKE :nameTerm
		OR LOWER(p.description) LIKE :descriptionTerm
		OR EXISTS (
			SELECT 1 FROM product_variant pv
			WHERE pv.product_id = p.id AND LOWER(pv.sku) LIKE :skuTerm
		)
	)
	ORDER BY p.created_at DESC, p.id
	LIMIT ` + strconv.Itoa(limit)

	pattern := likePattern(term)
	ids, err := QueryColumnNamed[string](ctx, ms.DB(), query, map[string]any{
		"status":          entity.ProductStatusActive,
		"nameTerm":        pattern,
		"descriptionTerm": pattern,
		"skuTerm":         pattern,
	})
	if err != nil {
		return nil, fmt.Errorf("can't search products: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetProductsPaged returns one page of products matching pred and the total match count.
func (ms *catalogStore) GetProductsPaged(ctx context.Context, pred filter.Predicate, q entity.ProductsQuery) ([]entity.Product, int, error) {
	where, args := filter.Where(pred)
	listQuery, countQuery := buildProductsQuery(where, q, args)

	count, err := QueryCountNamed(ctx, ms.DB(), countQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("can't get product count: %w", err)
	}
	if count == 0 || q.Offset >= count {
		return []entity.Product{}, count, nil
	}

	prds, err := QueryListNamed[entity.Product](ctx, ms.DB(), listQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("can't get products: %w", err)
	}
	return prds, count, nil
}

// buildProductsQuery returns the list and count queries over a rendered predicate.
// Ordering params are added to args; they never start with "p" so they can't
// clash with predicate params.
func buildProductsQuery(where string, q entity.ProductsQuery, args map[string]any) (string, string) {
	conditions := " WHERE " + where
	countQuery := "SELECT COUNT(*) FROM product p" + conditions

	listQuery := "SELECT " + productColumns + " FROM product p" + conditions +
		" ORDER BY " + orderBy(q, args)

	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	listQuery += " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	return listQuery, countQuery
}

// orderBy maps a sort factor to an ORDER BY list. Relevance ranks name matches
// of the search term first, then newest; p.id breaks every tie.
func orderBy(q entity.ProductsQuery, args map[string]any) string {
	by := func(col string, of entity.OrderFactor) string {
		return col + " " + of.String() + ", p.id"
	}
	switch q.Sort {
	case entity.SortPriceAsc:
		return by("p.price", entity.Ascending)
	case entity.SortPriceDesc:
		return by("p.price", entity.Descending)
	case entity.SortNameAsc:
		return by("p.name", entity.Ascending)
	case entity.SortNameDesc:
		return by("p.name", entity.Descending)
	case entity.SortNewest:
		return by("p.created_at", entity.Descending)
	}
	if strings.TrimSpace(q.Term) != "" {
		args["relevanceTerm"] = likePattern(q.Term)
		return "(LOWER(p.name) LIKE :relevanceTerm) DESC, " + by("p.created_at", entity.Descending)
	}
	return by("p.created_at", entity.Descending)
}
