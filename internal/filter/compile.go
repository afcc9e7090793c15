package filter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/metrics"
	"github.com/shopspring/decimal"
)

// Compile turns a selection over the given filters into a catalog predicate.
//
// Tokens within one filter are OR-combined, distinct filters are AND-combined,
// and the result is always restricted to active products. Selection entries for
// filters missing from filters are ignored. A restricted candidate set with no ids
// compiles to a predicate that matches nothing.
func Compile(ctx context.Context, filters []entity.Filter, sel Selection, candidates entity.CandidateSet) Predicate {
	clauses := []Predicate{statusClause(), candidateClause(candidates)}

	seen := make(map[string]bool, len(filters))
	for _, f := range filters {
		if seen[f.Id] {
			continue
		}
		seen[f.Id] = true

		tokens, ok := sel[f.Id]
		if !ok || !hasValue(tokens) {
			continue
		}
		binding := bindingOf(f)
		gc := groupClause(binding, tokens)
		if gc == nil {
			slog.Default().WarnContext(ctx, "filter contributes no clause",
				slog.String("filterId", f.Id),
				slog.String("fieldName", f.FieldName),
				slog.String("binding", string(binding.Kind)),
			)
			metrics.FilterSkipped(metrics.StageCompile, string(binding.Kind))
			continue
		}
		clauses = append(clauses, gc)
	}
	return And(clauses...)
}

// ScopePredicate restricts the catalog to a facet scope: active products, the
// category (and its direct children) when a slug is set, and the candidate ids.
func ScopePredicate(scope entity.FacetScope) Predicate {
	return And(statusClause(), categoryClause(scope.CategorySlug), candidateClause(scope.Candidates))
}

func bindingOf(f entity.Filter) entity.FieldBinding {
	if f.Binding.Kind == "" {
		return Resolve(f)
	}
	return f.Binding
}

func groupClause(b entity.FieldBinding, tokens []string) Predicate {
	if !b.Resolved() {
		return nil
	}
	if b.Kind == entity.BindingRange {
		return rangeClause(b, tokens)
	}

	var ors []Predicate
	var plain []string
	for _, raw := range nonEmpty(tokens) {
		tok := DecodeToken(raw)
		if !tok.Composite {
			plain = append(plain, tok.Value)
			continue
		}
		if !keyAllowed(b, tok.Key) {
			continue
		}
		ors = append(ors, Or(
			characteristicPairClause(tok.Key, tok.Value),
			variantAttributePairClause(tok.Key, tok.Value),
		))
	}
	if len(plain) > 0 {
		ors = append(ors, plainClause(b, plain))
	}
	return Or(ors...)
}

func plainClause(b entity.FieldBinding, values []string) Predicate {
	switch b.Kind {
	case entity.BindingBrand:
		return inClause("p.brand", values)
	case entity.BindingSku:
		return leaf(func(bd *binder) string {
			return "EXISTS (SELECT 1 FROM product_variant pv WHERE pv.product_id = p.id AND pv.sku IN (" + bd.bind(values) + "))"
		})
	case entity.BindingRating:
		return ratingClause(values)
	case entity.BindingCharacteristic:
		return leaf(func(bd *binder) string {
			cond := ""
			if len(b.Keys) > 0 {
				cond = "pc.char_key IN (" + bd.bind(b.Keys) + ") AND "
			}
			cond += "pc.char_value IN (" + bd.bind(values) + ")"
			return "EXISTS (SELECT 1 FROM product_characteristic pc WHERE pc.product_id = p.id AND " + cond + ")"
		})
	case entity.BindingVariantAttribute:
		return leaf(func(bd *binder) string {
			cond := ""
			if len(b.Keys) > 0 {
				cond = "va.attr_key IN (" + bd.bind(b.Keys) + ") AND "
			}
			cond += "va.attr_value IN (" + bd.bind(values) + ")"
			return "EXISTS (SELECT 1 FROM product_variant pv JOIN variant_attribute va ON va.variant_id = pv.id WHERE pv.product_id = p.id AND " + cond + ")"
		})
	case entity.BindingRawColumn:
		col, ok := SafeColumn(b.Column, false)
		if !ok {
			return nil
		}
		return inClause("p."+col, values)
	}
	return nil
}

// ParseRating maps a token to a stored rating level: 1..5 or a level name.
func ParseRating(token string) (entity.RatingLevel, bool) {
	token = strings.TrimSpace(token)
	if n, err := strconv.Atoi(token); err == nil {
		return entity.RatingLevelFromInt(n)
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil && f == float64(int(f)) {
		return entity.RatingLevelFromInt(int(f))
	}
	for _, l := range entity.RatingLevels {
		if strings.EqualFold(string(l), token) {
			return l, true
		}
	}
	return "", false
}

func ratingClause(values []string) Predicate {
	seen := map[entity.RatingLevel]bool{}
	levels := make([]string, 0, len(values))
	for _, v := range values {
		l, ok := ParseRating(v)
		if !ok || seen[l] {
			continue
		}
		seen[l] = true
		levels = append(levels, string(l))
	}
	if len(levels) == 0 {
		return nil
	}
	return leaf(func(bd *binder) string {
		return "EXISTS (SELECT 1 FROM review r WHERE r.product_id = p.id AND r.status = 'ACTIVE' AND r.rating IN (" + bd.bind(levels) + "))"
	})
}

func characteristicPairClause(key, value string) Predicate {
	return leaf(func(bd *binder) string {
		return "EXISTS (SELECT 1 FROM product_characteristic pc WHERE pc.product_id = p.id AND pc.char_key = " +
			bd.bind(key) + " AND pc.char_value = " + bd.bind(value) + ")"
	})
}

func variantAttributePairClause(key, value string) Predicate {
	return leaf(func(bd *binder) string {
		return "EXISTS (SELECT 1 FROM product_variant pv JOIN variant_attribute va ON va.variant_id = pv.id WHERE pv.product_id = p.id AND va.attr_key = " +
			bd.bind(key) + " AND va.attr_value = " + bd.bind(value) + ")"
	})
}

// ParseBound reads tokens[i] as a decimal bound. Missing or non-numeric bounds
// are unbounded.
func ParseBound(tokens []string, i int) decimal.NullDecimal {
	if i >= len(tokens) {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(tokens[i]))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func rangeClause(b entity.FieldBinding, tokens []string) Predicate {
	lo, hi := ParseBound(tokens, 0), ParseBound(tokens, 1)
	if !lo.Valid && !hi.Valid {
		return nil
	}
	bounds := func(col string, bd *binder) string {
		var conds []string
		if lo.Valid {
			conds = append(conds, col+" >= "+bd.bind(lo.Decimal))
		}
		if hi.Valid {
			conds = append(conds, col+" <= "+bd.bind(hi.Decimal))
		}
		return strings.Join(conds, " AND ")
	}

	switch b.Range {
	case entity.RangeProductPrice:
		return leaf(func(bd *binder) string { return bounds("p.price", bd) })
	case entity.RangeVariantPrice:
		return leaf(func(bd *binder) string {
			return "EXISTS (SELECT 1 FROM product_variant pv WHERE pv.product_id = p.id AND " + bounds("pv.price", bd) + ")"
		})
	case entity.RangeColumn:
		col, ok := SafeColumn(b.Column, true)
		if !ok {
			return nil
		}
		return leaf(func(bd *binder) string { return bounds("p."+col, bd) })
	}
	return nil
}

// SafeColumn re-checks a bound column before it is interpolated into SQL.
func SafeColumn(column string, numeric bool) (string, bool) {
	col := SanitizeColumn(column)
	if col == "" || col != column {
		return "", false
	}
	isNumeric, ok := entity.BindableColumns[col]
	if !ok || (numeric && !isNumeric) {
		return "", false
	}
	return col, true
}

func inClause(column string, values []string) Predicate {
	return leaf(func(bd *binder) string {
		return column + " IN (" + bd.bind(values) + ")"
	})
}

func statusClause() Predicate {
	return leaf(func(bd *binder) string {
		return "p.status = " + bd.bind(string(entity.ProductStatusActive))
	})
}

func candidateClause(cs entity.CandidateSet) Predicate {
	if !cs.Restricted() {
		return nil
	}
	if cs.MatchesNothing() {
		return MatchNone()
	}
	ids := cs.IDs()
	return leaf(func(bd *binder) string {
		return "p.id IN (" + bd.bind(ids) + ")"
	})
}

func categoryClause(slug string) Predicate {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil
	}
	return leaf(func(bd *binder) string {
		return "p.category_id IN (SELECT c.id FROM category c LEFT JOIN category parent ON parent.id = c.parent_id WHERE c.slug = " +
			bd.bind(slug) + " OR parent.slug = " + bd.bind(slug) + ")"
	})
}

// CategoryClause is the category restriction used by category-scoped search.
func CategoryClause(slug string) Predicate {
	return categoryClause(slug)
}
