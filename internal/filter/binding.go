package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	gerr "github.com/jekabolt/grbpwr-catalog/internal/errors"
)

var nonColumnChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeColumn strips every character outside [A-Za-z0-9_].
func SanitizeColumn(name string) string {
	return nonColumnChars.ReplaceAllString(name, "")
}

// bindableColumn returns the allow-listed product column for a field name, or "".
func bindableColumn(field string) (string, bool) {
	col := strings.ToLower(SanitizeColumn(field))
	if col == "" {
		return "", false
	}
	numeric, ok := entity.BindableColumns[col]
	if !ok {
		return "", false
	}
	return col, numeric
}

var ratingNameHints = []string{"rating", "stars", "review"}

func isRatingField(field, name string) bool {
	if strings.Contains(field, "rating") {
		return true
	}
	name = strings.ToLower(name)
	for _, h := range ratingNameHints {
		if strings.Contains(name, h) {
			return true
		}
	}
	return false
}

// Resolve maps a filter definition onto the catalog schema. Both the predicate
// compiler and the facet populator dispatch on the result, never on the raw field.
func Resolve(f entity.Filter) entity.FieldBinding {
	field := strings.ToLower(strings.TrimSpace(f.FieldName))
	keys := attributeKeys(f.AttributeKeys)

	if f.Type == entity.FilterTypeRange {
		switch {
		case strings.Contains(field, "variant"):
			return entity.FieldBinding{Kind: entity.BindingRange, Range: entity.RangeVariantPrice}
		case strings.Contains(field, "price"):
			return entity.FieldBinding{Kind: entity.BindingRange, Range: entity.RangeProductPrice}
		}
		if col, numeric := bindableColumn(field); col != "" && numeric {
			return entity.FieldBinding{Kind: entity.BindingRange, Range: entity.RangeColumn, Column: col}
		}
		return entity.FieldBinding{Kind: entity.BindingUnknown}
	}

	switch {
	case strings.Contains(field, "brand"):
		return entity.FieldBinding{Kind: entity.BindingBrand}
	case strings.Contains(field, "sku"):
		return entity.FieldBinding{Kind: entity.BindingSku}
	case isRatingField(field, f.Name):
		return entity.FieldBinding{Kind: entity.BindingRating}
	case strings.Contains(field, "productcharacter"), strings.Contains(field, "characteristic"):
		return entity.FieldBinding{Kind: entity.BindingCharacteristic, Keys: keys}
	case strings.Contains(field, "variantattribute"), strings.Contains(field, "variant"):
		return entity.FieldBinding{Kind: entity.BindingVariantAttribute, Keys: keys}
	}

	if col, _ := bindableColumn(field); col != "" {
		return entity.FieldBinding{Kind: entity.BindingRawColumn, Column: col}
	}
	return entity.FieldBinding{Kind: entity.BindingUnknown}
}

// Bind resolves the binding of every filter in place.
func Bind(filters []entity.Filter) []entity.Filter {
	for i := range filters {
		filters[i].Binding = Resolve(filters[i])
	}
	return filters
}

func attributeKeys(in entity.AttributeKeys) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	return out
}

// keyAllowed reports whether a composite token key belongs to the binding keys.
// A binding without keys accepts any key.
func keyAllowed(b entity.FieldBinding, key string) bool {
	if len(b.Keys) == 0 {
		return true
	}
	key = strings.TrimSpace(key)
	for _, k := range b.Keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ValidateDefinition rejects definitions that would not bind to the catalog.
func ValidateDefinition(fb entity.FilterBody) error {
	if !entity.ValidFilterTypes[fb.Type] {
		return fmt.Errorf("%w: unknown type %q", gerr.ErrInvalidFilter, fb.Type)
	}
	if !entity.ValidFilterDataTypes[fb.DataType] {
		return fmt.Errorf("%w: unknown data type %q", gerr.ErrInvalidFilter, fb.DataType)
	}
	if fb.MinValue.Valid && fb.MaxValue.Valid && fb.MinValue.Decimal.GreaterThan(fb.MaxValue.Decimal) {
		return fmt.Errorf("%w: min value is greater than max value", gerr.ErrInvalidFilter)
	}
	b := Resolve(entity.Filter{FilterBody: fb})
	if !b.Resolved() {
		return fmt.Errorf("%w: field %q does not map to a bindable column", gerr.ErrInvalidFilter, fb.FieldName)
	}
	return nil
}
