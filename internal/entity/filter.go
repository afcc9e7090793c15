package entity

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type FilterType string

const (
	FilterTypeSelect      FilterType = "SELECT"
	FilterTypeMultiSelect FilterType = "MULTI_SELECT"
	FilterTypeRange       FilterType = "RANGE"
)

var ValidFilterTypes = map[FilterType]bool{
	FilterTypeSelect:      true,
	FilterTypeMultiSelect: true,
	FilterTypeRange:       true,
}

type FilterDataType string

const (
	DataTypeString  FilterDataType = "STRING"
	DataTypeNumber  FilterDataType = "NUMBER"
	DataTypeBoolean FilterDataType = "BOOLEAN"
)

var ValidFilterDataTypes = map[FilterDataType]bool{
	DataTypeString:  true,
	DataTypeNumber:  true,
	DataTypeBoolean: true,
}

// AttributeKeys is stored as a JSON array in the filter table.
type AttributeKeys []string

func (ak *AttributeKeys) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*ak = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("can't scan attribute keys from %T", src)
	}
	if len(raw) == 0 {
		*ak = nil
		return nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return fmt.Errorf("can't unmarshal attribute keys: %w", err)
	}
	*ak = keys
	return nil
}

func (ak AttributeKeys) Value() (driver.Value, error) {
	if ak == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(ak))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// FilterGroup represents the filter_group table
type FilterGroup struct {
	Id           string `db:"id"`
	Name         string `db:"name" valid:"required"`
	DisplayOrder int    `db:"display_order"`
}

// FilterBody is the editable part of a filter definition.
type FilterBody struct {
	Name          string              `db:"name" valid:"required"`
	FieldName     string              `db:"field_name" valid:"required"`
	Type          FilterType          `db:"type" valid:"required"`
	DataType      FilterDataType      `db:"data_type" valid:"required"`
	DisplayStyle  string              `db:"display_style" valid:"-"`
	IsActive      bool                `db:"is_active" valid:"-"`
	AutoPopulate  bool                `db:"auto_populate" valid:"-"`
	ForSearch     bool                `db:"for_search" valid:"-"`
	AttributeKeys AttributeKeys       `db:"attribute_keys" valid:"-"`
	MinValue      decimal.NullDecimal `db:"min_value" valid:"-"`
	MaxValue      decimal.NullDecimal `db:"max_value" valid:"-"`
	GroupId       sql.NullString      `db:"group_id" valid:"-"`
	CategoryId    sql.NullString      `db:"category_id" valid:"-"`
	DisplayOrder  int                 `db:"display_order" valid:"-"`
}

// Filter represents the filter table joined with its group.
type Filter struct {
	Id        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	FilterBody
	GroupName  sql.NullString `db:"group_name"`
	GroupOrder sql.NullInt32  `db:"group_order"`

	// Binding is resolved once when the filter is loaded.
	Binding FieldBinding `db:"-"`
}

// Group returns the filter group or nil for ungrouped filters.
func (f *Filter) Group() *FilterGroup {
	if !f.GroupId.Valid {
		return nil
	}
	return &FilterGroup{
		Id:           f.GroupId.String,
		Name:         f.GroupName.String,
		DisplayOrder: int(f.GroupOrder.Int32),
	}
}

// FilterOption represents the filter_option table
type FilterOption struct {
	Id           string `db:"id"`
	FilterId     string `db:"filter_id"`
	Value        string `db:"value" valid:"required"`
	Label        string `db:"label" valid:"-"`
	DisplayOrder int    `db:"display_order"`
}

// CategoryFilter represents the category_filter table
type CategoryFilter struct {
	CategoryId string `db:"category_id"`
	FilterId   string `db:"filter_id"`
}

type BindingKind string

const (
	BindingUnknown          BindingKind = "unknown"
	BindingBrand            BindingKind = "brand"
	BindingSku              BindingKind = "sku"
	BindingRating           BindingKind = "rating"
	BindingCharacteristic   BindingKind = "characteristic"
	BindingVariantAttribute BindingKind = "variant_attribute"
	BindingRange            BindingKind = "range"
	BindingRawColumn        BindingKind = "raw_column"
)

type RangeTarget string

const (
	RangeProductPrice RangeTarget = "product_price"
	RangeVariantPrice RangeTarget = "variant_price"
	RangeColumn       RangeTarget = "column"
)

// FieldBinding is the typed mapping of a filter's field name onto the catalog schema.
type FieldBinding struct {
	Kind   BindingKind `json:"kind"`
	Keys   []string    `json:"keys,omitempty"`
	Range  RangeTarget `json:"range,omitempty"`
	Column string      `json:"column,omitempty"`
}

func (fb FieldBinding) Resolved() bool {
	return fb.Kind != "" && fb.Kind != BindingUnknown
}

// BindableColumns lists product columns a filter may reference directly.
// The value reports whether the column is numeric and can back a RANGE filter.
var BindableColumns = map[string]bool{
	"color":             false,
	"material":          false,
	"gender":            false,
	"country_of_origin": false,
	"name":              false,
	"weight":            true,
	"price":             true,
}

type OrderFactor string

const (
	Ascending  OrderFactor = "ASC"
	Descending OrderFactor = "DESC"
)

func (of *OrderFactor) String() string {
	if of != nil {
		if *of == Ascending {
			return "ASC"
		}
		return "DESC"
	}
	return "ASC"
}

type SortFactor string

const (
	SortRelevance SortFactor = "relevance"
	SortPriceAsc  SortFactor = "price_asc"
	SortPriceDesc SortFactor = "price_desc"
	SortNameAsc   SortFactor = "name_asc"
	SortNameDesc  SortFactor = "name_desc"
	SortNewest    SortFactor = "newest"
)

var validSortFactors = map[SortFactor]bool{
	SortRelevance: true,
	SortPriceAsc:  true,
	SortPriceDesc: true,
	SortNameAsc:   true,
	SortNameDesc:  true,
	SortNewest:    true,
}

func IsValidSortFactor(factor string) bool {
	return validSortFactors[SortFactor(factor)]
}
