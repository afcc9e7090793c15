package dto

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/shopspring/decimal"
)

// FilterInsert is the admin create/update payload of a filter definition.
type FilterInsert struct {
	Name          string           `json:"name"`
	FieldName     string           `json:"fieldName"`
	Type          string           `json:"type"`
	DataType      string           `json:"dataType"`
	DisplayStyle  string           `json:"displayStyle"`
	IsActive      *bool            `json:"isActive"`
	AutoPopulate  bool             `json:"autoPopulate"`
	ForSearch     bool             `json:"forSearch"`
	AttributeKeys []string         `json:"attributeKeys"`
	MinValue      *decimal.Decimal `json:"minValue"`
	MaxValue      *decimal.Decimal `json:"maxValue"`
	GroupId       string           `json:"groupId"`
	CategoryId    string           `json:"categoryId"`
	DisplayOrder  int              `json:"displayOrder"`
}

type Filter struct {
	Id            string       `json:"id"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Name          string       `json:"name"`
	FieldName     string       `json:"fieldName"`
	Type          string       `json:"type"`
	DataType      string       `json:"dataType"`
	DisplayStyle  string       `json:"displayStyle"`
	IsActive      bool         `json:"isActive"`
	AutoPopulate  bool         `json:"autoPopulate"`
	ForSearch     bool         `json:"forSearch"`
	AttributeKeys []string     `json:"attributeKeys"`
	MinValue      *float64     `json:"minValue"`
	MaxValue      *float64     `json:"maxValue"`
	Group         *FilterGroup `json:"group"`
	CategoryId    string       `json:"categoryId,omitempty"`
	DisplayOrder  int          `json:"displayOrder"`
	// Binding reports how the field name maps onto the catalog.
	Binding entity.FieldBinding `json:"binding"`
}

type FilterGroupInsert struct {
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
}

type FilterOptionInsert struct {
	Value        string `json:"value"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"displayOrder"`
}

type CategoryFiltersInsert struct {
	FilterIds []string `json:"filterIds"`
}

type IdResponse struct {
	Id string `json:"id"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func optionalString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// ConvertFilterInsertToEntity maps the admin payload onto a filter body.
// Filters are active unless isActive is explicitly false.
func ConvertFilterInsertToEntity(fi FilterInsert) *entity.FilterBody {
	active := true
	if fi.IsActive != nil {
		active = *fi.IsActive
	}
	return &entity.FilterBody{
		Name:          strings.TrimSpace(fi.Name),
		FieldName:     strings.TrimSpace(fi.FieldName),
		Type:          entity.FilterType(strings.ToUpper(strings.TrimSpace(fi.Type))),
		DataType:      entity.FilterDataType(strings.ToUpper(strings.TrimSpace(fi.DataType))),
		DisplayStyle:  fi.DisplayStyle,
		IsActive:      active,
		AutoPopulate:  fi.AutoPopulate,
		ForSearch:     fi.ForSearch,
		AttributeKeys: entity.AttributeKeys(fi.AttributeKeys),
		MinValue:      nullDecimal(fi.MinValue),
		MaxValue:      nullDecimal(fi.MaxValue),
		GroupId:       optionalString(fi.GroupId),
		CategoryId:    optionalString(fi.CategoryId),
		DisplayOrder:  fi.DisplayOrder,
	}
}

func ConvertEntityFilterToDto(f entity.Filter) Filter {
	keys := []string(f.AttributeKeys)
	if keys == nil {
		keys = []string{}
	}
	df := Filter{
		Id:            f.Id,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
		Name:          f.Name,
		FieldName:     f.FieldName,
		Type:          string(f.Type),
		DataType:      string(f.DataType),
		DisplayStyle:  f.DisplayStyle,
		IsActive:      f.IsActive,
		AutoPopulate:  f.AutoPopulate,
		ForSearch:     f.ForSearch,
		AttributeKeys: keys,
		MinValue:      decimalPtr(f.MinValue),
		MaxValue:      decimalPtr(f.MaxValue),
		CategoryId:    nullString(f.CategoryId),
		DisplayOrder:  f.DisplayOrder,
		Binding:       f.Binding,
	}
	if g := f.Group(); g != nil {
		df.Group = ConvertEntityFilterGroupToDto(*g)
	}
	return df
}

func ConvertEntityFiltersToDto(fs []entity.Filter) []Filter {
	out := make([]Filter, 0, len(fs))
	for _, f := range fs {
		out = append(out, ConvertEntityFilterToDto(f))
	}
	return out
}

func ConvertEntityFilterGroupsToDto(gs []entity.FilterGroup) []FilterGroup {
	out := make([]FilterGroup, 0, len(gs))
	for _, g := range gs {
		out = append(out, *ConvertEntityFilterGroupToDto(g))
	}
	return out
}

func ConvertFilterGroupInsertToEntity(gi FilterGroupInsert) *entity.FilterGroup {
	return &entity.FilterGroup{
		Name:         strings.TrimSpace(gi.Name),
		DisplayOrder: gi.DisplayOrder,
	}
}

func ConvertFilterOptionInsertsToEntity(filterId string, ois []FilterOptionInsert) []entity.FilterOption {
	out := make([]entity.FilterOption, 0, len(ois))
	for _, oi := range ois {
		out = append(out, entity.FilterOption{
			FilterId:     filterId,
			Value:        oi.Value,
			Label:        oi.Label,
			DisplayOrder: oi.DisplayOrder,
		})
	}
	return out
}
