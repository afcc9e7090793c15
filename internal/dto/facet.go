package dto

import (
	"strconv"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/shopspring/decimal"
)

type FacetResponse struct {
	Groups []FacetGroup `json:"groups"`
}

type FacetGroup struct {
	Group   *FilterGroup  `json:"group"`
	Filters []FacetFilter `json:"filters"`
}

type FilterGroup struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder,omitempty"`
}

type FacetFilter struct {
	Id            string         `json:"id"`
	Name          string         `json:"name"`
	FieldName     string         `json:"fieldName"`
	Type          string         `json:"type"`
	DataType      string         `json:"dataType"`
	DisplayStyle  string         `json:"displayStyle"`
	Options       []FacetOption  `json:"options"`
	MinValue      *float64       `json:"minValue"`
	MaxValue      *float64       `json:"maxValue"`
	ReviewSummary *ReviewSummary `json:"reviewSummary"`
	Unavailable   bool           `json:"unavailable,omitempty"`
}

type FacetOption struct {
	Id    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	Count *int   `json:"count,omitempty"`
	Image string `json:"image,omitempty"`
}

type ReviewSummary struct {
	// Counts is keyed by rating level "1".."5".
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
	AvgRating float64        `json:"avgRating"`
}

func decimalPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// ConvertEntityFacetGroupsToDto converts populated facet groups into the sidebar response.
func ConvertEntityFacetGroupsToDto(groups []entity.FacetGroup) FacetResponse {
	resp := FacetResponse{Groups: make([]FacetGroup, 0, len(groups))}
	for _, g := range groups {
		fg := FacetGroup{Filters: make([]FacetFilter, 0, len(g.Filters))}
		if g.Group != nil {
			fg.Group = ConvertEntityFilterGroupToDto(*g.Group)
		}
		for _, pf := range g.Filters {
			fg.Filters = append(fg.Filters, ConvertEntityPopulatedFilterToDto(pf))
		}
		resp.Groups = append(resp.Groups, fg)
	}
	return resp
}

func ConvertEntityFilterGroupToDto(g entity.FilterGroup) *FilterGroup {
	return &FilterGroup{
		Id:           g.Id,
		Name:         g.Name,
		DisplayOrder: g.DisplayOrder,
	}
}

func ConvertEntityPopulatedFilterToDto(pf entity.PopulatedFilter) FacetFilter {
	f := pf.Filter
	ff := FacetFilter{
		Id:           f.Id,
		Name:         f.Name,
		FieldName:    f.FieldName,
		Type:         string(f.Type),
		DataType:     string(f.DataType),
		DisplayStyle: f.DisplayStyle,
		Options:      make([]FacetOption, 0, len(pf.Options)),
		MinValue:     decimalPtr(pf.MinValue),
		MaxValue:     decimalPtr(pf.MaxValue),
		Unavailable:  pf.Unavailable,
	}
	for _, o := range pf.Options {
		ff.Options = append(ff.Options, FacetOption{
			Id:    o.Id,
			Label: o.Label,
			Value: o.Value,
			Count: o.Count,
			Image: o.Image,
		})
	}
	if s := pf.ReviewSummary; s != nil {
		counts := make(map[string]int, len(s.Counts))
		for level, n := range s.Counts {
			counts[strconv.Itoa(level)] = n
		}
		ff.ReviewSummary = &ReviewSummary{
			Counts:    counts,
			Total:     s.Total,
			AvgRating: s.AvgRating,
		}
	}
	return ff
}
