package dto

import (
	"database/sql"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/search"
)

type Product struct {
	Id              string    `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Brand           string    `json:"brand,omitempty"`
	Price           string    `json:"price"`
	Status          string    `json:"status"`
	CategoryId      string    `json:"categoryId,omitempty"`
	Color           string    `json:"color,omitempty"`
	Material        string    `json:"material,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	CountryOfOrigin string    `json:"countryOfOrigin,omitempty"`
	Weight          *string   `json:"weight,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
}

// SearchMeta is the paging block of the global search response.
type SearchMeta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

type SearchResponse struct {
	Data []Product  `json:"data"`
	Meta SearchMeta `json:"meta"`
}

// CategoryProductsResponse is the flat variant used by category pages.
type CategoryProductsResponse struct {
	Items   []Product `json:"items"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"perPage"`
}

func nullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func ConvertEntityProductToDto(p entity.Product) Product {
	dp := Product{
		Id:              p.Id,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Name:            p.Name,
		Description:     p.Description,
		Brand:           nullString(p.Brand),
		Price:           p.PriceDecimal().StringFixed(2),
		Status:          string(p.Status),
		CategoryId:      nullString(p.CategoryId),
		Color:           nullString(p.Color),
		Material:        nullString(p.Material),
		Gender:          nullString(p.Gender),
		CountryOfOrigin: nullString(p.CountryOfOrigin),
		Thumbnail:       nullString(p.Thumbnail),
	}
	if p.Weight.Valid {
		w := p.Weight.Decimal.String()
		dp.Weight = &w
	}
	return dp
}

func ConvertEntityProductsToDto(ps []entity.Product) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, ConvertEntityProductToDto(p))
	}
	return out
}

func ConvertSearchResultToDto(res *search.SearchResult) SearchResponse {
	return SearchResponse{
		Data: ConvertEntityProductsToDto(res.Items),
		Meta: SearchMeta{
			Total:   res.Total,
			Page:    res.Page,
			PerPage: res.PerPage,
		},
	}
}

func ConvertSearchResultToCategoryDto(res *search.SearchResult) CategoryProductsResponse {
	return CategoryProductsResponse{
		Items:   ConvertEntityProductsToDto(res.Items),
		Total:   res.Total,
		Page:    res.Page,
		PerPage: res.PerPage,
	}
}
