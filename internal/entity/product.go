package entity

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// Category represents the category table
type Category struct {
	Id       string         `db:"id"`
	Slug     string         `db:"slug"`
	Name     string         `db:"name"`
	ParentId sql.NullString `db:"parent_id"`
}

// Product represents the product table
type Product struct {
	Id              string              `db:"id"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
	Name            string              `db:"name"`
	Description     string              `db:"description"`
	Brand           sql.NullString      `db:"brand"`
	Price           decimal.Decimal     `db:"price"`
	Status          ProductStatus       `db:"status"`
	CategoryId      sql.NullString      `db:"category_id"`
	Color           sql.NullString      `db:"color"`
	Material        sql.NullString      `db:"material"`
	Gender          sql.NullString      `db:"gender"`
	CountryOfOrigin sql.NullString      `db:"country_of_origin"`
	Weight          decimal.NullDecimal `db:"weight"`
	Thumbnail       sql.NullString      `db:"thumbnail"`
}

func (p *Product) PriceDecimal() decimal.Decimal {
	return p.Price.Round(2)
}

// ProductVariant represents the product_variant table
type ProductVariant struct {
	Id        string              `db:"id"`
	ProductId string              `db:"product_id"`
	Sku       string              `db:"sku"`
	Price     decimal.NullDecimal `db:"price"`
	Image     sql.NullString      `db:"image"`
	Stock     int                 `db:"stock"`
}

// VariantAttribute represents the variant_attribute table
type VariantAttribute struct {
	Id        string         `db:"id"`
	VariantId string         `db:"variant_id"`
	Key       string         `db:"attr_key"`
	Value     string         `db:"attr_value"`
	Image     sql.NullString `db:"image"`
}

// ProductCharacteristic represents the product_characteristic table
type ProductCharacteristic struct {
	Id        string `db:"id"`
	ProductId string `db:"product_id"`
	Key       string `db:"char_key"`
	Value     string `db:"char_value"`
}

// RatingLevel is the stored review rating enum.
type RatingLevel string

const (
	RatingOne   RatingLevel = "ONE"
	RatingTwo   RatingLevel = "TWO"
	RatingThree RatingLevel = "THREE"
	RatingFour  RatingLevel = "FOUR"
	RatingFive  RatingLevel = "FIVE"
)

// RatingLevels is ordered from lowest to highest.
var RatingLevels = []RatingLevel{RatingOne, RatingTwo, RatingThree, RatingFour, RatingFive}

// RatingLevelFromInt maps 1..5 to the stored level.
func RatingLevelFromInt(n int) (RatingLevel, bool) {
	if n < 1 || n > len(RatingLevels) {
		return "", false
	}
	return RatingLevels[n-1], true
}

// Int returns the numeric value of the level, or 0 when unknown.
func (rl RatingLevel) Int() int {
	for i, l := range RatingLevels {
		if l == rl {
			return i + 1
		}
	}
	return 0
}

// Review represents the review table
type Review struct {
	Id        string      `db:"id"`
	ProductId string      `db:"product_id"`
	Rating    RatingLevel `db:"rating"`
	Body      string      `db:"body"`
	CreatedAt time.Time   `db:"created_at"`
}

// ProductsQuery holds paging and sorting of a catalog fetch.
type ProductsQuery struct {
	Limit  int
	Offset int
	Sort   SortFactor
	// Term is the free-text query, used to rank relevance.
	Term string
}
