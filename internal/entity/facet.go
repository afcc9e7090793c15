package entity

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// CandidateSet restricts a query to a set of product ids.
// The zero value means "no restriction"; a restriction with no ids matches nothing.
type CandidateSet struct {
	ids        []string
	restricted bool
}

// Unrestricted returns a candidate set that does not narrow the catalog.
func Unrestricted() CandidateSet {
	return CandidateSet{}
}

// RestrictTo narrows the catalog to ids. An empty ids slice matches nothing.
func RestrictTo(ids []string) CandidateSet {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return CandidateSet{ids: cp, restricted: true}
}

func (cs CandidateSet) Restricted() bool {
	return cs.restricted
}

func (cs CandidateSet) IDs() []string {
	return cs.ids
}

// MatchesNothing reports the explicit zero-result sentinel.
func (cs CandidateSet) MatchesNothing() bool {
	return cs.restricted && len(cs.ids) == 0
}

// FacetScope is the restriction context for facet population.
type FacetScope struct {
	CategorySlug string
	Candidates   CandidateSet
}

// FacetRow is one distinct value returned by an aggregate facet query.
type FacetRow struct {
	Key   sql.NullString `db:"facet_key"`
	Value string         `db:"facet_value"`
	Count int            `db:"facet_count"`
	Image sql.NullString `db:"facet_image"`
}

// Bounds is the numeric range of a RANGE filter within a scope.
type Bounds struct {
	Min decimal.NullDecimal `db:"min_value"`
	Max decimal.NullDecimal `db:"max_value"`
}

// RatingCount is the number of reviews at one rating level.
type RatingCount struct {
	Rating RatingLevel `db:"rating"`
	Count  int         `db:"review_count"`
}

type ReviewSummary struct {
	// Counts is keyed by numeric level 1..5.
	Counts    map[int]int
	Total     int
	AvgRating float64
}

// FacetOption is a single selectable value of a populated filter.
type FacetOption struct {
	Id    string
	Label string
	Value string
	Count *int
	Image string
}

// PopulatedFilter is a filter with its currently available options.
type PopulatedFilter struct {
	Filter        Filter
	Options       []FacetOption
	MinValue      decimal.NullDecimal
	MaxValue      decimal.NullDecimal
	ReviewSummary *ReviewSummary
	// Unavailable is set when the filter could not be mapped onto the catalog.
	Unavailable bool
}

// FacetGroup wraps a filter group (nil for the ungrouped bucket) and its filters.
type FacetGroup struct {
	Group   *FilterGroup
	Filters []PopulatedFilter
}
