// Package search runs catalog searches and facet computations over stored
// filter definitions.
package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
	"github.com/jekabolt/grbpwr-catalog/internal/metrics"
)

const (
	defaultMaxCandidates = 1000
	defaultPerPage       = 20
	defaultMaxPerPage    = 100

	// maxOffset lies past any real catalog; deeper pages fetch nothing.
	maxOffset = math.MaxInt32
)

type Config struct {
	MaxCandidates    int `mapstructure:"max_candidates"`
	FacetConcurrency int `mapstructure:"facet_concurrency"`
	DefaultPerPage   int `mapstructure:"default_per_page"`
	MaxPerPage       int `mapstructure:"max_per_page"`
}

func (c Config) withDefaults() Config {
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = defaultMaxCandidates
	}
	if c.DefaultPerPage <= 0 {
		c.DefaultPerPage = defaultPerPage
	}
	if c.MaxPerPage <= 0 {
		c.MaxPerPage = defaultMaxPerPage
	}
	if c.DefaultPerPage > c.MaxPerPage {
		c.DefaultPerPage = c.MaxPerPage
	}
	return c
}

// Service is stateless; one instance serves all requests.
type Service struct {
	registry  dependency.FilterRegistry
	catalog   dependency.Catalog
	populator *filter.Populator
	c         Config
}

func New(c Config, registry dependency.FilterRegistry, catalog dependency.Catalog) *Service {
	c = c.withDefaults()
	return &Service{
		registry:  registry,
		catalog:   catalog,
		populator: filter.NewPopulator(catalog, c.FacetConcurrency),
		c:         c,
	}
}

type SearchRequest struct {
	Term         string
	CategorySlug string
	// Filters is the raw selection payload, see filter.ParseSelection.
	Filters any
	Sort    string
	Page    int
	PerPage int
}

type SearchResult struct {
	Items   []entity.Product
	Total   int
	Page    int
	PerPage int
}

type FacetRequest struct {
	Term         string
	CategorySlug string
}

// Search narrows the catalog by free text, compiles the selection against the
// selected filters and fetches one sorted page.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	page, perPage := s.paging(req.Page, req.PerPage)

	candidates, err := s.candidates(ctx, req.Term)
	if err != nil {
		return nil, err
	}

	sel := filter.ParseSelection(req.Filters)
	filters, err := s.registry.LoadByIds(ctx, sel.FilterIds())
	if err != nil {
		return nil, fmt.Errorf("can't load selected filters: %w", err)
	}

	pred := filter.Compile(ctx, filters, sel, candidates)
	if slug := strings.TrimSpace(req.CategorySlug); slug != "" {
		pred = filter.And(pred, filter.CategoryClause(slug))
	}

	sort := entity.SortRelevance
	if entity.IsValidSortFactor(req.Sort) {
		sort = entity.SortFactor(req.Sort)
	}

	items, total, err := s.catalog.GetProductsPaged(ctx, pred, entity.ProductsQuery{
		Limit:  perPage,
		Offset: offset(page, perPage),
		Sort:   sort,
		Term:   strings.TrimSpace(req.Term),
	})
	if err != nil {
		return nil, fmt.Errorf("can't get products: %w", err)
	}

	return &SearchResult{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// Facets computes the sidebar for a category, or for the global search
// filters when no category is given.
func (s *Service) Facets(ctx context.Context, req FacetRequest) ([]entity.FacetGroup, error) {
	slug := strings.TrimSpace(req.CategorySlug)

	var filters []entity.Filter
	var err error
	if slug != "" {
		filters, err = s.registry.LoadForCategory(ctx, slug)
	} else {
		filters, err = s.registry.LoadForGlobalSearch(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("can't load facet filters: %w", err)
	}
	if len(filters) == 0 {
		return []entity.FacetGroup{}, nil
	}

	candidates, err := s.candidates(ctx, req.Term)
	if err != nil {
		return nil, err
	}

	groups, err := s.populator.Populate(ctx, filters, entity.FacetScope{
		CategorySlug: slug,
		Candidates:   candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("can't populate facets: %w", err)
	}
	return groups, nil
}

// candidates runs the free-text prefilter. A blank term does not restrict.
func (s *Service) candidates(ctx context.Context, term string) (entity.CandidateSet, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return entity.Unrestricted(), nil
	}
	ids, err := s.catalog.SearchCandidateIds(ctx, term, s.c.MaxCandidates)
	if err != nil {
		return entity.CandidateSet{}, fmt.Errorf("can't search candidates: %w", err)
	}
	metrics.ObserveCandidates(len(ids))
	return entity.RestrictTo(ids), nil
}

// offset returns the row offset of page, capped at maxOffset so it can't overflow.
func offset(page, perPage int) int {
	if page-1 > maxOffset/perPage {
		return maxOffset
	}
	return (page - 1) * perPage
}

func (s *Service) paging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.c.DefaultPerPage
	}
	if perPage > s.c.MaxPerPage {
		perPage = s.c.MaxPerPage
	}
	return page, perPage
}
