package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// FacetSource runs the read-only aggregate queries facet population needs.
// Every method restricts rows to the given scope.
type FacetSource interface {
	DistinctBrands(ctx context.Context, scope entity.FacetScope) ([]entity.FacetRow, error)
	DistinctSkus(ctx context.Context, scope entity.FacetScope) ([]entity.FacetRow, error)
	DistinctCharacteristics(ctx context.Context, scope entity.FacetScope, keys []string) ([]entity.FacetRow, error)
	DistinctVariantAttributes(ctx context.Context, scope entity.FacetScope, keys []string) ([]entity.FacetRow, error)
	DistinctColumnValues(ctx context.Context, scope entity.FacetScope, column string) ([]entity.FacetRow, error)
	RangeBounds(ctx context.Context, scope entity.FacetScope, b entity.FieldBinding) (entity.Bounds, error)
	RatingCounts(ctx context.Context, scope entity.FacetScope) ([]entity.RatingCount, error)
	StaticOptions(ctx context.Context, filterIds []string) (map[string][]entity.FilterOption, error)
}

const defaultConcurrency = 4

// Populator computes the currently available options of filters within a scope.
type Populator struct {
	source      FacetSource
	concurrency int
}

// NewPopulator creates a populator running at most concurrency filters at once.
func NewPopulator(source FacetSource, concurrency int) *Populator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Populator{
		source:      source,
		concurrency: concurrency,
	}
}

// Populate computes options for every filter and returns them grouped.
// Output order follows group and filter order, not completion order.
func (p *Populator) Populate(ctx context.Context, filters []entity.Filter, scope entity.FacetScope) ([]entity.FacetGroup, error) {
	defer metrics.ObserveFacetPopulate(time.Now())

	filters = uniqueFilters(filters)
	if len(filters) == 0 {
		return []entity.FacetGroup{}, nil
	}

	var staticIds []string
	for _, f := range filters {
		if !f.AutoPopulate {
			staticIds = append(staticIds, f.Id)
		}
	}
	static := map[string][]entity.FilterOption{}
	if len(staticIds) > 0 {
		var err error
		static, err = p.source.StaticOptions(ctx, staticIds)
		if err != nil {
			return nil, fmt.Errorf("can't get static filter options: %w", err)
		}
	}

	results := make([]entity.PopulatedFilter, len(filters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range filters {
		i, f := i, f
		g.Go(func() error {
			pf, err := p.populateOne(gctx, f, scope, static[f.Id])
			if err != nil {
				return fmt.Errorf("can't populate filter %s: %w", f.Id, err)
			}
			results[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return GroupFilters(results), nil
}

func (p *Populator) populateOne(ctx context.Context, f entity.Filter, scope entity.FacetScope, static []entity.FilterOption) (entity.PopulatedFilter, error) {
	pf := entity.PopulatedFilter{
		Filter:  f,
		Options: []entity.FacetOption{},
	}
	b := bindingOf(f)
	if !b.Resolved() {
		return unavailable(ctx, pf, b), nil
	}

	if !f.AutoPopulate {
		pf.MinValue, pf.MaxValue = f.MinValue, f.MaxValue
		pf.Options = DedupOptions(staticFacetOptions(static))
		return pf, nil
	}

	var rows []entity.FacetRow
	var err error
	composite := false

	switch b.Kind {
	case entity.BindingRange:
		if b.Range == entity.RangeColumn {
			if _, ok := SafeColumn(b.Column, true); !ok {
				return unavailable(ctx, pf, b), nil
			}
		}
		bounds, err := p.source.RangeBounds(ctx, scope, b)
		if err != nil {
			return pf, err
		}
		pf.MinValue, pf.MaxValue = bounds.Min, bounds.Max
		return pf, nil
	case entity.BindingRating:
		counts, err := p.source.RatingCounts(ctx, scope)
		if err != nil {
			return pf, err
		}
		pf.ReviewSummary = SummarizeRatings(counts)
		pf.Options = ratingOptions(pf.ReviewSummary)
		return pf, nil
	case entity.BindingBrand:
		rows, err = p.source.DistinctBrands(ctx, scope)
	case entity.BindingSku:
		rows, err = p.source.DistinctSkus(ctx, scope)
	case entity.BindingCharacteristic:
		composite = true
		rows, err = p.source.DistinctCharacteristics(ctx, scope, b.Keys)
	case entity.BindingVariantAttribute:
		composite = true
		rows, err = p.source.DistinctVariantAttributes(ctx, scope, b.Keys)
	case entity.BindingRawColumn:
		col, ok := SafeColumn(b.Column, false)
		if !ok {
			return unavailable(ctx, pf, b), nil
		}
		rows, err = p.source.DistinctColumnValues(ctx, scope, col)
	default:
		return unavailable(ctx, pf, b), nil
	}
	if err != nil {
		return pf, err
	}

	pf.Options = DedupOptions(rowOptions(rows, composite))
	return pf, nil
}

func unavailable(ctx context.Context, pf entity.PopulatedFilter, b entity.FieldBinding) entity.PopulatedFilter {
	slog.Default().WarnContext(ctx, "filter can't be populated",
		slog.String("filterId", pf.Filter.Id),
		slog.String("fieldName", pf.Filter.FieldName),
		slog.String("binding", string(b.Kind)),
	)
	metrics.FilterSkipped(metrics.StagePopulate, string(b.Kind))
	pf.Unavailable = true
	return pf
}

func rowOptions(rows []entity.FacetRow, composite bool) []entity.FacetOption {
	opts := make([]entity.FacetOption, 0, len(rows))
	for _, r := range rows {
		o := entity.FacetOption{
			Id:    r.Value,
			Label: r.Value,
			Value: r.Value,
			Count: intPtr(r.Count),
			Image: r.Image.String,
		}
		if composite {
			if !r.Key.Valid || r.Key.String == "" {
				continue
			}
			token := EncodeToken(r.Key.String, r.Value)
			o.Id, o.Value = token, token
		}
		opts = append(opts, o)
	}
	return opts
}

func staticFacetOptions(static []entity.FilterOption) []entity.FacetOption {
	opts := make([]entity.FacetOption, 0, len(static))
	for _, so := range static {
		label := so.Label
		if label == "" {
			label = so.Value
		}
		opts = append(opts, entity.FacetOption{
			Id:    so.Value,
			Label: label,
			Value: so.Value,
		})
	}
	return opts
}

// SummarizeRatings computes per-level counts and the weighted average
// sum(level*count)/sum(count), or 0 without reviews.
func SummarizeRatings(counts []entity.RatingCount) *entity.ReviewSummary {
	s := &entity.ReviewSummary{Counts: make(map[int]int, len(entity.RatingLevels))}
	for _, l := range entity.RatingLevels {
		s.Counts[l.Int()] = 0
	}
	weighted := 0
	for _, c := range counts {
		level := c.Rating.Int()
		if level == 0 || c.Count <= 0 {
			continue
		}
		s.Counts[level] += c.Count
		s.Total += c.Count
		weighted += level * c.Count
	}
	if s.Total > 0 {
		s.AvgRating = float64(weighted) / float64(s.Total)
	}
	return s
}

// ratingOptions lists levels having reviews, highest first.
func ratingOptions(s *entity.ReviewSummary) []entity.FacetOption {
	opts := []entity.FacetOption{}
	for level := len(entity.RatingLevels); level >= 1; level-- {
		n := s.Counts[level]
		if n == 0 {
			continue
		}
		v := strconv.Itoa(level)
		opts = append(opts, entity.FacetOption{Id: v, Label: v, Value: v, Count: intPtr(n)})
	}
	return opts
}

func uniqueFilters(filters []entity.Filter) []entity.Filter {
	seen := make(map[string]bool, len(filters))
	out := make([]entity.Filter, 0, len(filters))
	for _, f := range filters {
		if seen[f.Id] {
			continue
		}
		seen[f.Id] = true
		out = append(out, f)
	}
	return out
}
