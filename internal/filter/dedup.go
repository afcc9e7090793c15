package filter

import (
	"sort"
	"strings"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"golang.org/x/text/cases"
)

// DedupOptions merges options whose identifying value normalizes to the same key.
// The first occurrence keeps its id, label and image; later duplicates only add
// their count. Options with a blank value are dropped.
func DedupOptions(opts []entity.FacetOption) []entity.FacetOption {
	// a Caser is stateful, one per call
	fold := cases.Fold()
	index := make(map[string]int, len(opts))
	out := make([]entity.FacetOption, 0, len(opts))
	for _, o := range opts {
		key := dedupKey(fold, o.Value)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if o.Count != nil {
				if out[i].Count == nil {
					out[i].Count = intPtr(0)
				}
				*out[i].Count += *o.Count
			}
			continue
		}
		if o.Count != nil {
			o.Count = intPtr(*o.Count)
		}
		index[key] = len(out)
		out = append(out, o)
	}
	return out
}

func dedupKey(fold cases.Caser, value string) string {
	tok := DecodeToken(value)
	if tok.Composite {
		return fold.String(strings.TrimSpace(tok.Key)) + TokenSeparator + fold.String(strings.TrimSpace(tok.Value))
	}
	return fold.String(strings.TrimSpace(value))
}

func intPtr(n int) *int {
	return &n
}

// GroupFilters buckets populated filters by group. Buckets are ordered by group
// order with the ungrouped bucket last; filters within a bucket by filter order.
func GroupFilters(populated []entity.PopulatedFilter) []entity.FacetGroup {
	var groups []entity.FacetGroup
	var ungrouped []entity.PopulatedFilter
	index := map[string]int{}

	for _, pf := range populated {
		g := pf.Filter.Group()
		if g == nil {
			ungrouped = append(ungrouped, pf)
			continue
		}
		i, ok := index[g.Id]
		if !ok {
			i = len(groups)
			index[g.Id] = i
			groups = append(groups, entity.FacetGroup{Group: g})
		}
		groups[i].Filters = append(groups[i].Filters, pf)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		gi, gj := groups[i].Group, groups[j].Group
		if gi.DisplayOrder != gj.DisplayOrder {
			return gi.DisplayOrder < gj.DisplayOrder
		}
		return gi.Name < gj.Name
	})
	if len(ungrouped) > 0 {
		groups = append(groups, entity.FacetGroup{Filters: ungrouped})
	}
	for i := range groups {
		fs := groups[i].Filters
		sort.SliceStable(fs, func(a, b int) bool {
			return fs[a].Filter.DisplayOrder < fs[b].Filter.DisplayOrder
		})
	}
	return groups
}
