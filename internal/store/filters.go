package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	gerr "github.com/jekabolt/grbpwr-catalog/internal/errors"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
)

type filterStore struct {
	*MYSQLStore
}

// Filters returns an object implementing the filter registry and admin interfaces
func (ms *MYSQLStore) Filters() dependency.Filters {
	return &filterStore{
		MYSQLStore: ms,
	}
}

const selectFilters = `
	SELECT
		f.id, f.created_at, f.updated_at, f.name, f.field_name, f.type, f.data_type,
		f.display_style, f.is_active, f.auto_populate, f.for_search, f.attribute_keys,
		f.min_value, f.max_value, f.group_id, f.category_id, f.display_order,
		fg.name AS group_name, fg.display_order AS group_order
	FROM filter f
	LEFT JOIN filter_group fg ON fg.id = f.group_id`

// grouped filters first by group order, ungrouped last
const orderFilters = `
	ORDER BY fg.id IS NULL, fg.display_order, fg.name, f.display_order, f.name`

func (ms *MYSQLStore) queryFilters(ctx context.Context, where string, params map[string]any) ([]entity.Filter, error) {
	query := selectFilters
	if where != "" {
		query += " WHERE " + where
	}
	query += orderFilters

	filters, err := QueryListNamed[entity.Filter](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, err
	}
	if filters == nil {
		filters = []entity.Filter{}
	}
	return filter.Bind(filters), nil
}

func (ms *filterStore) LoadByIds(ctx context.Context, ids []string) ([]entity.Filter, error) {
	if len(ids) == 0 {
		return []entity.Filter{}, nil
	}
	filters, err := ms.queryFilters(ctx, "f.is_active = TRUE AND f.id IN (:ids)", map[string]any{
		"ids": ids,
	})
	if err != nil {
		return nil, fmt.Errorf("can't load filters by ids: %w", err)
	}
	return filters, nil
}

func (ms *filterStore) LoadForCategory(ctx context.Context, slug string) ([]entity.Filter, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return []entity.Filter{}, nil
	}
	where := `f.is_active = TRUE AND (
		f.id IN (
			SELECT cf.filter_id FROM category_filter cf
			JOIN category c ON c.id = cf.category_id
			WHERE c.slug = :linkedSlug
		)
		OR f.category_id IN (SELECT c.id FROM category c WHERE c.slug = :ownerSlug)
	)`
	filters, err := ms.queryFilters(ctx, where, map[string]any{
		"linkedSlug": slug,
		"ownerSlug":  slug,
	})
	if err != nil {
		return nil, fmt.Errorf("can't load filters for category %s: %w", slug, err)
	}
	return filters, nil
}

func (ms *filterStore) LoadForGlobalSearch(ctx context.Context) ([]entity.Filter, error) {
	filters, err := ms.queryFilters(ctx, "f.is_active = TRUE AND f.for_search = TRUE", map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't load search filters: %w", err)
	}
	return filters, nil
}

func validateFilterBody(fb *entity.FilterBody) error {
	if _, err := govalidator.ValidateStruct(fb); err != nil {
		return fmt.Errorf("%w: %v", gerr.ErrInvalidFilter, err)
	}
	return filter.ValidateDefinition(*fb)
}

func filterParams(fb *entity.FilterBody) map[string]any {
	return map[string]any{
		"name":          fb.Name,
		"fieldName":     fb.FieldName,
		"type":          fb.Type,
		"dataType":      fb.DataType,
		"displayStyle":  fb.DisplayStyle,
		"isActive":      fb.IsActive,
		"autoPopulate":  fb.AutoPopulate,
		"forSearch":     fb.ForSearch,
		"attributeKeys": fb.AttributeKeys,
		"minValue":      fb.MinValue,
		"maxValue":      fb.MaxValue,
		"groupId":       fb.GroupId,
		"categoryId":    fb.CategoryId,
		"displayOrder":  fb.DisplayOrder,
	}
}

func (ms *filterStore) AddFilter(ctx context.Context, fb *entity.FilterBody) (string, error) {
	if err := validateFilterBody(fb); err != nil {
		return "", err
	}
	id := uuid.New().String()
	params := filterParams(fb)
	params["id"] = id

	query := `
	INSERT INTO filter
	(id, name, field_name, type, data_type, display_style, is_active, auto_populate, for_search,
	 attribute_keys, min_value, max_value, group_id, category_id, display_order)
	VALUES (:id, :name, :fieldName, :type, :dataType, :displayStyle, :isActive, :autoPopulate, :forSearch,
	 :attributeKeys, :minValue, :maxValue, :groupId, :categoryId, :displayOrder)`

	if _, err := ExecNamed(ctx, ms.DB(), query, params); err != nil {
		return "", fmt.Errorf("can't add filter: %w", err)
	}
	return id, nil
}

func (ms *filterStore) UpdateFilter(ctx context.Context, id string, fb *entity.FilterBody) error {
	if err := validateFilterBody(fb); err != nil {
		return err
	}
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		if _, err := rep.Filters().GetFilterById(ctx, id); err != nil {
			return err
		}
		params := filterParams(fb)
		params["id"] = id
		query := `
		UPDATE filter SET
			name = :name, field_name = :fieldName, type = :type, data_type = :dataType,
			display_style = :displayStyle, is_active = :isActive, auto_populate = :autoPopulate,
			for_search = :forSearch, attribute_keys = :attributeKeys, min_value = :minValue,
			max_value = :maxValue, group_id = :groupId, category_id = :categoryId,
			display_order = :displayOrder
		WHERE id = :id`
		if _, err := ExecNamed(ctx, rep.DB(), query, params); err != nil {
			return fmt.Errorf("can't update filter: %w", err)
		}
		return nil
	})
}

func (ms *filterStore) DeleteFilter(ctx context.Context, id string) error {
	n, err := ExecNamed(ctx, ms.DB(), `DELETE FROM filter WHERE id = :id`, map[string]any{
		"id": id,
	})
	if err != nil {
		return fmt.Errorf("can't delete filter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("can't delete filter %s: %w", id, gerr.ErrFilterNotFound)
	}
	return nil
}

// GetFilterById returns a filter regardless of its active flag.
func (ms *filterStore) GetFilterById(ctx context.Context, id string) (*entity.Filter, error) {
	f, err := QueryNamedOne[entity.Filter](ctx, ms.DB(), selectFilters+` WHERE f.id = :id`, map[string]any{
		"id": id,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("can't get filter %s: %w", id, gerr.ErrFilterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("can't get filter: %w", err)
	}
	f.Binding = filter.Resolve(f)
	return &f, nil
}

// ListFilters returns every filter definition including inactive ones.
func (ms *filterStore) ListFilters(ctx context.Context) ([]entity.Filter, error) {
	filters, err := ms.queryFilters(ctx, "", map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't list filters: %w", err)
	}
	return filters, nil
}

func (ms *filterStore) AddGroup(ctx context.Context, g *entity.FilterGroup) (string, error) {
	if _, err := govalidator.ValidateStruct(g); err != nil {
		return "", fmt.Errorf("%w: %v", gerr.ErrBadRequest, err)
	}
	id := uuid.New().String()
	query := `INSERT INTO filter_group (id, name, display_order) VALUES (:id, :name, :displayOrder)`
	_, err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"id":           id,
		"name":         g.Name,
		"displayOrder": g.DisplayOrder,
	})
	if err != nil {
		return "", fmt.Errorf("can't add filter group: %w", err)
	}
	return id, nil
}

func (ms *filterStore) ListGroups(ctx context.Context) ([]entity.FilterGroup, error) {
	query := `SELECT id, name, display_order FROM filter_group ORDER BY display_order, name`
	groups, err := QueryListNamed[entity.FilterGroup](ctx, ms.DB(), query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't list filter groups: %w", err)
	}
	if groups == nil {
		groups = []entity.FilterGroup{}
	}
	return groups, nil
}

// DeleteGroup removes a group; its filters become ungrouped.
func (ms *filterStore) DeleteGroup(ctx context.Context, id string) error {
	n, err := ExecNamed(ctx, ms.DB(), `DELETE FROM filter_group WHERE id = :id`, map[string]any{
		"id": id,
	})
	if err != nil {
		return fmt.Errorf("can't delete filter group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("can't delete filter group %s: %w", id, gerr.ErrGroupNotFound)
	}
	return nil
}

// SetCategoryFilters replaces the filters linked to a category.
func (ms *filterStore) SetCategoryFilters(ctx context.Context, slug string, filterIds []string) error {
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		categoryId, err := QueryColumnNamed[string](ctx, rep.DB(), `SELECT id FROM category WHERE slug = :slug`, map[string]any{
			"slug": slug,
		})
		if err != nil {
			return fmt.Errorf("can't get category: %w", err)
		}
		if len(categoryId) == 0 {
			return fmt.Errorf("can't set filters of %s: %w", slug, gerr.ErrCategoryNotFound)
		}

		ids := uniqueIds(filterIds)
		if len(ids) > 0 {
			known, err := QueryColumnNamed[string](ctx, rep.DB(), `SELECT id FROM filter WHERE id IN (:ids)`, map[string]any{
				"ids": ids,
			})
			if err != nil {
				return fmt.Errorf("can't check filters: %w", err)
			}
			if len(known) != len(ids) {
				return fmt.Errorf("can't link unknown filters: %w", gerr.ErrFilterNotFound)
			}
		}

		_, err = ExecNamed(ctx, rep.DB(), `DELETE FROM category_filter WHERE category_id = :categoryId`, map[string]any{
			"categoryId": categoryId[0],
		})
		if err != nil {
			return fmt.Errorf("can't clear category filters: %w", err)
		}

		rows := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, map[string]any{
				"category_id": categoryId[0],
				"filter_id":   id,
			})
		}
		if err := BulkInsert(ctx, rep.DB(), "category_filter", rows); err != nil {
			return fmt.Errorf("can't link category filters: %w", err)
		}
		return nil
	})
}

// SetFilterOptions replaces the static options of a filter.
func (ms *filterStore) SetFilterOptions(ctx context.Context, filterId string, opts []entity.FilterOption) error {
	for i := range opts {
		opts[i].Value = strings.TrimSpace(opts[i].Value)
		if _, err := govalidator.ValidateStruct(opts[i]); err != nil {
			return fmt.Errorf("%w: option %d: %v", gerr.ErrBadRequest, i, err)
		}
	}
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		if _, err := rep.Filters().GetFilterById(ctx, filterId); err != nil {
			return err
		}
		_, err := ExecNamed(ctx, rep.DB(), `DELETE FROM filter_option WHERE filter_id = :filterId`, map[string]any{
			"filterId": filterId,
		})
		if err != nil {
			return fmt.Errorf("can't clear filter options: %w", err)
		}

		rows := make([]map[string]any, 0, len(opts))
		for i, o := range opts {
			order := o.DisplayOrder
			if order == 0 {
				order = i
			}
			rows = append(rows, map[string]any{
				"id":            uuid.New().String(),
				"filter_id":     filterId,
				"value":         o.Value,
				"label":         o.Label,
				"display_order": order,
			})
		}
		if err := BulkInsert(ctx, rep.DB(), "filter_option", rows); err != nil {
			return fmt.Errorf("can't insert filter options: %w", err)
		}
		return nil
	})
}

// StaticOptions returns stored options keyed by filter id, in display order.
func (ms *MYSQLStore) StaticOptions(ctx context.Context, filterIds []string) (map[string][]entity.FilterOption, error) {
	out := make(map[string][]entity.FilterOption, len(filterIds))
	if len(filterIds) == 0 {
		return out, nil
	}
	query := `
	SELECT id, filter_id, value, label, display_order
	FROM filter_option
	WHERE filter_id IN (:filterIds)
	ORDER BY filter_id, display_order, value`
	opts, err := QueryListNamed[entity.FilterOption](ctx, ms.DB(), query, map[string]any{
		"filterIds": filterIds,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get filter options: %w", err)
	}
	for _, o := range opts {
		out[o.FilterId] = append(out[o.FilterId], o)
	}
	return out, nil
}

func uniqueIds(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
