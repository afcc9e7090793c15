package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/jekabolt/grbpwr-catalog/internal/filter"
	"github.com/jmoiron/sqlx"
)

//go:generate mockery --with-expecter --case underscore --all --output=./mocks
type (
	ContextStore interface {
		Tx(ctx context.Context, fn func(ctx context.Context, store Repository) error) error
	}

	// FilterRegistry loads active filter definitions with their bindings resolved.
	FilterRegistry interface {
		// LoadByIds returns active filters for ids; unknown ids are dropped.
		LoadByIds(ctx context.Context, ids []string) ([]entity.Filter, error)
		// LoadForCategory returns active filters linked to or attached to a category.
		LoadForCategory(ctx context.Context, slug string) ([]entity.Filter, error)
		// LoadForGlobalSearch returns active filters flagged for the search sidebar.
		LoadForGlobalSearch(ctx context.Context) ([]entity.Filter, error)
	}

	// FilterAdmin manages filter definitions.
	FilterAdmin interface {
		AddFilter(ctx context.Context, fb *entity.FilterBody) (string, error)
		UpdateFilter(ctx context.Context, id string, fb *entity.FilterBody) error
		DeleteFilter(ctx context.Context, id string) error
		GetFilterById(ctx context.Context, id string) (*entity.Filter, error)
		ListFilters(ctx context.Context) ([]entity.Filter, error)
		AddGroup(ctx context.Context, g *entity.FilterGroup) (string, error)
		ListGroups(ctx context.Context) ([]entity.FilterGroup, error)
		DeleteGroup(ctx context.Context, id string) error
		SetCategoryFilters(ctx context.Context, slug string, filterIds []string) error
		SetFilterOptions(ctx context.Context, filterId string, opts []entity.FilterOption) error
	}

	Filters interface {
		FilterRegistry
		FilterAdmin
	}

	Catalog interface {
		filter.FacetSource
		// SearchCandidateIds returns ids of active products whose name, description
		// or variant sku contains term, capped at limit.
		SearchCandidateIds(ctx context.Context, term string, limit int) ([]string, error)
		// GetProductsPaged returns one sorted page of products matching pred and the total count.
		GetProductsPaged(ctx context.Context, pred filter.Predicate, q entity.ProductsQuery) ([]entity.Product, int, error)
	}

	Repository interface {
		Filters() Filters
		Catalog() Catalog
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		Ping(ctx context.Context) error
		IsErrUniqueViolation(err error) bool
		IsErrorRepeat(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
		PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
		PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// RegistryCache holds loaded filter definitions for a short time.
	RegistryCache interface {
		Get(ctx context.Context, key string) ([]entity.Filter, bool)
		Set(ctx context.Context, key string, filters []entity.Filter)
		Invalidate(ctx context.Context)
	}
)
