package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jekabolt/grbpwr-catalog/internal/dto"
	"github.com/jekabolt/grbpwr-catalog/internal/search"
)

// searchRequest reads q, filters, sort, page and perPage from the query string.
// Unparseable paging falls back to defaults.
func searchRequest(r *http.Request) search.SearchRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	req := search.SearchRequest{
		Term:    q.Get("q"),
		Sort:    strings.ToLower(strings.TrimSpace(q.Get("sort"))),
		Page:    page,
		PerPage: perPage,
	}
	// the selection arrives raw so the codec can undo any encoding layers
	if f := q.Get("filters"); f != "" {
		req.Filters = f
	}
	return req
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	res, err := s.searcher.Search(r.Context(), searchRequest(r))
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.ConvertSearchResultToDto(res))
}

func (s *Server) categoryProducts(w http.ResponseWriter, r *http.Request) {
	req := searchRequest(r)
	req.CategorySlug = chi.URLParam(r, "slug")
	res, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.ConvertSearchResultToCategoryDto(res))
}

func (s *Server) searchFilters(w http.ResponseWriter, r *http.Request) {
	s.facets(w, r, "")
}

func (s *Server) categoryFilters(w http.ResponseWriter, r *http.Request) {
	s.facets(w, r, chi.URLParam(r, "slug"))
}

func (s *Server) facets(w http.ResponseWriter, r *http.Request, slug string) {
	groups, err := s.searcher.Facets(r.Context(), search.FacetRequest{
		Term:         r.URL.Query().Get("q"),
		CategorySlug: slug,
	})
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.ConvertEntityFacetGroupsToDto(groups))
}
