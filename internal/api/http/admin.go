package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jekabolt/grbpwr-catalog/internal/dto"
)

func (s *Server) listFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.admin.ListFilters(r.Context())
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.ConvertEntityFiltersToDto(filters))
}

func (s *Server) getFilter(w http.ResponseWriter, r *http.Request) {
	f, err := s.admin.GetFilterById(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.ConvertEntityFilterToDto(*f))
}

func (s *Server) addFilter(w http.ResponseWriter, r *http.Request) {
	var fi dto.FilterInsert
	if err := decodeJSON(r, &fi); err != nil {
		renderErr(w, r, err)
		return
	}
	id, err := s.admin.AddFilter(r.Context(), dto.ConvertFilterInsertToEntity(fi))
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, dto.IdResponse{Id: id})
}

func (s *Server) updateFilter(w http.ResponseWriter, r *http.Request) {
	var fi dto.FilterInsert
	if err := decodeJSON(r, &fi); err != nil {
		renderErr(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.admin.UpdateFilter(r.Context(), id, dto.ConvertFilterInsertToEntity(fi)); err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.IdResponse{Id: id})
}

func (s *Server) deleteFilter(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.DeleteFilter(r.Context(), chi.URLParam(r, "id")); err != nil {
		renderErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setFilterOptions(w http.ResponseWriter, r *http.Request) {
	var ois []dto.FilterOptionInsert
	if err := decodeJSON(r, &ois); err != nil {
		renderErr(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.admin.SetFilterOptions(r.Context(), id, dto.ConvertFilterOptionInsertsToEntity(id, ois)); err != nil {
		renderErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.admin.ListGroups(r.Context())
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, dto.ConvertEntityFilterGroupsToDto(groups))
}

func (s *Server) addGroup(w http.ResponseWriter, r *http.Request) {
	var gi dto.FilterGroupInsert
	if err := decodeJSON(r, &gi); err != nil {
		renderErr(w, r, err)
		return
	}
	id, err := s.admin.AddGroup(r.Context(), dto.ConvertFilterGroupInsertToEntity(gi))
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, dto.IdResponse{Id: id})
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		renderErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setCategoryFilters(w http.ResponseWriter, r *http.Request) {
	var ci dto.CategoryFiltersInsert
	if err := decodeJSON(r, &ci); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := s.admin.SetCategoryFilters(r.Context(), chi.URLParam(r, "slug"), ci.FilterIds); err != nil {
		renderErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
