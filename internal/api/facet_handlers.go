package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/project-explorer/internal/facets"
)

// Facet handlers: selectable filter values and table columns

func (s *Server) handleListFacet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "cat")

	values, err := s.facets.Values(r.Context(), name)
	if err != nil {
		s.respondFacetError(w, name, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"category": name,
		"values":   values,
		"total":    len(values),
	})
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "cat")

	columns, err := s.facets.Columns(r.Context(), table)
	if err != nil {
		s.respondFacetError(w, table, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"table":   table,
		"columns": columns,
		"total":   len(columns),
	})
}

func (s *Server) respondFacetError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, facets.ErrUnknownFacet) {
		respondError(w, http.StatusNotFound, "not_found", "category not found")
		return
	}
	slog.Error("failed to list facet", "category", name, "error", err)
	respondError(w, http.StatusInternalServerError, "facet_failed", "failed to list category")
}
