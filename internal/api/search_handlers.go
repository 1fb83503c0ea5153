package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/search"
)

// searchRequest is the wire form of a search. Limit and Offset are pointers
// so an absent field can be told apart from an explicit zero.
type searchRequest struct {
	Query      string   `json:"query"`
	Projects   []string `json:"projects"`
	Challenges []string `json:"challenges"`
	Locations  []string `json:"locations"`
	HasAward   bool     `json:"hasAward"`
	OrderBy    string   `json:"orderBy"`
	Limit      *int     `json:"limit"`
	Offset     *int     `json:"offset"`
}

func (req searchRequest) toFilter() (models.FilterRequest, error) {
	mode, err := models.ParseRankingMode(req.OrderBy)
	if err != nil {
		return models.FilterRequest{}, err
	}

	f := models.FilterRequest{
		Query:      req.Query,
		Projects:   req.Projects,
		Challenges: req.Challenges,
		Locations:  req.Locations,
		HasAward:   req.HasAward,
		OrderBy:    mode,
		Limit:      models.DefaultLimit,
	}
	if req.Limit != nil {
		f.Limit = *req.Limit
	}
	if req.Offset != nil {
		f.Offset = *req.Offset
	}
	return f, f.Validate()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), filter)
	if err != nil {
		if errors.Is(err, search.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		slog.Error("search failed", "error", err, "query", filter.Query)
		respondError(w, http.StatusInternalServerError, "search_failed", "failed to run search")
		return
	}

	respondJSON(w, http.StatusOK, page)
}
