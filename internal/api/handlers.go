package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/project-explorer/internal/health"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("dependency not ready", "dependency", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !health.Healthy(results) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Data:    map[string]interface{}{"status": "not_ready", "checks": checks},
			Error:   &apiError{Code: "not_ready", Message: "service not ready"},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
