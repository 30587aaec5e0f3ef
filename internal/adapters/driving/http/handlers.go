package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"document not found"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports backend health
// @Description Readiness status with failing backends
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// SuccessResponse acknowledges a mutation
// @Description Mutation acknowledgement
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the document store, cache and queue backends
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failed := make(map[string]string)
	for _, check := range s.checks {
		if check.Pinger == nil {
			continue
		}
		if err := check.Pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "backend", check.Name, "error", err)
			failed[check.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable", Checks: failed})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwaggerDoc serves the registered OpenAPI document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.logger.Error("failed to read swagger doc", "error", err)
		writeError(w, http.StatusInternalServerError, "swagger doc unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// errorStatus maps domain errors to a status and client message.
// Anything unrecognised is a 500 with the caller's generic message.
func errorStatus(err error, internalMessage string) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "document not found"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "document is being modified, try again"
	case errors.Is(err, domain.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// writeServiceError writes the mapped error, logging server faults.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	status, message := errorStatus(err, internalMessage)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, message)
}
