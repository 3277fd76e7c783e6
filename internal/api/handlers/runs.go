package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/recurring-finder/internal/api/dto"
	"github.com/eshaffer321/recurring-finder/internal/application/service"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/storage"
)

// RunsHandler handles analysis run-related HTTP requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(svc *service.AnalysisService, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/runs - returns persisted runs, newest first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultRunListParams()
	params.Source = r.URL.Query().Get("source")
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", params.Offset)

	result, err := h.svc.ListRuns(r.Context(), storage.RunFilters{
		Source: params.Source,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.RunListResponse{
		Runs:       make([]dto.RunResponse, 0, len(result.Runs)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for _, run := range result.Runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run with its charges.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toRunResponse(run))
}

// Delete handles DELETE /api/runs/{id}.
func (h *RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	if err := h.svc.DeleteRun(r.Context(), id); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
