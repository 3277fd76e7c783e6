package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-finder/internal/api/dto"
	"github.com/eshaffer321/recurring-finder/internal/application/service"
	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
)

// AnalysisHandler handles engine requests.
type AnalysisHandler struct {
	*Base
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(svc *service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{Base: NewBase(svc, logger)}
}

// Group handles POST /api/group - partitions transactions by merchant.
func (h *AnalysisHandler) Group(w http.ResponseWriter, r *http.Request) {
	var req dto.GroupRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	records, err := toTransactions(req.Transactions)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	threshold := h.svc.Defaults().SimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	groups, err := h.svc.Group(records, threshold)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toGroupListResponse(groups))
}

// Analyze handles POST /api/analyze - groups, detects and persists a run.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalyzeRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	records, err := toTransactions(req.Transactions)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	cfg := applyConfig(h.svc.Defaults(), req.Config)
	report, err := h.svc.Analyze(r.Context(), service.AnalyzeRequest{
		Source:       req.Source,
		Transactions: records,
		Config:       &cfg,
	})
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toAnalyzeResponse(report))
}

// Recurring handles POST /api/recurring - detects recurring charges in
// groups the caller already formed.
func (h *AnalysisHandler) Recurring(w http.ResponseWriter, r *http.Request) {
	var req dto.RecurringRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	groups := grouper.NewGroups()
	for _, in := range req.Groups {
		if in.Name == "" {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("group name is required"))
			return
		}
		if _, exists := groups.Get(in.Name); exists {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("duplicate group name: "+in.Name))
			return
		}
		records, err := toTransactions(in.Transactions)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(in.Name+": "+err.Error()))
			return
		}
		groups.Add(grouper.NewGroup(in.Name, records...))
	}

	cfg := applyConfig(h.svc.Defaults(), req.Config)
	subs, err := h.svc.FindRecurring(groups, cfg.Recurrence())
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	total := decimal.Zero
	for _, s := range subs {
		total = total.Add(s.MonthlyCost)
	}

	h.WriteJSON(w, http.StatusOK, dto.RecurringResponse{
		Recurring:        toSubscriptionResponses(subs),
		Count:            len(subs),
		TotalMonthlyCost: total.StringFixed(2),
	})
}
