package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kryptotracker/backend/internal/api/request"
	"github.com/kryptotracker/backend/internal/api/response"
	"github.com/kryptotracker/backend/internal/tax"
)

// TaxHandler handles tax-report HTTP requests
type TaxHandler struct {
	aggregator *tax.Aggregator
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(aggregator *tax.Aggregator) *TaxHandler {
	return &TaxHandler{aggregator: aggregator}
}

// Generate aggregates the requested period into a new tax report.
func (h *TaxHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req request.GenerateTaxReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "failed to parse startDate", err.Error())
		return
	}
	end, err := parseEndDate(req.EndDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "failed to parse endDate", err.Error())
		return
	}

	summary, err := h.aggregator.Aggregate(r.Context(), userID(r), start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, summary)
}

// Reports lists the user's previously generated reports.
func (h *TaxHandler) Reports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.aggregator.Reports(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, reports)
}

// Report returns one generated report by id.
func (h *TaxHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.aggregator.Report(r.Context(), userID(r), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}
