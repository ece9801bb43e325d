package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kryptotracker/backend/internal/api/response"
	"github.com/kryptotracker/backend/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolios returns every portfolio of the requesting user with its positions.
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.portfolioService.Summaries(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, summaries)
}

// Portfolio returns one portfolio by id.
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolioService.Summary(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Dashboard returns the headline overview: total balances, position
// breakdowns and recent activity.
func (h *PortfolioHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolioService.Dashboard(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
