package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kryptotracker/backend/internal/api/request"
	"github.com/kryptotracker/backend/internal/api/response"
	"github.com/kryptotracker/backend/internal/service"
	"github.com/kryptotracker/backend/internal/validation"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	portfolioService *service.PortfolioService
	importService    *service.ImportService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(portfolioService *service.PortfolioService, importService *service.ImportService) *TransactionHandler {
	return &TransactionHandler{
		portfolioService: portfolioService,
		importService:    importService,
	}
}

// Transactions returns the user's full transaction history.
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.portfolioService.Transactions(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// Create runs a hand-entered transaction through the reconciliation
// engine. The date defaults to now when omitted.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.ManualTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateManualTransaction(req.Type, req.AssetSymbol, req.CounterSymbol, req.Amount); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "failed to parse date", err.Error())
			return
		}
		date = parsed
	}

	result, err := h.importService.ImportManual(r.Context(), userID(r), service.ManualEntry{
		Type:          req.Type,
		AssetSymbol:   req.AssetSymbol,
		CounterSymbol: req.CounterSymbol,
		Amount:        req.Amount,
		Fee:           req.Fee,
		Date:          date,
		PortfolioName: req.PortfolioName,
		ManualPrice:   req.ManualPrice,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}
