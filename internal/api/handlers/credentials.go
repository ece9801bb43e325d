package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/api/request"
	"github.com/kryptotracker/backend/internal/api/response"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/repository"
	"github.com/kryptotracker/backend/internal/validation"
)

// CredentialHandler handles exchange-credential HTTP requests. Secrets
// are write-only: responses never echo key material.
type CredentialHandler struct {
	credentials *repository.CredentialRepository
}

// NewCredentialHandler creates a new CredentialHandler
func NewCredentialHandler(credentials *repository.CredentialRepository) *CredentialHandler {
	return &CredentialHandler{credentials: credentials}
}

// Upsert stores or replaces the user's credential for an exchange.
func (h *CredentialHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req request.UpsertCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCredential(req.Exchange, req.APIKey, req.APISecret); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	cred := model.ExchangeCredential{
		ID:        uuid.New().String(),
		UserID:    userID(r),
		Exchange:  strings.ToLower(req.Exchange),
		APIKey:    req.APIKey,
		APISecret: req.APISecret,
	}
	if err := h.credentials.Upsert(r.Context(), &cred); err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, map[string]string{"exchange": cred.Exchange})
}

// Delete removes the user's credential for an exchange.
func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	exchange := strings.ToLower(chi.URLParam(r, "exchange"))
	if err := h.credentials.Delete(r.Context(), userID(r), exchange); err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
