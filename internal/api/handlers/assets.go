package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/api/request"
	"github.com/kryptotracker/backend/internal/api/response"
	"github.com/kryptotracker/backend/internal/model"
	"github.com/kryptotracker/backend/internal/service"
)

// AssetHandler handles asset-related HTTP requests
type AssetHandler struct {
	portfolioService *service.PortfolioService
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(portfolioService *service.PortfolioService) *AssetHandler {
	return &AssetHandler{portfolioService: portfolioService}
}

// Assets returns every tracked asset.
func (h *AssetHandler) Assets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.portfolioService.Assets(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, assets)
}

// Create registers a new tracked asset.
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Acronym == "" || req.APIIDName == "" {
		response.RespondError(w, http.StatusBadRequest, "acronym and apiIdName are required", "")
		return
	}

	asset := model.Asset{
		ID:        uuid.New().String(),
		FullName:  req.FullName,
		APIIDName: strings.ToLower(req.APIIDName),
		Acronym:   strings.ToUpper(req.Acronym),
	}
	if err := h.portfolioService.CreateAsset(r.Context(), &asset); err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, asset)
}
