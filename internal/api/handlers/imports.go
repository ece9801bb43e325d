package handlers

import (
	"net/http"
	"strconv"

	"github.com/kryptotracker/backend/internal/api/response"
	"github.com/kryptotracker/backend/internal/service"
)

// maxUploadBytes bounds CSV uploads.
const maxUploadBytes = 32 << 20

// ImportHandler handles exchange-import HTTP requests
type ImportHandler struct {
	importService *service.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// FromExchange pulls the user's ledger history from the exchange API and
// reconciles it. An optional manual_price query parameter prices rows no
// provider can resolve.
func (h *ImportHandler) FromExchange(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = "kraken"
	}

	manualPrice, err := manualPriceParam(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid manual_price", err.Error())
		return
	}

	result, err := h.importService.ImportFromExchange(r.Context(), userID(r), exchange, manualPrice)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// FromCSV reconciles uploaded export files. Multipart field "ledgers" is
// required, "trades" is optional.
func (h *ImportHandler) FromCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	ledgers, _, err := r.FormFile("ledgers")
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "ledgers file is required", err.Error())
		return
	}
	defer ledgers.Close()

	manualPrice, err := manualPriceParam(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid manual_price", err.Error())
		return
	}

	exchange := r.FormValue("exchange")
	if exchange == "" {
		exchange = "kraken"
	}

	var result interface{}
	if trades, _, err := r.FormFile("trades"); err == nil {
		defer trades.Close()
		result, err = h.importService.ImportCSV(r.Context(), userID(r), exchange, ledgers, trades, manualPrice)
		if err != nil {
			respondServiceError(w, err)
			return
		}
	} else {
		result, err = h.importService.ImportCSV(r.Context(), userID(r), exchange, ledgers, nil, manualPrice)
		if err != nil {
			respondServiceError(w, err)
			return
		}
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// SyncSnapshots overwrites positions with the balances the exchange
// currently reports.
func (h *ImportHandler) SyncSnapshots(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = "kraken"
	}

	if err := h.importService.SyncSnapshots(r.Context(), userID(r), exchange); err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func manualPriceParam(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("manual_price")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
