package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/api/response"
)

// defaultUserID scopes requests that carry no explicit user header. The
// backend is single-tenant by default; a frontend proxy can set X-User-ID
// when serving several accounts.
const defaultUserID = "default"

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

// respondServiceError maps the error catalog onto status codes. Anything
// unrecognized is a 500 with the error text as detail.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrPositionNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrCredentialNotFound),
		errors.Is(err, apperrors.ErrTaxReportNotFound):
		response.RespondError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrUnknownTransactionType),
		errors.Is(err, apperrors.ErrManualPriceRequired),
		errors.Is(err, apperrors.ErrMissingColumns),
		errors.Is(err, apperrors.ErrEmptyFile),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID):
		response.RespondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		response.RespondError(w, http.StatusConflict, err.Error(), "")
	default:
		response.RespondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// parseDate accepts YYYY-MM-DD and RFC3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseEndDate parses an inclusive period end. A date-only value means
// the whole day, so it is extended to the last second of that day.
func parseEndDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.AddDate(0, 0, 1).Add(-time.Second), nil
	}
	return time.Parse(time.RFC3339, s)
}
