package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/store"
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// response is the envelope every endpoint speaks.
type response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func respondDataMessage(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, response{Success: true, Data: data, Message: message})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: true, Message: message})
}

func respondPage(w http.ResponseWriter, page *store.OffsetPage) {
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    page.Items,
		Pagination: &Pagination{
			Page:  page.Page,
			Limit: page.PageSize,
			Total: page.Total,
			Pages: page.TotalPages,
		},
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

// respondValidation reports field-level input problems as a 400.
func respondValidation(w http.ResponseWriter, fieldErrors map[string]string) {
	writeJSON(w, http.StatusBadRequest, response{
		Success: false,
		Message: "Validation error",
		Errors:  fieldErrors,
	})
}

// respondStoreError translates store sentinels into the HTTP contract.
// Missing and not-owned resources produce the same 404, so existence never
// leaks; business-rule refusals are 400; the rest is a generic 500.
func (h *Handlers) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrVariantNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrCartItemNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrAddressNotFound),
		errors.Is(err, database.ErrUserNotFound):
		respondError(w, http.StatusNotFound, userMessage(err))

	case errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrEmptyCart),
		errors.Is(err, database.ErrOrderAlreadyCancelled),
		errors.Is(err, database.ErrOrderNotCancellable):
		respondError(w, http.StatusBadRequest, userMessage(err))

	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func userMessage(err error) string {
	for _, sentinel := range []error{
		database.ErrProductNotFound,
		database.ErrVariantNotFound,
		database.ErrCategoryNotFound,
		database.ErrCartItemNotFound,
		database.ErrOrderNotFound,
		database.ErrAddressNotFound,
		database.ErrUserNotFound,
		database.ErrInvalidQuantity,
		database.ErrEmptyCart,
		database.ErrOrderAlreadyCancelled,
		database.ErrOrderNotCancellable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
