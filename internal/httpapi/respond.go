package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/safar/go-shop/internal/service"
	"github.com/safar/go-shop/internal/store"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func respondErrorDetails(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}

// fail maps a service or store error onto the HTTP error taxonomy. Anything
// unrecognised is logged and answered with a bare 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		details := ""
		if verr.Err != nil {
			details = verr.Err.Error()
		}
		respondErrorDetails(w, http.StatusBadRequest, verr.Error(), details)

	case errors.Is(err, store.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "cart is empty")

	case errors.Is(err, store.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "not allowed to access this order")

	case errors.Is(err, service.ErrProductUnavailable):
		respondErrorDetails(w, http.StatusConflict, service.ErrProductUnavailable.Error(), err.Error())

	case errors.Is(err, store.ErrInsufficientStock):
		respondErrorDetails(w, http.StatusConflict, "insufficient stock", err.Error())

	case errors.Is(err, store.ErrInvalidTransition):
		respondErrorDetails(w, http.StatusConflict, "invalid status transition", err.Error())

	case errors.Is(err, store.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrCartLineNotFound):
		respondError(w, http.StatusNotFound, notFoundMessage(err))

	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func notFoundMessage(err error) string {
	for _, sentinel := range []error{
		store.ErrProductNotFound,
		store.ErrOrderNotFound,
		store.ErrUserNotFound,
		store.ErrCartLineNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "not found"
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &service.ValidationError{Message: "invalid request body", Err: err}
	}
	return nil
}
