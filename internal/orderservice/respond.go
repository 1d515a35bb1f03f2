package orderservice

import (
	"encoding/json"
	"errors"
	"net/http"

	"gensavor/internal/domain"
	"gensavor/internal/menu"
)

type errorResponse struct {
	Error string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, status int, err error) {
	jsonResponse(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps the error taxonomy onto HTTP: malformed drafts 400,
// absence 404, rejected transitions 409, unreachable storage 503.
func statusFor(err error) int {
	var invalid *domain.InvalidTransitionError
	switch {
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, menu.ErrUnknownItem):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
