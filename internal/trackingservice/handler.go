package trackingservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gensavor/internal/domain"
	"gensavor/internal/store"
	"gensavor/internal/tracker"
	"gensavor/pkg/logger"
)

// Customer-facing messages. Not finding an order is a normal outcome
// and must read differently from a connectivity problem.
const (
	msgNotFound    = "Order not found. Please check your order code or ID."
	msgUnavailable = "We could not reach the order system. Please try again."
)

type Handler struct {
	tracker *tracker.Tracker
	store   *store.Store
	log     *logger.Logger
}

func NewHandler(t *tracker.Tracker, st *store.Store, log *logger.Logger) *Handler {
	return &Handler{tracker: t, store: st, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Track handles GET /track/{key}: one-shot lookup by public code or
// internal id.
func (h *Handler) Track() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")

		order, err := h.tracker.Resolve(r.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				jsonResponse(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
				return
			}
			h.log.Action("lookup_failed").Error("Failed to resolve order", err)
			jsonResponse(w, http.StatusServiceUnavailable, errorResponse{Error: msgUnavailable})
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

// TrackStream handles GET /track/{key}/stream: a live single-order
// view as server-sent events. Absence is its own event type, so the
// page can say "no order yet" instead of "something broke".
func (h *Handler) TrackStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		key := r.PathValue("key")
		updates, cancel := h.tracker.Subscribe(r.Context(), key)
		defer cancel()

		for {
			select {
			case <-r.Context().Done():
				return
			case update := <-updates:
				switch {
				case update.Err != nil:
					sseSend(w, flusher, "error", errorResponse{Error: msgUnavailable})
				case update.Order == nil:
					sseSend(w, flusher, "absent", errorResponse{Error: msgNotFound})
				default:
					sseSend(w, flusher, "order", update.Order)
				}
			}
		}
	}
}

// History handles GET /track/{key}/history: the status log of one
// order, oldest entry first.
func (h *Handler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")

		order, err := h.tracker.Resolve(r.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				jsonResponse(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
				return
			}
			jsonResponse(w, http.StatusServiceUnavailable, errorResponse{Error: msgUnavailable})
			return
		}

		history, err := h.store.StatusHistory(r.Context(), order.ID)
		if err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, errorResponse{Error: msgUnavailable})
			return
		}
		jsonResponse(w, http.StatusOK, history)
	}
}

// Search handles GET /orders/search?phone=…: the fallback flow when
// the customer has no code. Empty result is a 200 with an empty list.
func (h *Handler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := r.URL.Query().Get("phone")
		if phone == "" {
			jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "phone query parameter is required"})
			return
		}

		orders, err := h.tracker.FindByPhone(r.Context(), phone)
		if err != nil {
			h.log.Action("phone_search_failed").Error("Failed to search orders by phone", err)
			jsonResponse(w, http.StatusServiceUnavailable, errorResponse{Error: msgUnavailable})
			return
		}
		jsonResponse(w, http.StatusOK, orders)
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func sseSend(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
