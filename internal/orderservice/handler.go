package orderservice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gensavor/internal/domain"
	"gensavor/internal/lifecycle"
	"gensavor/internal/menu"
	"gensavor/internal/notifier"
	"gensavor/internal/projection"
	"gensavor/internal/store"
	"gensavor/pkg/logger"
)

const defaultTrendDays = 7

type Handler struct {
	service *Service
	engine  *lifecycle.Engine
	store   *store.Store
	catalog *menu.Catalog
	hub     *notifier.Hub
	log     *logger.Logger
}

func NewHandler(service *Service, engine *lifecycle.Engine, st *store.Store, catalog *menu.Catalog, hub *notifier.Hub, log *logger.Logger) *Handler {
	return &Handler{service: service, engine: engine, store: st, catalog: catalog, hub: hub, log: log}
}

type checkoutResponse struct {
	ID       string        `json:"id"`
	PublicID string        `json:"public_id"`
	Status   domain.Status `json:"status"`
	Total    float64       `json:"total"`
}

// Checkout handles POST /orders, the single customer-initiated write.
func (h *Handler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Action("parse_failed").Error("Failed to parse checkout request", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		order, err := h.service.Checkout(r.Context(), req)
		if err != nil {
			h.log.Action("checkout_failed").Error("Checkout rejected", err)
			jsonError(w, statusFor(err), err)
			return
		}

		jsonResponse(w, http.StatusCreated, checkoutResponse{
			ID:       order.ID,
			PublicID: order.PublicID,
			Status:   order.Status,
			Total:    order.Total,
		})
	}
}

type transitionRequest struct {
	Status    domain.Status `json:"status"`
	ChangedBy string        `json:"changed_by"`
}

// Transition handles POST /orders/{id}/status, the only write surface
// into order state for staff.
func (h *Handler) Transition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}
		if req.ChangedBy == "" {
			req.ChangedBy = "staff"
		}

		order, err := h.engine.Transition(r.Context(), id, req.Status, req.ChangedBy)
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

// AdminFeed handles GET /orders: every order, newest first.
func (h *Handler) AdminFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := h.store.ListAll(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, projection.AdminFeed(orders))
	}
}

// AdminStream handles GET /orders/stream: the live admin feed as
// server-sent events.
func (h *Handler) AdminStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := sseStream(w)
		if !ok {
			return
		}

		updates, cancel := h.hub.WatchAll(r.Context())
		defer cancel()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap := <-updates:
				if snap.Err != nil {
					sseSend(w, flusher, "error", errorResponse{Error: snap.Err.Error()})
					continue
				}
				sseSend(w, flusher, "orders", projection.AdminFeed(snap.Orders))
			}
		}
	}
}

// KitchenQueue handles GET /kitchen/queue.
func (h *Handler) KitchenQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := h.store.ListAll(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, projection.KitchenQueue(orders))
	}
}

type kitchenEvent struct {
	Queue      []domain.Order `json:"queue"`
	NewPending []string       `json:"new_pending,omitempty"`
}

// KitchenStream handles GET /kitchen/stream. Each event carries the
// current queue plus the ids that just entered pending, so the
// display can ring its bell without diffing snapshots itself.
func (h *Handler) KitchenStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := sseStream(w)
		if !ok {
			return
		}

		updates, cancel := h.hub.WatchAll(r.Context())
		defer cancel()

		prevPending := map[string]bool{}
		first := true
		for {
			select {
			case <-r.Context().Done():
				return
			case snap := <-updates:
				if snap.Err != nil {
					sseSend(w, flusher, "error", errorResponse{Error: snap.Err.Error()})
					continue
				}
				queue := projection.KitchenQueue(snap.Orders)
				event := kitchenEvent{Queue: queue}
				if !first {
					for _, o := range projection.NewPending(prevPending, queue) {
						event.NewPending = append(event.NewPending, o.ID)
					}
				}
				prevPending = projection.PendingIDs(queue)
				first = false
				sseSend(w, flusher, "queue", event)
			}
		}
	}
}

// DispatchQueue handles GET /dispatch/queue.
func (h *Handler) DispatchQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := h.store.ListAll(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, projection.DispatchQueue(orders))
	}
}

// DispatchStream handles GET /dispatch/stream.
func (h *Handler) DispatchStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := sseStream(w)
		if !ok {
			return
		}

		updates, cancel := h.hub.WatchAll(r.Context())
		defer cancel()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap := <-updates:
				if snap.Err != nil {
					sseSend(w, flusher, "error", errorResponse{Error: snap.Err.Error()})
					continue
				}
				sseSend(w, flusher, "queue", projection.DispatchQueue(snap.Orders))
			}
		}
	}
}

// AnalyticsSummary handles GET /analytics/summary.
func (h *Handler) AnalyticsSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := h.store.ListAll(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, projection.Summarize(orders))
	}
}

// AnalyticsDaily handles GET /analytics/daily?days=N.
func (h *Handler) AnalyticsDaily() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := defaultTrendDays
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 90 {
				jsonError(w, http.StatusBadRequest, errors.New("days must be between 1 and 90"))
				return
			}
			days = n
		}

		orders, err := h.store.ListAll(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, projection.DailyRevenue(orders, days, time.Now()))
	}
}

// AnalyticsBestSellers handles GET /analytics/bestsellers?limit=N.
func (h *Handler) AnalyticsBestSellers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 5
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				jsonError(w, http.StatusBadRequest, errors.New("limit must be positive"))
				return
			}
			limit = n
		}

		orders, err := h.store.ListAll(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, projection.BestSellers(orders, limit))
	}
}

// Menu handles GET /menu, the read-only catalog view.
func (h *Handler) Menu() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.catalog.List(r.Context())
		if err != nil {
			jsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, items)
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
