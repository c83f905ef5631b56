package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"driverDeliveryWorkflow/internal/cache"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/repository"
	"driverDeliveryWorkflow/workflow"
)

// availableOrdersTTL bounds staleness of the shared ready-order view between
// engine-driven invalidations.
const availableOrdersTTL = 5 * time.Second

// Handler serves the read-only status projection consumed by driver and
// operator UIs. It never writes workflow state; all writes go through the
// engine behind the gRPC surface.
type Handler struct {
	Orders *repository.OrderRepository
	Views  cache.Cache
	Log    *zap.Logger
}

type statusResponse struct {
	OrderID               int64  `json:"order_id"`
	OrderNumber           string `json:"order_number"`
	Status                string `json:"status"`
	DisplayName           string `json:"display_name"`
	Instructions          string `json:"instructions"`
	RequiresConfirmation  bool   `json:"requires_confirmation"`
	UpdatedAt             string `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetOrderStatus handles GET /orders/{id}/status.
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}
	ord, err := h.Orders.GetByID(r.Context(), id)
	if err != nil {
		h.Log.Error("get order", zap.Int64("order_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if ord == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: workflow.ErrOrderNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		OrderID:              ord.ID,
		OrderNumber:          ord.OrderNumber,
		Status:               ord.Status.String(),
		DisplayName:          workflow.DisplayName(ord.Status),
		Instructions:         workflow.DriverInstructions(ord.Status),
		RequiresConfirmation: workflow.RequiresMandatoryConfirmation(ord.Status),
		UpdatedAt:            ord.UpdatedAt,
	})
}

// GetAvailableOrders handles GET /orders/available. The listing is served
// from the view cache when warm; the engine invalidates it on every accept.
func (h *Handler) GetAvailableOrders(w http.ResponseWriter, r *http.Request) {
	key := cache.AvailableOrdersKey(h.Views)
	if cached, err := h.Views.Get(r.Context(), key); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(cached))
		return
	}
	orders, err := h.Orders.ListAvailable(r.Context(), 50)
	if err != nil {
		h.Log.Error("list available orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	body, err := json.Marshal(orders)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	h.cacheAvailable(r.Context(), key, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) cacheAvailable(ctx context.Context, key string, body []byte) {
	if err := h.Views.Set(ctx, key, string(body), availableOrdersTTL); err != nil {
		h.Log.Warn("cache available orders", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
