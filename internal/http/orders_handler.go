package http

import (
	"context"
	"net/http"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders OrderService
	log    logrus.FieldLogger
}

func NewOrdersHandler(orders OrderService, log logrus.FieldLogger) *OrdersHandler {
	return &OrdersHandler{orders: orders, log: log}
}

type PlaceOrderResponseDTO struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type UpdateStatusResponseDTO struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

// POST /api/v1/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{
		Success: true,
		Message: "Order created successfully",
		Order:   order,
	})
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	// other users' orders are reported as missing
	if order.UserID != id.UserID && !id.IsAdmin() {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// PUT /api/v1/orders/{order_id}
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"order_id":   orderID.String(),
		"status":     order.Status.String(),
		"updated_by": id.UserID,
	}).Info("Order status changed by operator")

	respondJSON(w, http.StatusOK, UpdateStatusResponseDTO{
		Message: "Order status updated successfully",
		Order:   order,
	})
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return orderID, true
}
