package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.CartDetails, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartDetails, bool, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.CartDetails, error)
	RemoveItem(ctx context.Context, userID, productID string, amount int) (*service.RemoveResult, error)
}

type CartHandler struct {
	carts CartService
	log   logrus.FieldLogger
}

func NewCartHandler(carts CartService, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

type CartItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemRequestDTO struct {
	Quantity int `json:"quantity"`
}

type RemoveItemResponseDTO struct {
	Message     string              `json:"message"`
	CartDeleted bool                `json:"cart_deleted"`
	Cart        *domain.CartDetails `json:"cart,omitempty"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// POST /api/v1/cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeItemRequest(w, r)
	if !ok {
		return
	}

	cart, created, err := h.carts.AddItem(r.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, cart)
}

// PUT /api/v1/cart
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeItemRequest(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/v1/cart/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "product_id"))
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req RemoveItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be greater than 0")
		return
	}

	res, err := h.carts.RemoveItem(r.Context(), id.UserID, productID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	if res.CartDeleted {
		respondJSON(w, http.StatusOK, RemoveItemResponseDTO{
			Message:     "Cart deleted successfully",
			CartDeleted: true,
		})
		return
	}
	respondJSON(w, http.StatusOK, RemoveItemResponseDTO{
		Message: "Product deleted successfully",
		Cart:    res.Cart,
	})
}

func (h *CartHandler) decodeItemRequest(w http.ResponseWriter, r *http.Request) (CartItemRequestDTO, bool) {
	var req CartItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return req, false
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return req, false
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be greater than 0")
		return req, false
	}
	return req, true
}
