package http

import (
	"context"
	"net/http"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type ProductService interface {
	CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

type ProductsHandler struct {
	products ProductService
	log      logrus.FieldLogger
}

func NewProductsHandler(products ProductService, log logrus.FieldLogger) *ProductsHandler {
	return &ProductsHandler{products: products, log: log}
}

// GET /api/v1/products
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/products/{id}
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// POST /api/v1/products
func (h *ProductsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}
