package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/service"
	"github.com/sirupsen/logrus"
)

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// errorMappings is checked in order; the first sentinel matched by errors.Is
// decides the response.
var errorMappings = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrInvalidProduct, http.StatusBadRequest, "invalid_product"},
	{service.ErrEmptyCart, http.StatusNotFound, "empty_cart"},
	{service.ErrCartNotFound, http.StatusNotFound, "cart_not_found"},
	{service.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{service.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{service.ErrNoOrders, http.StatusNotFound, "orders_not_found"},
	{service.ErrDuplicateProduct, http.StatusConflict, "duplicate_product"},
	{service.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{service.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	{context.Canceled, statusClientClosedRequest, "request_canceled"},
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondServiceError translates a service error into a status code. Errors
// outside the known taxonomy become a generic 500 with the error text as
// detail.
func respondServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			respondJSON(w, m.status, ErrorResponse{
				Error:   m.err.Error(),
				Code:    m.code,
				Details: err.Error(),
			})
			return
		}
	}

	log.WithError(err).Error("Unhandled service error")
	respondJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal server error",
		Code:    "internal_error",
		Details: err.Error(),
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// requireIdentity writes 401 and returns false when the request carries no
// authenticated caller.
func requireIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	}
	return id, ok
}
