package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/service"
	"github.com/DimasB1221/I-commerce/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"invalid quantity", fmt.Errorf("add item for user u1: %w", domain.ErrInvalidQuantity), http.StatusBadRequest, "quantity must be greater than 0"},
		{"invalid status", domain.ErrInvalidStatus, http.StatusBadRequest, "invalid order status"},
		{"empty cart", fmt.Errorf("checkout for user u1: %w", service.ErrEmptyCart), http.StatusNotFound, "cart is empty or not found"},
		{"item not in cart", service.ErrItemNotFound, http.StatusNotFound, "product not in cart"},
		{"no orders", service.ErrNoOrders, http.StatusNotFound, "no orders found"},
		{"duplicate", service.ErrDuplicateProduct, http.StatusConflict, "product already exists"},
		{"illegal transition", service.ErrIllegalTransition, http.StatusConflict, "illegal order status transition"},
		{"lost update", service.ErrConcurrentModification, http.StatusConflict, "cart was modified concurrently"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "context deadline exceeded"},
		{"caller went away", fmt.Errorf("get cart for user u1: %w", context.Canceled), statusClientClosedRequest, "context canceled"},
		{"storage", errors.New("pq: connection reset by peer"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, logger.Discard(), tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.wantErr, body.Error)
			assert.Equal(t, tt.err.Error(), body.Details)
			assert.NotEmpty(t, body.Code)
		})
	}
}
