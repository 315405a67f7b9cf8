package service

import (
	"errors"

	"github.com/DimasB1221/I-commerce/internal/repository"
)

var (
	ErrInvalidProduct         = errors.New("invalid product")
	ErrItemNotFound           = errors.New("product not in cart")
	ErrEmptyCart              = errors.New("cart is empty or not found")
	ErrNoOrders               = errors.New("no orders found")
	ErrIllegalTransition      = errors.New("illegal order status transition")
	ErrCartNotFound           = repository.ErrCartNotFound
	ErrProductNotFound        = repository.ErrProductNotFound
	ErrOrderNotFound          = repository.ErrOrderNotFound
	ErrDuplicateProduct       = repository.ErrDuplicateProduct
	ErrConcurrentModification = repository.ErrConcurrentModification
)
