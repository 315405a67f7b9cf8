package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DimasB1221/I-commerce/internal/cache"
	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ProductLookup resolves the current name and price of a product.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// RemoveResult is either the remaining cart or, when the last line was
// removed, CartDeleted set with a nil Cart.
type RemoveResult struct {
	Cart        *domain.CartDetails
	CartDeleted bool
}

const cartLoadTimeout = 5 * time.Second

type CartService struct {
	repo     repository.CartRepository
	products ProductLookup
	cache    cache.CartCache
	log      logrus.FieldLogger
	locks    *keyedMutex
	sfg      singleflight.Group // collapses concurrent cache misses per user
	now      func() time.Time
}

func NewCartService(repo repository.CartRepository, products ProductLookup, cartCache cache.CartCache, log logrus.FieldLogger) *CartService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
		log:      log,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// AddItem merges quantity into the user's cart, creating the cart on first
// use. created reports whether a new cart record was made.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (details *domain.CartDetails, created bool, err error) {
	if err := s.checkItem(ctx, productID, quantity); err != nil {
		return nil, false, fmt.Errorf("add item for user %s: %w", userID, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		cart = &domain.Cart{UserID: userID}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("get cart for user %s: %w", userID, err)
	}

	if err := s.mergeAndSave(ctx, cart, productID, quantity); err != nil {
		return nil, false, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
		"new_cart":   created,
	}).Info("Item added to cart")

	details, err = s.resolve(ctx, cart)
	if err != nil {
		return nil, false, err
	}
	return details, created, nil
}

// UpdateQuantity applies the same additive merge as AddItem but requires the
// cart to exist already.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.CartDetails, error) {
	if err := s.checkItem(ctx, productID, quantity); err != nil {
		return nil, fmt.Errorf("update item for user %s: %w", userID, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for user %s: %w", userID, err)
	}

	if err := s.mergeAndSave(ctx, cart, productID, quantity); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}).Info("Cart item quantity updated")

	return s.resolve(ctx, cart)
}

// RemoveItem subtracts amount from the product's line. A line that drops to
// zero or below is removed, and a cart left without lines is deleted.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string, amount int) (*RemoveResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("remove item for user %s: %w", userID, domain.ErrInvalidQuantity)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for user %s: %w", userID, err)
	}

	items, found, err := domain.DecrementItem(cart.Items, productID, amount)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("remove product %s for user %s: %w", productID, userID, ErrItemNotFound)
	}

	logger := s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"amount":     amount,
	})

	if len(items) == 0 {
		if err := s.repo.DeleteCart(ctx, userID); err != nil {
			return nil, fmt.Errorf("delete cart for user %s: %w", userID, err)
		}
		s.invalidateCache(userID)
		logger.Info("Last item removed, cart deleted")
		return &RemoveResult{CartDeleted: true}, nil
	}

	cart.Items = items
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart for user %s: %w", userID, err)
	}
	s.invalidateCache(userID)
	logger.Info("Item removed from cart")

	details, err := s.resolve(ctx, cart)
	if err != nil {
		return nil, err
	}
	return &RemoveResult{Cart: details}, nil
}

// Drain empties the user's cart but keeps the cart record.
func (s *CartService) Drain(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.drainLocked(ctx, userID)
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.CartDetails, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

// Checkout runs place against the user's current cart while holding the
// user's lock, then drains the cart. place is not called for a missing or
// empty cart. A failed drain is logged; the placed order stands.
func (s *CartService) Checkout(ctx context.Context, userID string, place func(*domain.Cart) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return fmt.Errorf("checkout for user %s: %w", userID, ErrEmptyCart)
	case err != nil:
		return fmt.Errorf("get cart for user %s: %w", userID, err)
	}
	if cart.IsEmpty() {
		return fmt.Errorf("checkout for user %s: %w", userID, ErrEmptyCart)
	}

	if err := place(cart); err != nil {
		return err
	}

	if err := s.drainLocked(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("Failed to drain cart after checkout")
	}
	return nil
}

func (s *CartService) drainLocked(ctx context.Context, userID string) error {
	if err := s.repo.ClearItems(ctx, userID); err != nil {
		return fmt.Errorf("drain cart for user %s: %w", userID, err)
	}
	s.invalidateCache(userID)
	s.log.WithField("user_id", userID).Info("Cart drained")
	return nil
}

func (s *CartService) checkItem(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return fmt.Errorf("lookup product %s: %w", productID, err)
	}
	return nil
}

func (s *CartService) mergeAndSave(ctx context.Context, cart *domain.Cart, productID string, quantity int) error {
	items, err := domain.MergeItem(cart.Items, productID, quantity, s.now())
	if err != nil {
		return err
	}
	cart.Items = items

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return fmt.Errorf("save cart for user %s: %w", cart.UserID, err)
	}
	s.invalidateCache(cart.UserID)
	return nil
}

// loadCart reads through the cache. The returned cart may be shared with the
// cache and must not be modified.
func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		// shared by every caller waiting on this user, so it outlives the first one
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartLoadTimeout)
		defer cancel()

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).WithField("user_id", userID).Warn("Cart cache get failed")
		}

		// writers invalidate under the same lock, so the value cached here is current
		unlock := s.locks.Lock(userID)
		defer unlock()

		cart, err = s.repo.GetCart(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get cart for user %s: %w", userID, err)
		}

		if err := s.cache.Set(ctx, userID, cart); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("Cart cache set failed")
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// resolve attaches current product name and price to every line. Lines whose
// product has since disappeared are kept and flagged unavailable.
func (s *CartService) resolve(ctx context.Context, cart *domain.Cart) (*domain.CartDetails, error) {
	details := &domain.CartDetails{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]domain.CartItemDetails, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}

	for _, item := range cart.Items {
		line := domain.CartItemDetails{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		product, err := s.products.GetProduct(ctx, item.ProductID)
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			line.Unavailable = true
			s.log.WithFields(logrus.Fields{
				"user_id":    cart.UserID,
				"product_id": item.ProductID,
			}).Warn("Cart references a product that no longer exists")
		case err != nil:
			return nil, fmt.Errorf("lookup product %s: %w", item.ProductID, err)
		default:
			line.Name = product.Name
			line.Price = product.Price
		}

		details.Items = append(details.Items, line)
	}
	return details, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Cart cache invalidate failed")
	}
}
