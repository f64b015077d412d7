package service

import (
	"context"
	"errors"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/alimikegami/quicart/pkg/snapshot"
)

type CartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	now      func() time.Time
}

func CreateCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &CartServiceImpl{carts: carts, products: products, now: time.Now}
}

func (s *CartServiceImpl) AddToCart(ctx context.Context, userID string, req dto.AddToCartRequest) (item domain.CartItem, err error) {
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return item, err
	}
	if req.UID == "" {
		return item, errs.NewValidationError("uid", "is required")
	}
	if req.Quantity < 1 {
		return item, errs.NewValidationError("quantity", "must be at least 1")
	}

	product, err := s.products.GetProductByID(ctx, category, req.UID)
	if err != nil {
		return item, err
	}

	var size string
	if category.SizedStock() {
		if req.Size == "" {
			return item, errs.NewValidationError("size", "is required")
		}
		if !product.Inventory.HasSize(req.Size) {
			return item, errs.NewValidationError("size", "is not offered for this product")
		}
		size = req.Size
	}

	available := product.Inventory.Available(size)
	if available < 1 {
		return item, errs.ErrStockExhausted
	}

	key := domain.CartKey(product.UID, size)
	item = domain.CartItem{
		UserID:   userID,
		Key:      key,
		UID:      product.UID,
		Category: category,
		Size:     size,
		Name:     product.Name,
		Price:    product.Price,
		Images:   product.Images,
		AddedAt:  s.now(),
	}

	existing, err := s.carts.GetCartItem(ctx, userID, key)
	switch {
	case err == nil:
		item.Quantity = domain.AddedQuantity(existing.Quantity, req.Quantity, available)
		item.AddedAt = existing.AddedAt
	case errors.Is(err, errs.ErrNotFound):
		item.Quantity = min(req.Quantity, available)
	default:
		return item, err
	}

	if err = s.carts.UpsertCartItem(ctx, item); err != nil {
		return item, err
	}

	item.ID = domain.UserScopedID(userID, key)
	return item, nil
}

func (s *CartServiceImpl) UpdateQuantity(ctx context.Context, userID string, itemID string, direction string) (item domain.CartItem, err error) {
	d := domain.Direction(direction)
	if d != domain.DirectionIncrease && d != domain.DirectionDecrease {
		return item, errs.NewValidationError("direction", "must be increase or decrease")
	}

	item, err = s.carts.GetCartItem(ctx, userID, itemID)
	if err != nil {
		return item, err
	}

	available := item.Quantity
	if d == domain.DirectionIncrease {
		product, err := s.products.GetProductByID(ctx, item.Category, item.UID)
		if err != nil {
			return item, err
		}
		available = product.Inventory.Available(item.Size)
		if available < 1 {
			return item, errs.ErrStockExhausted
		}
	}

	quantity := domain.SteppedQuantity(item.Quantity, d, available)
	if quantity == item.Quantity {
		return item, nil
	}

	if err = s.carts.SetCartItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return item, err
	}

	item.Quantity = quantity
	return item, nil
}

func (s *CartServiceImpl) RemoveItem(ctx context.Context, userID string, itemID string) (err error) {
	return s.carts.DeleteCartItem(ctx, userID, itemID)
}

func (s *CartServiceImpl) ListCart(ctx context.Context, userID string) (view domain.CartView, err error) {
	return loadCartView(ctx, s.carts, s.products, userID)
}

func (s *CartServiceImpl) WatchCart(ctx context.Context, userID string) (*snapshot.Subscription[domain.CartView], error) {
	return watch(ctx,
		func(ctx context.Context) (repository.ChangeFeed, error) {
			return s.carts.WatchCart(ctx, userID)
		},
		func(ctx context.Context) (domain.CartView, error) {
			return loadCartView(ctx, s.carts, s.products, userID)
		},
	)
}

// loadCartView reads the cart and joins each item with its live product.
func loadCartView(ctx context.Context, carts repository.CartRepository, products repository.ProductRepository, userID string) (domain.CartView, error) {
	items, err := carts.GetCartItems(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}

	live := make(map[string]domain.Product, len(items))
	for _, item := range items {
		if _, ok := live[item.UID]; ok {
			continue
		}

		product, err := products.GetProductByID(ctx, item.Category, item.UID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.CartView{}, err
		}
		live[item.UID] = product
	}

	return domain.Reconcile(items, live), nil
}
