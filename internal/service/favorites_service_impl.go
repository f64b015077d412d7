package service

import (
	"context"
	"errors"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/alimikegami/quicart/pkg/snapshot"
)

type FavoritesServiceImpl struct {
	favorites repository.FavoriteRepository
	products  repository.ProductRepository
	now       func() time.Time
}

func CreateFavoritesService(favorites repository.FavoriteRepository, products repository.ProductRepository) FavoritesService {
	return &FavoritesServiceImpl{favorites: favorites, products: products, now: time.Now}
}

func (s *FavoritesServiceImpl) Toggle(ctx context.Context, userID string, category string, productUID string) (result domain.ToggleResult, err error) {
	_, err = s.favorites.GetFavorite(ctx, userID, productUID)
	if err == nil {
		if err = s.favorites.DeleteFavorite(ctx, userID, productUID); err != nil {
			return "", err
		}
		return domain.FavoriteRemoved, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return "", err
	}

	c, err := domain.ParseCategory(category)
	if err != nil {
		return "", err
	}

	product, err := s.products.GetProductByID(ctx, c, productUID)
	if err != nil {
		return "", err
	}

	if err = s.favorites.AddFavorite(ctx, domain.NewFavorite(userID, product, s.now())); err != nil {
		return "", err
	}

	return domain.FavoriteAdded, nil
}

func (s *FavoritesServiceImpl) IsFavorite(ctx context.Context, userID string, productUID string) (favorite bool, err error) {
	_, err = s.favorites.GetFavorite(ctx, userID, productUID)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// List joins every favorite with its live product. Favorites whose product
// is gone are skipped but kept in storage.
func (s *FavoritesServiceImpl) List(ctx context.Context, userID string) (data []domain.Favorite, err error) {
	favorites, err := s.favorites.GetFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	data = make([]domain.Favorite, 0, len(favorites))
	for _, favorite := range favorites {
		product, err := s.products.GetProductByID(ctx, favorite.Category, favorite.UID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data = append(data, favorite.WithProduct(product))
	}

	return data, nil
}

func (s *FavoritesServiceImpl) Watch(ctx context.Context, userID string) (*snapshot.Subscription[[]domain.Favorite], error) {
	return watch(ctx,
		func(ctx context.Context) (repository.ChangeFeed, error) {
			return s.favorites.WatchFavorites(ctx, userID)
		},
		func(ctx context.Context) ([]domain.Favorite, error) {
			return s.List(ctx, userID)
		},
	)
}

func (s *FavoritesServiceImpl) Remove(ctx context.Context, userID string, productUID string) (err error) {
	return s.favorites.DeleteFavorite(ctx, userID, productUID)
}
