package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/alimikegami/quicart/pkg/snapshot"
)

type ProfileServiceImpl struct {
	profiles repository.ProfileRepository
	orders   repository.OrderRepository
}

func CreateProfileService(profiles repository.ProfileRepository, orders repository.OrderRepository) ProfileService {
	return &ProfileServiceImpl{profiles: profiles, orders: orders}
}

func (s *ProfileServiceImpl) Get(ctx context.Context, userID string) (profile domain.UserProfile, err error) {
	return s.profiles.GetProfile(ctx, userID)
}

func (s *ProfileServiceImpl) Watch(ctx context.Context, userID string) (*snapshot.Subscription[domain.UserProfile], error) {
	return watch(ctx,
		func(ctx context.Context) (repository.ChangeFeed, error) {
			return s.profiles.WatchProfile(ctx, userID)
		},
		func(ctx context.Context) (domain.UserProfile, error) {
			return s.profiles.GetProfile(ctx, userID)
		},
	)
}

// Update writes name, phone number and address. Email is never written.
func (s *ProfileServiceImpl) Update(ctx context.Context, userID string, req dto.ProfileUpdateRequest) (err error) {
	update := domain.ProfileUpdate{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return errs.NewValidationError("name", "must not be empty")
		}
		update.Name = &name
	}

	if update.Empty() {
		return nil
	}

	return s.profiles.UpdateProfile(ctx, userID, update)
}

func (s *ProfileServiceImpl) SetProfilePhoto(ctx context.Context, userID string, photoURL string) (err error) {
	u, err := url.ParseRequestURI(photoURL)
	if err != nil || u.Host == "" {
		return errs.NewValidationError("url", "must be an absolute URL")
	}

	return s.profiles.SetProfilePhoto(ctx, userID, photoURL)
}

func (s *ProfileServiceImpl) ListOrderHistory(ctx context.Context, userID string) (data []domain.OrderRecord, err error) {
	return s.orders.GetOrderHistory(ctx, userID)
}

func (s *ProfileServiceImpl) WatchOrderHistory(ctx context.Context, userID string) (*snapshot.Subscription[[]domain.OrderRecord], error) {
	return watch(ctx,
		func(ctx context.Context) (repository.ChangeFeed, error) {
			return s.orders.WatchOrderHistory(ctx, userID)
		},
		func(ctx context.Context) ([]domain.OrderRecord, error) {
			return s.orders.GetOrderHistory(ctx, userID)
		},
	)
}
