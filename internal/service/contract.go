package service

import (
	"context"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	pkgdto "github.com/alimikegami/quicart/pkg/dto"
	"github.com/alimikegami/quicart/pkg/snapshot"
)

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, data interface{}) error
}


type CatalogService interface {
	ListByCategory(ctx context.Context, category string, filter pkgdto.Filter) (data []domain.Product, err error)
	ListAll(ctx context.Context) (data map[domain.Category][]domain.Product, err error)
	GetProduct(ctx context.Context, category string, uid string) (product domain.Product, err error)
	CreateProduct(ctx context.Context, category string, req dto.ProductRequest) (uid string, err error)
	WatchProduct(ctx context.Context, category string, uid string) (*snapshot.Subscription[domain.Product], error)
	Taxonomy() domain.Taxonomy
}

type CartService interface {
	AddToCart(ctx context.Context, userID string, req dto.AddToCartRequest) (item domain.CartItem, err error)
	UpdateQuantity(ctx context.Context, userID string, itemID string, direction string) (item domain.CartItem, err error)
	RemoveItem(ctx context.Context, userID string, itemID string) (err error)
	ListCart(ctx context.Context, userID string) (view domain.CartView, err error)
	WatchCart(ctx context.Context, userID string) (*snapshot.Subscription[domain.CartView], error)
}

type CheckoutService interface {
	StartCheckout(ctx context.Context, userID string) (session domain.CheckoutSession, err error)
	// ConfirmCheckout settles the intent with the payment gateway. The outcome
	// the app reported is only trusted for cancellation.
	ConfirmCheckout(ctx context.Context, userID string, orderNumber int64, reported domain.PaymentResult) (intent domain.CheckoutIntent, err error)
	Checkout(ctx context.Context, userID string, reported domain.PaymentResult) (intent domain.CheckoutIntent, err error)
	// HandlePaymentNotification re-checks an order with the gateway after it
	// notified a status change.
	HandlePaymentNotification(ctx context.Context, orderNumber int64) (intent domain.CheckoutIntent, err error)
	ApplyConfirmedCheckouts(ctx context.Context) error
	ExpireStaleCheckouts(ctx context.Context) error
}

type FavoritesService interface {
	Toggle(ctx context.Context, userID string, category string, productUID string) (result domain.ToggleResult, err error)
	IsFavorite(ctx context.Context, userID string, productUID string) (favorite bool, err error)
	List(ctx context.Context, userID string) (data []domain.Favorite, err error)
	Watch(ctx context.Context, userID string) (*snapshot.Subscription[[]domain.Favorite], error)
	Remove(ctx context.Context, userID string, productUID string) (err error)
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (profile domain.UserProfile, err error)
	Watch(ctx context.Context, userID string) (*snapshot.Subscription[domain.UserProfile], error)
	Update(ctx context.Context, userID string, req dto.ProfileUpdateRequest) (err error)
	SetProfilePhoto(ctx context.Context, userID string, url string) (err error)
	ListOrderHistory(ctx context.Context, userID string) (data []domain.OrderRecord, err error)
	WatchOrderHistory(ctx context.Context, userID string) (*snapshot.Subscription[[]domain.OrderRecord], error)
}

type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (session domain.Session, err error)
	SignIn(ctx context.Context, req dto.SignInRequest) (session domain.Session, err error)
	SignOut(ctx context.Context, claims domain.Claims) (err error)
	SendPasswordReset(ctx context.Context, email string) (err error)
	ResetPassword(ctx context.Context, req dto.PasswordResetConfirmRequest) (err error)
	CurrentUser(ctx context.Context, token string) (claims domain.Claims, err error)
}

type EventConsumer interface {
	ConsumeEvent(ctx context.Context)
}
