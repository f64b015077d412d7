package repository

import (
	"context"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	pkgdto "github.com/alimikegami/quicart/pkg/dto"
)

// ChangeFeed signals that watched documents changed. *mongo.ChangeStream
// satisfies it.
type ChangeFeed interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

type TxManager interface {
	HandleTrx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	GetProducts(ctx context.Context, category domain.Category, filter pkgdto.Filter) (data []domain.Product, err error)
	GetProductByID(ctx context.Context, category domain.Category, uid string) (product domain.Product, err error)
	AddProduct(ctx context.Context, product domain.Product) (err error)
	// DecrementStock subtracts qty at the stock path, clamping at zero.
	DecrementStock(ctx context.Context, decrement domain.StockDecrement) (err error)
	WatchProduct(ctx context.Context, category domain.Category, uid string) (ChangeFeed, error)
}

type CartRepository interface {
	GetCartItems(ctx context.Context, userID string) (items []domain.CartItem, err error)
	GetCartItem(ctx context.Context, userID string, key string) (item domain.CartItem, err error)
	UpsertCartItem(ctx context.Context, item domain.CartItem) (err error)
	SetCartItemQuantity(ctx context.Context, userID string, key string, quantity int) (err error)
	DeleteCartItem(ctx context.Context, userID string, key string) (err error)
	DeleteCartItems(ctx context.Context, ids []string) (err error)
	WatchCart(ctx context.Context, userID string) (ChangeFeed, error)
}

type FavoriteRepository interface {
	GetFavorites(ctx context.Context, userID string) (data []domain.Favorite, err error)
	GetFavorite(ctx context.Context, userID string, productUID string) (favorite domain.Favorite, err error)
	AddFavorite(ctx context.Context, favorite domain.Favorite) (err error)
	DeleteFavorite(ctx context.Context, userID string, productUID string) (err error)
	WatchFavorites(ctx context.Context, userID string) (ChangeFeed, error)
}

type OrderRepository interface {
	AddOrderRecords(ctx context.Context, records []domain.OrderRecord) (err error)
	GetOrderHistory(ctx context.Context, userID string) (data []domain.OrderRecord, err error)
	WatchOrderHistory(ctx context.Context, userID string) (ChangeFeed, error)
}

type CheckoutIntentRepository interface {
	AddCheckoutIntent(ctx context.Context, intent domain.CheckoutIntent) (err error)
	GetCheckoutIntent(ctx context.Context, orderNumber int64) (intent domain.CheckoutIntent, err error)
	// UpdateCheckoutIntentStatus moves an intent from one of the given
	// statuses to status. It returns ErrConflict when the intent is in none of them.
	UpdateCheckoutIntentStatus(ctx context.Context, orderNumber int64, from []domain.CheckoutStatus, status domain.CheckoutStatus) (err error)
	GetCheckoutIntentsByStatus(ctx context.Context, status domain.CheckoutStatus, createdBefore time.Time) (data []domain.CheckoutIntent, err error)
}

type ProfileRepository interface {
	AddProfile(ctx context.Context, profile domain.UserProfile) (err error)
	GetProfile(ctx context.Context, userID string) (profile domain.UserProfile, err error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (err error)
	SetProfilePhoto(ctx context.Context, userID string, url string) (err error)
	WatchProfile(ctx context.Context, userID string) (ChangeFeed, error)
}

type AccountRepository interface {
	AddAccount(ctx context.Context, account domain.Account) (err error)
	GetAccountByEmail(ctx context.Context, email string) (account domain.Account, err error)
	UpdatePassword(ctx context.Context, userID string, hashedPassword string) (err error)
}

type SessionRepository interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) (err error)
	IsTokenRevoked(ctx context.Context, tokenID string) (revoked bool, err error)
	SavePasswordResetToken(ctx context.Context, token string, userID string, ttl time.Duration) (err error)
	// ConsumePasswordResetToken returns the user id and deletes the token.
	ConsumePasswordResetToken(ctx context.Context, token string) (userID string, err error)
}
