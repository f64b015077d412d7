package domain

import "time"

type Address struct {
	Street     string `bson:"street" json:"street"`
	Apt        string `bson:"apt" json:"apt"`
	City       string `bson:"city" json:"city"`
	Country    string `bson:"country" json:"country"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
}

type UserProfile struct {
	UserID       string  `bson:"_id" json:"userId"`
	Name         string  `bson:"name" json:"name"`
	Email        string  `bson:"email" json:"email"`
	PhoneNumber  string  `bson:"phoneNumber" json:"phoneNumber"`
	Address      Address `bson:"address" json:"address"`
	ProfilePhoto string  `bson:"profilePhoto,omitempty" json:"profilePhoto,omitempty"`
}

// ProfileUpdate carries the writable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	Name        *string
	PhoneNumber *string
	Address     *Address
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.PhoneNumber == nil && u.Address == nil
}

type Account struct {
	UserID         string `bson:"_id"`
	Email          string `bson:"email"`
	HashedPassword string `bson:"hashedPassword"`
	CreatedAt      int64  `bson:"createdAt"`
	UpdatedAt      int64  `bson:"updatedAt"`
}

type Favorite struct {
	ID          string    `bson:"_id" json:"-"`
	UserID      string    `bson:"userId" json:"-"`
	UID         string    `bson:"uid" json:"uid"`
	Category    Category  `bson:"category" json:"category"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Price       float64   `bson:"price" json:"price"`
	Images      []string  `bson:"images" json:"images"`
	AddedAt     time.Time `bson:"addedAt" json:"addedAt"`
	Inventory   *Stock    `bson:"-" json:"inventory,omitempty"`
}

type ToggleResult string

const (
	FavoriteAdded   ToggleResult = "added"
	FavoriteRemoved ToggleResult = "removed"
)

func NewFavorite(userID string, product Product, at time.Time) Favorite {
	return Favorite{
		ID:          UserScopedID(userID, product.UID),
		UserID:      userID,
		UID:         product.UID,
		Category:    product.Category,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Images:      product.Images,
		AddedAt:     at,
	}
}

// WithProduct refreshes the display fields from the live product.
func (f Favorite) WithProduct(p Product) Favorite {
	f.Name = p.Name
	f.Description = p.Description
	f.Price = p.Price
	f.Images = p.Images
	inventory := p.Inventory
	f.Inventory = &inventory
	return f
}

type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
