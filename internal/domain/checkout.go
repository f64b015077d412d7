package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	OrderStatusConfirmed = "Confirmed"
	SizeNotApplicable    = "N/A"
)

type CheckoutStatus string

const (
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutConfirmed CheckoutStatus = "confirmed"
	CheckoutApplied   CheckoutStatus = "applied"
	CheckoutDeclined  CheckoutStatus = "declined"
	CheckoutCancelled CheckoutStatus = "cancelled"
	CheckoutExpired   CheckoutStatus = "expired"
)

type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentCanceled  PaymentOutcome = "canceled"
	PaymentFailed    PaymentOutcome = "failed"
	PaymentPending   PaymentOutcome = "pending"
)

// PayableCheckoutStatuses are the intent states a payment the gateway has
// taken can still confirm.
var PayableCheckoutStatuses = []CheckoutStatus{
	CheckoutPending,
	CheckoutExpired,
	CheckoutCancelled,
	CheckoutDeclined,
}

type CheckoutIntent struct {
	OrderNumber  int64          `bson:"_id" json:"orderNumber"`
	UserID       string         `bson:"userId" json:"-"`
	Amount       int64          `bson:"amount" json:"amount"`
	ClientSecret string         `bson:"clientSecret" json:"-"`
	Items        []CartItem     `bson:"items" json:"items"`
	Status       CheckoutStatus `bson:"status" json:"status"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}

type CheckoutSession struct {
	OrderNumber  int64  `json:"orderNumber"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
}

type OrderRecord struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"userId" json:"-"`
	OrderNumber int64     `bson:"orderNumber" json:"orderNumber"`
	ProductUID  string    `bson:"productUid" json:"productUid"`
	Name        string    `bson:"name" json:"name"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	Price       float64   `bson:"price" json:"price"`
	Size        string    `bson:"size" json:"size"`
	Images      []string  `bson:"images" json:"images"`
	OrderStatus string    `bson:"orderStatus" json:"orderStatus"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// StockDecrement is one clamped stock write of a checkout.
type StockDecrement struct {
	Category Category
	UID      string
	Size     string
	Quantity int
}

// NewOrderNumber returns a random ten digit order number.
func NewOrderNumber() int64 {
	return 1_000_000_000 + rand.Int64N(9_000_000_000)
}

func (ci CheckoutIntent) OrderRecords(at time.Time) []OrderRecord {
	records := make([]OrderRecord, 0, len(ci.Items))
	for _, item := range ci.Items {
		size := item.Size
		if !item.Category.SizedStock() {
			size = SizeNotApplicable
		}

		records = append(records, OrderRecord{
			ID:          fmt.Sprintf("%d-%s", ci.OrderNumber, item.Key),
			UserID:      ci.UserID,
			OrderNumber: ci.OrderNumber,
			ProductUID:  item.UID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Size:        size,
			Images:      item.Images,
			OrderStatus: OrderStatusConfirmed,
			Timestamp:   at,
		})
	}
	return records
}

func (ci CheckoutIntent) StockDecrements() []StockDecrement {
	decrements := make([]StockDecrement, 0, len(ci.Items))
	for _, item := range ci.Items {
		d := StockDecrement{Category: item.Category, UID: item.UID, Quantity: item.Quantity}
		if item.Category.SizedStock() {
			d.Size = item.Size
		}
		decrements = append(decrements, d)
	}
	return decrements
}

func (ci CheckoutIntent) CartItemIDs() []string {
	ids := make([]string, 0, len(ci.Items))
	for _, item := range ci.Items {
		ids = append(ids, UserScopedID(ci.UserID, item.Key))
	}
	return ids
}

type PaymentResult struct {
	Outcome PaymentOutcome
	Message string
}
