package dto

const (
	EventProductAdded           = "product_added"
	EventOrderPlaced            = "order_placed"
	EventPasswordResetRequested = "password_reset_requested"
)

type KafkaMessage struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

type ProductAddedEvent struct {
	UID      string  `json:"uid"`
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
}

type OrderPlacedEvent struct {
	OrderNumber int64            `json:"order_number"`
	UserID      string           `json:"user_id"`
	Amount      int64            `json:"amount"`
	Items       []OrderEventItem `json:"items"`
}

type OrderEventItem struct {
	ProductUID string  `json:"product_uid"`
	Name       string  `json:"name"`
	Size       string  `json:"size"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

type PasswordResetRequestedEvent struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
