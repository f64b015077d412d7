package dto

type AddToCartRequest struct {
	Category string `json:"category"`
	UID      string `json:"uid"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Direction string `json:"direction"`
}

type ConfirmCheckoutRequest struct {
	// Outcome is the result the payment sheet reported: succeeded, canceled or failed.
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

type ToggleFavoriteResponse struct {
	Result string `json:"result"`
}

type IsFavoriteResponse struct {
	Favorite bool `json:"favorite"`
}
