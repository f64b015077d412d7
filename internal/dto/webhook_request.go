package dto

// PaymentNotification is the status notification Midtrans posts for an
// order. Only the order id is used; the status is re-read from the gateway.
type PaymentNotification struct {
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
}
