package paymentgateway

import (
	"context"

	"github.com/alimikegami/quicart/internal/domain"
)

// Amounts are in minor currency units.
type PaymentGateway interface {
	// CreatePaymentIntent returns the client secret the app uses to confirm
	// the payment.
	CreatePaymentIntent(ctx context.Context, orderNumber int64, amount int64) (clientSecret string, err error)
	// PaymentStatus asks the gateway how the payment of an order stands.
	// Payments still awaiting the shopper report PaymentPending.
	PaymentStatus(ctx context.Context, orderNumber int64, clientSecret string) (result domain.PaymentResult, err error)
}
