package paymentgateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/alimikegami/quicart/config"
	"github.com/alimikegami/quicart/internal/domain"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MidtransClient issues Snap transaction tokens and reads transaction
// status from the Core API. The Snap token is handed to the app as the
// client secret. Midtrans charges whole rupiah, so the store currency must
// be IDR when this driver is used.
type MidtransClient struct {
	snap    snap.Client
	coreapi coreapi.Client
}

func CreateMidtransClient(config *config.Config) *MidtransClient {
	environment := midtrans.Sandbox // Use midtrans.Production for production
	if config.Environment == "production" {
		environment = midtrans.Production
	}

	m := &MidtransClient{}
	m.snap.New(config.PaymentConfig.MidtransServerKey, environment)
	m.coreapi.New(config.PaymentConfig.MidtransServerKey, environment)

	return m
}

func (m *MidtransClient) CreatePaymentIntent(ctx context.Context, orderNumber int64, amount int64) (clientSecret string, err error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  strconv.FormatInt(orderNumber, 10),
			GrossAmt: grossAmount(amount),
		},
	}

	token, midtransErr := m.snap.CreateTransactionToken(req)
	if midtransErr != nil {
		log.Ctx(ctx).Error().Err(midtransErr).Str("component", "CreatePaymentIntent").Int64("order_number", orderNumber).Msg("")
		return "", midtransErr
	}

	return token, nil
}

func (m *MidtransClient) PaymentStatus(ctx context.Context, orderNumber int64, clientSecret string) (result domain.PaymentResult, err error) {
	res, midtransErr := m.coreapi.CheckTransaction(strconv.FormatInt(orderNumber, 10))
	if midtransErr != nil {
		// No transaction exists until the shopper picks a payment method.
		if midtransErr.GetStatusCode() == http.StatusNotFound {
			return domain.PaymentResult{Outcome: domain.PaymentPending}, nil
		}

		log.Ctx(ctx).Error().Err(midtransErr).Str("component", "PaymentStatus").Int64("order_number", orderNumber).Msg("")
		return result, midtransErr
	}

	return domain.PaymentResult{
		Outcome: midtransOutcome(res.TransactionStatus, res.FraudStatus),
		Message: res.StatusMessage,
	}, nil
}

// grossAmount converts minor units to whole units, rounding half away from zero.
func grossAmount(amount int64) int64 {
	return decimal.New(amount, -2).Round(0).IntPart()
}

func midtransOutcome(transactionStatus, fraudStatus string) domain.PaymentOutcome {
	switch transactionStatus {
	case "settlement":
		return domain.PaymentSucceeded
	case "capture":
		switch fraudStatus {
		case "accept", "":
			return domain.PaymentSucceeded
		case "deny":
			return domain.PaymentFailed
		default:
			return domain.PaymentPending
		}
	case "deny", "failure":
		return domain.PaymentFailed
	case "cancel", "expire", "refund", "partial_refund", "chargeback", "partial_chargeback":
		return domain.PaymentCanceled
	default:
		return domain.PaymentPending
	}
}
