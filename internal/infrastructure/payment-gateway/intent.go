package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type intentRequest struct {
	Amount int64 `json:"amount"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type intentStatusRequest struct {
	ClientSecret string `json:"clientSecret"`
}

type intentStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// IntentClient talks to the payment-intent API.
type IntentClient struct {
	host       string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

func CreateIntentClient(host string, cb *gobreaker.CircuitBreaker[[]byte]) *IntentClient {
	return &IntentClient{
		host: strings.TrimRight(host, "/"),
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: cb,
	}
}

func (c *IntentClient) CreatePaymentIntent(ctx context.Context, orderNumber int64, amount int64) (clientSecret string, err error) {
	body, err := c.post(ctx, "/create-payment-intent", intentRequest{Amount: amount})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CreatePaymentIntent").Int64("order_number", orderNumber).Msg("")
		return "", err
	}

	var res intentResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("error unmarshalling payment intent response: %v", err)
	}

	if res.ClientSecret == "" {
		return "", errors.New("payment intent response has no client secret")
	}

	return res.ClientSecret, nil
}

func (c *IntentClient) PaymentStatus(ctx context.Context, orderNumber int64, clientSecret string) (result domain.PaymentResult, err error) {
	body, err := c.post(ctx, "/payment-intent-status", intentStatusRequest{ClientSecret: clientSecret})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "PaymentStatus").Int64("order_number", orderNumber).Msg("")
		return result, err
	}

	var res intentStatusResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return result, fmt.Errorf("error unmarshalling payment intent status: %v", err)
	}

	return domain.PaymentResult{Outcome: intentOutcome(res.Status), Message: res.Message}, nil
}

// intentOutcome maps a payment intent status. A failed attempt puts the
// intent back to requires_payment_method, so only succeeded and canceled are
// final.
func intentOutcome(status string) domain.PaymentOutcome {
	switch status {
	case "succeeded":
		return domain.PaymentSucceeded
	case "canceled":
		return domain.PaymentCanceled
	default:
		return domain.PaymentPending
	}
}

func (c *IntentClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %v", err)
		}
		defer res.Body.Close()

		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %v", err)
		}

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("payment intent API returned non-OK status: %d", res.StatusCode)
		}

		return resBody, nil
	})
}
