package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alimikegami/quicart/config"
	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	paymentgateway "github.com/alimikegami/quicart/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/rs/zerolog/log"
)

type CheckoutServiceImpl struct {
	carts          repository.CartRepository
	products       repository.ProductRepository
	orders         repository.OrderRepository
	intents        repository.CheckoutIntentRepository
	tx             repository.TxManager
	payments       paymentgateway.PaymentGateway
	publisher      EventPublisher
	config         config.CheckoutConfig
	now            func() time.Time
	newOrderNumber func() int64
}

func CreateCheckoutService(carts repository.CartRepository, products repository.ProductRepository, orders repository.OrderRepository, intents repository.CheckoutIntentRepository, tx repository.TxManager, payments paymentgateway.PaymentGateway, publisher EventPublisher, config config.CheckoutConfig) CheckoutService {
	return &CheckoutServiceImpl{
		carts:          carts,
		products:       products,
		orders:         orders,
		intents:        intents,
		tx:             tx,
		payments:       payments,
		publisher:      publisher,
		config:         config,
		now:            time.Now,
		newOrderNumber: domain.NewOrderNumber,
	}
}

func (s *CheckoutServiceImpl) StartCheckout(ctx context.Context, userID string) (session domain.CheckoutSession, err error) {
	view, err := loadCartView(ctx, s.carts, s.products, userID)
	if err != nil {
		return session, err
	}

	if len(view.Items) == 0 {
		return session, errs.NewValidationError("cart", "is empty")
	}

	items := make([]domain.CartItem, 0, len(view.Items))
	for _, line := range view.Items {
		if line.Quantity < 1 {
			return session, fmt.Errorf("%w: %s", errs.ErrStockExhausted, line.Name)
		}
		items = append(items, line.CartItem)
	}

	amount := domain.MinorUnits(view.Subtotal)
	orderNumber := s.newOrderNumber()

	clientSecret, err := s.payments.CreatePaymentIntent(ctx, orderNumber, amount)
	if err != nil || clientSecret == "" {
		log.Ctx(ctx).Error().Err(err).Str("component", "StartCheckout").Int64("order_number", orderNumber).Msg("no usable client secret")
		return session, errs.ErrPaymentInit
	}

	now := s.now()
	err = s.intents.AddCheckoutIntent(ctx, domain.CheckoutIntent{
		OrderNumber:  orderNumber,
		UserID:       userID,
		Amount:       amount,
		ClientSecret: clientSecret,
		Items:        items,
		Status:       domain.CheckoutPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return session, err
	}

	return domain.CheckoutSession{
		OrderNumber:  orderNumber,
		ClientSecret: clientSecret,
		Amount:       amount,
	}, nil
}

func (s *CheckoutServiceImpl) ConfirmCheckout(ctx context.Context, userID string, orderNumber int64, reported domain.PaymentResult) (intent domain.CheckoutIntent, err error) {
	switch reported.Outcome {
	case domain.PaymentSucceeded, domain.PaymentCanceled, domain.PaymentFailed:
	default:
		return intent, errs.NewValidationError("outcome", "must be succeeded, canceled or failed")
	}

	intent, err = s.intents.GetCheckoutIntent(ctx, orderNumber)
	if err != nil {
		return intent, err
	}
	if intent.UserID != userID {
		return domain.CheckoutIntent{}, errs.ErrNotFound
	}

	return s.settle(ctx, intent, reported)
}

func (s *CheckoutServiceImpl) HandlePaymentNotification(ctx context.Context, orderNumber int64) (intent domain.CheckoutIntent, err error) {
	intent, err = s.intents.GetCheckoutIntent(ctx, orderNumber)
	if err != nil {
		return intent, err
	}

	intent, err = s.settle(ctx, intent, domain.PaymentResult{})
	switch {
	case errors.Is(err, errs.ErrPaymentPending),
		errors.Is(err, errs.ErrPaymentDeclined),
		errors.Is(err, errs.ErrPaymentCancelled),
		errors.Is(err, errs.ErrConflict):
		return intent, nil
	}

	return intent, err
}

// settle moves an intent by the payment status the gateway reports for it.
// What the shopper's app reported only counts for a payment the gateway
// still holds as pending: a cancel closes the intent, anything else leaves
// it pending.
func (s *CheckoutServiceImpl) settle(ctx context.Context, intent domain.CheckoutIntent, reported domain.PaymentResult) (domain.CheckoutIntent, error) {
	switch intent.Status {
	case domain.CheckoutApplied:
		return intent, nil
	case domain.CheckoutConfirmed:
		s.applyOrLog(ctx, &intent)
		return intent, nil
	}

	result, err := s.payments.PaymentStatus(ctx, intent.OrderNumber, intent.ClientSecret)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "settle").Int64("order_number", intent.OrderNumber).Msg("")
		return intent, errs.Gateway(err)
	}

	if result.Outcome == domain.PaymentSucceeded {
		err = s.intents.UpdateCheckoutIntentStatus(ctx, intent.OrderNumber, domain.PayableCheckoutStatuses, domain.CheckoutConfirmed)
		if errors.Is(err, errs.ErrConflict) {
			// Confirmed concurrently by a notification or another confirm call.
			current, getErr := s.intents.GetCheckoutIntent(ctx, intent.OrderNumber)
			if getErr == nil && (current.Status == domain.CheckoutConfirmed || current.Status == domain.CheckoutApplied) {
				return s.settle(ctx, current, reported)
			}
		}
		if err != nil {
			return intent, err
		}
		if intent.Status != domain.CheckoutPending {
			log.Ctx(ctx).Warn().Str("component", "settle").Int64("order_number", intent.OrderNumber).Str("status", string(intent.Status)).Msg("late payment confirmed")
		}
		intent.Status = domain.CheckoutConfirmed

		// The payment is taken at this point, so a failed apply is left to the scheduler.
		s.applyOrLog(ctx, &intent)
		return intent, nil
	}

	if intent.Status != domain.CheckoutPending {
		return intent, fmt.Errorf("%w: checkout is %s", errs.ErrConflict, intent.Status)
	}

	switch {
	case result.Outcome == domain.PaymentFailed:
		err = s.closeIntent(ctx, &intent, domain.CheckoutDeclined, errs.ErrPaymentDeclined, result.Message)
	case result.Outcome == domain.PaymentCanceled:
		err = s.closeIntent(ctx, &intent, domain.CheckoutCancelled, errs.ErrPaymentCancelled, result.Message)
	case reported.Outcome == domain.PaymentCanceled:
		err = s.closeIntent(ctx, &intent, domain.CheckoutCancelled, errs.ErrPaymentCancelled, reported.Message)
	case reported.Outcome == domain.PaymentFailed:
		err = withMessage(errs.ErrPaymentDeclined, reported.Message)
	default:
		err = errs.ErrPaymentPending
	}

	return intent, err
}

func (s *CheckoutServiceImpl) Checkout(ctx context.Context, userID string, reported domain.PaymentResult) (intent domain.CheckoutIntent, err error) {
	session, err := s.StartCheckout(ctx, userID)
	if err != nil {
		return intent, err
	}

	return s.ConfirmCheckout(ctx, userID, session.OrderNumber, reported)
}

func (s *CheckoutServiceImpl) ApplyConfirmedCheckouts(ctx context.Context) error {
	log.Info().Str("component", "ApplyConfirmedCheckouts").Msg("cron starts")

	intents, err := s.intents.GetCheckoutIntentsByStatus(ctx, domain.CheckoutConfirmed, s.now())
	if err != nil {
		return err
	}

	var failed int
	for i := range intents {
		if err := s.applyCheckout(ctx, intents[i]); err != nil {
			log.Error().Err(err).Str("component", "ApplyConfirmedCheckouts").Int64("order_number", intents[i].OrderNumber).Msg("")
			failed++
		}
	}

	log.Info().Str("component", "ApplyConfirmedCheckouts").Int("applied", len(intents)-failed).Int("failed", failed).Msg("cron ends")

	if failed > 0 {
		return fmt.Errorf("%d of %d confirmed checkouts could not be applied", failed, len(intents))
	}
	return nil
}

// ExpireStaleCheckouts settles pending intents older than the pending TTL
// with the gateway and expires the ones still unpaid.
func (s *CheckoutServiceImpl) ExpireStaleCheckouts(ctx context.Context) error {
	log.Info().Str("component", "ExpireStaleCheckouts").Msg("cron starts")

	intents, err := s.intents.GetCheckoutIntentsByStatus(ctx, domain.CheckoutPending, s.now().Add(-s.config.PendingTTL))
	if err != nil {
		return err
	}

	var expired, failed int
	for _, intent := range intents {
		_, err := s.settle(ctx, intent, domain.PaymentResult{})
		if errors.Is(err, errs.ErrGateway) {
			failed++
			continue
		}
		if !errors.Is(err, errs.ErrPaymentPending) {
			continue
		}

		err = s.intents.UpdateCheckoutIntentStatus(ctx, intent.OrderNumber, []domain.CheckoutStatus{domain.CheckoutPending}, domain.CheckoutExpired)
		if err != nil && !errors.Is(err, errs.ErrConflict) {
			return err
		}
		if err == nil {
			expired++
		}
	}

	log.Info().Str("component", "ExpireStaleCheckouts").Int("expired", expired).Int("unreachable", failed).Msg("cron ends")

	if failed > 0 {
		return fmt.Errorf("%d of %d stale checkouts could not be checked with the payment gateway", failed, len(intents))
	}
	return nil
}

func (s *CheckoutServiceImpl) closeIntent(ctx context.Context, intent *domain.CheckoutIntent, status domain.CheckoutStatus, cause error, message string) error {
	err := s.intents.UpdateCheckoutIntentStatus(ctx, intent.OrderNumber, []domain.CheckoutStatus{domain.CheckoutPending}, status)
	if err != nil {
		return err
	}
	intent.Status = status

	return withMessage(cause, message)
}

func withMessage(cause error, message string) error {
	if message != "" {
		return fmt.Errorf("%w: %s", cause, message)
	}
	return cause
}

func (s *CheckoutServiceImpl) applyOrLog(ctx context.Context, intent *domain.CheckoutIntent) {
	if err := s.applyCheckout(ctx, *intent); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ConfirmCheckout").Int64("order_number", intent.OrderNumber).Msg("apply deferred to scheduler")
		return
	}
	intent.Status = domain.CheckoutApplied
}

// applyCheckout records the orders, decrements stock and clears the cart lines
// of a confirmed intent in one transaction. An intent that is already applied
// is left alone.
func (s *CheckoutServiceImpl) applyCheckout(ctx context.Context, intent domain.CheckoutIntent) error {
	err := s.tx.HandleTrx(ctx, func(ctx context.Context) error {
		err := s.intents.UpdateCheckoutIntentStatus(ctx, intent.OrderNumber, []domain.CheckoutStatus{domain.CheckoutConfirmed}, domain.CheckoutApplied)
		if err != nil {
			return err
		}

		if err := s.orders.AddOrderRecords(ctx, intent.OrderRecords(s.now())); err != nil {
			return err
		}

		for _, decrement := range intent.StockDecrements() {
			err := s.products.DecrementStock(ctx, decrement)
			if errors.Is(err, errs.ErrNotFound) {
				log.Ctx(ctx).Warn().Str("component", "applyCheckout").Str("product_uid", decrement.UID).Msg("product or size no longer exists")
				continue
			}
			if err != nil {
				return err
			}
		}

		return s.carts.DeleteCartItems(ctx, intent.CartItemIDs())
	})
	if errors.Is(err, errs.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	s.publishOrderPlaced(ctx, intent)

	return nil
}

func (s *CheckoutServiceImpl) publishOrderPlaced(ctx context.Context, intent domain.CheckoutIntent) {
	event := dto.OrderPlacedEvent{
		OrderNumber: intent.OrderNumber,
		UserID:      intent.UserID,
		Amount:      intent.Amount,
	}
	for _, record := range intent.OrderRecords(s.now()) {
		event.Items = append(event.Items, dto.OrderEventItem{
			ProductUID: record.ProductUID,
			Name:       record.Name,
			Size:       record.Size,
			Quantity:   record.Quantity,
			Price:      record.Price,
		})
	}

	err := s.publisher.Publish(ctx, dto.EventOrderPlaced, strconv.FormatInt(intent.OrderNumber, 10), event)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "publishOrderPlaced").Msg("")
	}
}
