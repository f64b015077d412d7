package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alimikegami/quicart/config"
	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/stretchr/testify/suite"
)

const (
	shopperID   = "user-1"
	orderNumber = int64(4_200_000_001)
)

type CheckoutServiceTestSuite struct {
	suite.Suite
	store     *memoryStore
	payments  *fakePayments
	publisher *fakePublisher
	clock     time.Time
	svc       *CheckoutServiceImpl
}

func (s *CheckoutServiceTestSuite) SetupTest() {
	s.store = newMemoryStore()
	s.payments = &fakePayments{secret: "pi_123_secret_456"}
	s.publisher = &fakePublisher{}
	s.clock = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s.svc = CreateCheckoutService(s.store, s.store, s.store, s.store, s.store, s.payments, s.publisher, config.CheckoutConfig{
		PendingTTL:    30 * time.Minute,
		ApplyInterval: time.Minute,
	}).(*CheckoutServiceImpl)
	s.svc.now = func() time.Time { return s.clock }
	s.svc.newOrderNumber = func() int64 { return orderNumber }

	s.store.putProduct(domain.Product{
		UID:       "Men_T-Shirt_1",
		Name:      "Plain Tee",
		Price:     10,
		Category:  domain.CategoryClothing,
		Gender:    "Men",
		Inventory: domain.SizedStock(map[string]int{"S": 1, "M": 5}),
	})
	s.store.putProduct(domain.Product{
		UID:       "Lipstick_1",
		Name:      "Matte Lipstick",
		Price:     4.99,
		Category:  domain.CategoryBeautyPersonalCare,
		Inventory: domain.ScalarStock(3),
	})
}

func (s *CheckoutServiceTestSuite) addToCart(category domain.Category, uid, size string, quantity int) {
	s.Require().NoError(s.store.UpsertCartItem(context.Background(), domain.CartItem{
		UserID:   shopperID,
		Key:      domain.CartKey(uid, size),
		UID:      uid,
		Category: category,
		Size:     size,
		Quantity: quantity,
	}))
}

func succeeded() domain.PaymentResult {
	return domain.PaymentResult{Outcome: domain.PaymentSucceeded}
}

func (s *CheckoutServiceTestSuite) gatewayReports(outcome domain.PaymentOutcome) {
	s.payments.status = domain.PaymentResult{Outcome: outcome}
}

func (s *CheckoutServiceTestSuite) assertNothingApplied() {
	s.Equal(1, s.store.cartSize())
	s.Equal(5, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
	s.Empty(s.store.orderRecords())
	s.Empty(s.publisher.eventTypes())
}

func (s *CheckoutServiceTestSuite) Test_CheckoutAppliesOrder() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
	s.gatewayReports(domain.PaymentSucceeded)

	intent, err := s.svc.Checkout(context.Background(), shopperID, succeeded())
	s.Require().NoError(err)

	s.Equal(domain.CheckoutApplied, intent.Status)
	s.Equal(1, s.payments.statusChecks)
	s.Equal(int64(2000), intent.Amount)
	s.Equal(int64(2000), s.payments.lastAmount)

	records := s.store.orderRecords()
	s.Require().Len(records, 1)
	s.Equal(2, records[0].Quantity)
	s.Equal("M", records[0].Size)
	s.Equal(float64(10), records[0].Price)
	s.Equal(domain.OrderStatusConfirmed, records[0].OrderStatus)
	s.Equal(orderNumber, records[0].OrderNumber)

	product := s.store.product(domain.CategoryClothing, "Men_T-Shirt_1")
	s.Equal(3, product.Inventory.Available("M"))
	s.Equal(1, product.Inventory.Available("S"))

	s.Zero(s.store.cartSize())
	s.Equal([]string{dto.EventOrderPlaced}, s.publisher.eventTypes())
}

func (s *CheckoutServiceTestSuite) Test_ScalarItemRecordsSizeNotApplicable() {
	s.addToCart(domain.CategoryBeautyPersonalCare, "Lipstick_1", "", 2)
	s.gatewayReports(domain.PaymentSucceeded)

	intent, err := s.svc.Checkout(context.Background(), shopperID, succeeded())
	s.Require().NoError(err)

	s.Equal(int64(998), intent.Amount)
	records := s.store.orderRecords()
	s.Require().Len(records, 1)
	s.Equal(domain.SizeNotApplicable, records[0].Size)
	s.Equal(1, s.store.product(domain.CategoryBeautyPersonalCare, "Lipstick_1").Inventory.Available(""))
}

func (s *CheckoutServiceTestSuite) Test_StartCheckoutFailures() {
	type TestCase struct {
		Name          string
		Setup         func(s *CheckoutServiceTestSuite)
		ExpectedError error
	}

	testCases := []TestCase{
		{
			Name:          "Empty cart",
			Setup:         func(s *CheckoutServiceTestSuite) {},
			ExpectedError: errs.ErrValidation,
		},
		{
			Name: "Missing client secret",
			Setup: func(s *CheckoutServiceTestSuite) {
				s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
				s.payments.secret = ""
			},
			ExpectedError: errs.ErrPaymentInit,
		},
		{
			Name: "Payment gateway unavailable",
			Setup: func(s *CheckoutServiceTestSuite) {
				s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
				s.payments.err = errs.Gateway(errors.New("connection refused"))
			},
			ExpectedError: errs.ErrPaymentInit,
		},
		{
			Name: "Sold out line",
			Setup: func(s *CheckoutServiceTestSuite) {
				s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
				s.store.putProduct(domain.Product{
					UID:       "Men_T-Shirt_1",
					Name:      "Plain Tee",
					Price:     10,
					Category:  domain.CategoryClothing,
					Inventory: domain.SizedStock(map[string]int{"M": 0}),
				})
			},
			ExpectedError: errs.ErrStockExhausted,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			s.SetupTest()
			tc.Setup(s)
			cartBefore := s.store.cartSize()
			stockBefore := s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M")

			_, err := s.svc.StartCheckout(context.Background(), shopperID)

			s.ErrorIs(err, tc.ExpectedError)
			s.Equal(cartBefore, s.store.cartSize())
			s.Equal(stockBefore, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
			s.Empty(s.store.orderRecords())
			s.Empty(s.store.intents)
		})
	}
}

func (s *CheckoutServiceTestSuite) Test_UnsuccessfulPaymentLeavesCartAndStock() {
	type TestCase struct {
		Name           string
		Gateway        domain.PaymentOutcome
		GatewayErr     error
		Reported       domain.PaymentOutcome
		ExpectedError  error
		ExpectedStatus domain.CheckoutStatus
	}

	testCases := []TestCase{
		{
			Name:           "Declined at the gateway",
			Gateway:        domain.PaymentFailed,
			Reported:       domain.PaymentFailed,
			ExpectedError:  errs.ErrPaymentDeclined,
			ExpectedStatus: domain.CheckoutDeclined,
		},
		{
			Name:           "Cancelled at the gateway",
			Gateway:        domain.PaymentCanceled,
			Reported:       domain.PaymentCanceled,
			ExpectedError:  errs.ErrPaymentCancelled,
			ExpectedStatus: domain.CheckoutCancelled,
		},
		{
			Name:           "Payment sheet dismissed",
			Gateway:        domain.PaymentPending,
			Reported:       domain.PaymentCanceled,
			ExpectedError:  errs.ErrPaymentCancelled,
			ExpectedStatus: domain.CheckoutCancelled,
		},
		{
			Name:           "Card failure leaves the checkout open for another attempt",
			Gateway:        domain.PaymentPending,
			Reported:       domain.PaymentFailed,
			ExpectedError:  errs.ErrPaymentDeclined,
			ExpectedStatus: domain.CheckoutPending,
		},
		{
			Name:           "Reported success the gateway has not seen",
			Gateway:        domain.PaymentPending,
			Reported:       domain.PaymentSucceeded,
			ExpectedError:  errs.ErrPaymentPending,
			ExpectedStatus: domain.CheckoutPending,
		},
		{
			Name:           "Gateway unreachable",
			GatewayErr:     errors.New("connection refused"),
			Reported:       domain.PaymentSucceeded,
			ExpectedError:  errs.ErrGateway,
			ExpectedStatus: domain.CheckoutPending,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			s.SetupTest()
			s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
			s.gatewayReports(tc.Gateway)
			s.payments.statusErr = tc.GatewayErr

			_, err := s.svc.Checkout(context.Background(), shopperID, domain.PaymentResult{Outcome: tc.Reported, Message: "card_declined"})

			s.ErrorIs(err, tc.ExpectedError)
			s.Equal(tc.ExpectedStatus, s.store.intent(orderNumber).Status)
			s.assertNothingApplied()
		})
	}
}

func (s *CheckoutServiceTestSuite) Test_ReportedSuccessNeedsGatewayConfirmation() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
		s.ErrorIs(err, errs.ErrPaymentPending)
	}

	s.Equal(3, s.payments.statusChecks)
	s.Equal(domain.CheckoutPending, s.store.intent(orderNumber).Status)
	s.assertNothingApplied()

	s.gatewayReports(domain.PaymentSucceeded)

	intent, err := s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
	s.Require().NoError(err)
	s.Equal(domain.CheckoutApplied, intent.Status)
	s.Len(s.store.orderRecords(), 1)
	s.Equal(3, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
}

func (s *CheckoutServiceTestSuite) Test_GatewaySuccessOverridesReportedCancel() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
	s.gatewayReports(domain.PaymentSucceeded)

	intent, err := s.svc.Checkout(context.Background(), shopperID, domain.PaymentResult{Outcome: domain.PaymentCanceled})
	s.Require().NoError(err)

	s.Equal(domain.CheckoutApplied, intent.Status)
	s.Len(s.store.orderRecords(), 1)
}

func (s *CheckoutServiceTestSuite) Test_PaymentNotification() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	intent, err := s.svc.HandlePaymentNotification(context.Background(), session.OrderNumber)
	s.Require().NoError(err)
	s.Equal(domain.CheckoutPending, intent.Status)
	s.assertNothingApplied()

	s.gatewayReports(domain.PaymentSucceeded)

	intent, err = s.svc.HandlePaymentNotification(context.Background(), session.OrderNumber)
	s.Require().NoError(err)
	s.Equal(domain.CheckoutApplied, intent.Status)

	intent, err = s.svc.HandlePaymentNotification(context.Background(), session.OrderNumber)
	s.Require().NoError(err)
	s.Equal(domain.CheckoutApplied, intent.Status)

	s.Len(s.store.orderRecords(), 1)
	s.Equal(3, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
	s.Zero(s.store.cartSize())
	s.Equal([]string{dto.EventOrderPlaced}, s.publisher.eventTypes())

	_, err = s.svc.HandlePaymentNotification(context.Background(), 1_000_000_000)
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *CheckoutServiceTestSuite) Test_PaymentNotificationForDeclinedPayment() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
	s.gatewayReports(domain.PaymentFailed)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	intent, err := s.svc.HandlePaymentNotification(context.Background(), session.OrderNumber)
	s.Require().NoError(err)
	s.Equal(domain.CheckoutDeclined, intent.Status)
	s.assertNothingApplied()
}

func (s *CheckoutServiceTestSuite) Test_ConfirmIsIdempotent() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
	s.gatewayReports(domain.PaymentSucceeded)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)
	s.Equal("pi_123_secret_456", session.ClientSecret)

	_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
	s.Require().NoError(err)

	intent, err := s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
	s.Require().NoError(err)
	s.Equal(domain.CheckoutApplied, intent.Status)

	s.Require().NoError(s.svc.ApplyConfirmedCheckouts(context.Background()))

	s.Len(s.store.orderRecords(), 1)
	s.Equal(3, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
	s.Len(s.publisher.eventTypes(), 1)
}

func (s *CheckoutServiceTestSuite) Test_FailedApplyIsRetriedByScheduler() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 2)
	s.gatewayReports(domain.PaymentSucceeded)
	s.store.failOn["DeleteCartItems"] = errs.Gateway(errors.New("write conflict"))

	intent, err := s.svc.Checkout(context.Background(), shopperID, succeeded())
	s.Require().NoError(err)
	s.Equal(domain.CheckoutConfirmed, intent.Status)

	s.Equal(domain.CheckoutConfirmed, s.store.intent(orderNumber).Status)
	s.Empty(s.store.orderRecords())
	s.Equal(5, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
	s.Equal(1, s.store.cartSize())

	s.clock = s.clock.Add(time.Minute)
	s.Error(s.svc.ApplyConfirmedCheckouts(context.Background()))

	delete(s.store.failOn, "DeleteCartItems")
	s.Require().NoError(s.svc.ApplyConfirmedCheckouts(context.Background()))

	s.Equal(domain.CheckoutApplied, s.store.intent(orderNumber).Status)
	s.Len(s.store.orderRecords(), 1)
	s.Equal(3, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
	s.Zero(s.store.cartSize())
}

func (s *CheckoutServiceTestSuite) Test_StockNeverGoesNegative() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "S", 1)
	s.gatewayReports(domain.PaymentSucceeded)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	// Someone else buys the last one before confirmation.
	s.Require().NoError(s.store.DecrementStock(context.Background(), domain.StockDecrement{
		Category: domain.CategoryClothing, UID: "Men_T-Shirt_1", Size: "S", Quantity: 1,
	}))

	_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
	s.Require().NoError(err)

	s.Equal(0, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("S"))
}

func (s *CheckoutServiceTestSuite) Test_VanishedProductIsSkippedOnApply() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 1)
	s.addToCart(domain.CategoryBeautyPersonalCare, "Lipstick_1", "", 1)
	s.gatewayReports(domain.PaymentSucceeded)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	s.store.deleteProduct(domain.CategoryBeautyPersonalCare, "Lipstick_1")

	intent, err := s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
	s.Require().NoError(err)

	s.Equal(domain.CheckoutApplied, intent.Status)
	s.Len(s.store.orderRecords(), 2)
	s.Zero(s.store.cartSize())
}

func (s *CheckoutServiceTestSuite) Test_ConfirmRejectsOtherUsersAndClosedIntents() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 1)

	session, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	_, err = s.svc.ConfirmCheckout(context.Background(), "user-2", session.OrderNumber, succeeded())
	s.ErrorIs(err, errs.ErrNotFound)

	_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, domain.PaymentResult{Outcome: "refunded"})
	s.ErrorIs(err, errs.ErrValidation)

	_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, domain.PaymentResult{Outcome: domain.PaymentCanceled})
	s.ErrorIs(err, errs.ErrPaymentCancelled)

	_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, session.OrderNumber, succeeded())
	s.ErrorIs(err, errs.ErrConflict)
	s.Equal(domain.CheckoutCancelled, s.store.intent(orderNumber).Status)
}

func (s *CheckoutServiceTestSuite) Test_LatePaymentConfirmsClosedIntent() {
	type TestCase struct {
		Name  string
		Close func(s *CheckoutServiceTestSuite)
	}

	testCases := []TestCase{
		{
			Name: "Expired",
			Close: func(s *CheckoutServiceTestSuite) {
				s.clock = s.clock.Add(31 * time.Minute)
				s.Require().NoError(s.svc.ExpireStaleCheckouts(context.Background()))
				s.Equal(domain.CheckoutExpired, s.store.intent(orderNumber).Status)
			},
		},
		{
			Name: "Cancelled",
			Close: func(s *CheckoutServiceTestSuite) {
				_, err := s.svc.ConfirmCheckout(context.Background(), shopperID, orderNumber, domain.PaymentResult{Outcome: domain.PaymentCanceled})
				s.ErrorIs(err, errs.ErrPaymentCancelled)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			s.SetupTest()
			s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 1)

			_, err := s.svc.StartCheckout(context.Background(), shopperID)
			s.Require().NoError(err)
			tc.Close(s)

			s.gatewayReports(domain.PaymentSucceeded)

			intent, err := s.svc.ConfirmCheckout(context.Background(), shopperID, orderNumber, succeeded())
			s.Require().NoError(err)

			s.Equal(domain.CheckoutApplied, intent.Status)
			s.Len(s.store.orderRecords(), 1)
			s.Equal(4, s.store.product(domain.CategoryClothing, "Men_T-Shirt_1").Inventory.Available("M"))
			s.Zero(s.store.cartSize())
		})
	}
}

func (s *CheckoutServiceTestSuite) Test_ExpireStaleCheckouts() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 1)

	_, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	s.clock = s.clock.Add(10 * time.Minute)
	s.Require().NoError(s.svc.ExpireStaleCheckouts(context.Background()))
	s.Equal(domain.CheckoutPending, s.store.intent(orderNumber).Status)
	s.Zero(s.payments.statusChecks)

	s.clock = s.clock.Add(time.Hour)
	s.Require().NoError(s.svc.ExpireStaleCheckouts(context.Background()))
	s.Equal(domain.CheckoutExpired, s.store.intent(orderNumber).Status)
	s.Equal(1, s.payments.statusChecks)

	_, err = s.svc.ConfirmCheckout(context.Background(), shopperID, orderNumber, succeeded())
	s.ErrorIs(err, errs.ErrConflict)
	s.Equal(1, s.store.cartSize())
}

func (s *CheckoutServiceTestSuite) Test_ExpireStaleCheckoutsAppliesPaidIntents() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 1)

	_, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	// Paid, but the app never confirmed and no notification arrived.
	s.gatewayReports(domain.PaymentSucceeded)
	s.clock = s.clock.Add(31 * time.Minute)
	s.Require().NoError(s.svc.ExpireStaleCheckouts(context.Background()))

	s.Equal(domain.CheckoutApplied, s.store.intent(orderNumber).Status)
	s.Len(s.store.orderRecords(), 1)
	s.Zero(s.store.cartSize())
}

func (s *CheckoutServiceTestSuite) Test_ExpireStaleCheckoutsKeepsIntentsWhileGatewayIsDown() {
	s.addToCart(domain.CategoryClothing, "Men_T-Shirt_1", "M", 1)

	_, err := s.svc.StartCheckout(context.Background(), shopperID)
	s.Require().NoError(err)

	s.payments.statusErr = errors.New("connection refused")
	s.clock = s.clock.Add(31 * time.Minute)

	s.Error(s.svc.ExpireStaleCheckouts(context.Background()))
	s.Equal(domain.CheckoutPending, s.store.intent(orderNumber).Status)
}

func TestCheckoutServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CheckoutServiceTestSuite))
}
