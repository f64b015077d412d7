package controller

import (
	"strconv"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/middleware"
	"github.com/alimikegami/quicart/internal/service"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type CartController struct {
	cart     service.CartService
	checkout service.CheckoutService
}

func CreateCartController(e *echo.Group, cart service.CartService, checkout service.CheckoutService, isLoggedIn echo.MiddlewareFunc) {
	c := CartController{
		cart:     cart,
		checkout: checkout,
	}

	e.GET("/cart", c.GetCart, isLoggedIn)
	e.POST("/cart", c.AddToCart, isLoggedIn)
	e.PUT("/cart/:itemId/quantity", c.UpdateQuantity, isLoggedIn)
	e.DELETE("/cart/:itemId", c.RemoveItem, isLoggedIn)
	e.POST("/checkout", c.StartCheckout, isLoggedIn)
	e.POST("/checkout/:orderNumber/confirm", c.ConfirmCheckout, isLoggedIn)
	e.POST("/checkout/notifications", c.PaymentNotification)
}

func (c *CartController) GetCart(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	responsePayload, err := c.cart.ListCart(e.Request().Context(), claims.UserID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *CartController) AddToCart(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	payload := dto.AddToCartRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "AddToCart").Msg("")
	}

	responsePayload, err := c.cart.AddToCart(e.Request().Context(), claims.UserID, payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "added to cart", responsePayload)
}

func (c *CartController) UpdateQuantity(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	payload := dto.UpdateQuantityRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "UpdateQuantity").Msg("")
	}

	responsePayload, err := c.cart.UpdateQuantity(e.Request().Context(), claims.UserID, e.Param("itemId"), payload.Direction)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *CartController) RemoveItem(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	err := c.cart.RemoveItem(e.Request().Context(), claims.UserID, e.Param("itemId"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "removed from cart", nil)
}

func (c *CartController) StartCheckout(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	responsePayload, err := c.checkout.StartCheckout(e.Request().Context(), claims.UserID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *CartController) ConfirmCheckout(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	orderNumber, err := strconv.ParseInt(e.Param("orderNumber"), 10, 64)
	if err != nil {
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	payload := dto.ConfirmCheckoutRequest{}
	err = e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "ConfirmCheckout").Msg("")
	}

	reported := domain.PaymentResult{
		Outcome: domain.PaymentOutcome(payload.Outcome),
		Message: payload.Message,
	}

	responsePayload, err := c.checkout.ConfirmCheckout(e.Request().Context(), claims.UserID, orderNumber, reported)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "order placed", responsePayload)
}

func (c *CartController) PaymentNotification(e echo.Context) error {
	payload := dto.PaymentNotification{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "PaymentNotification").Msg("")
	}

	orderNumber, err := strconv.ParseInt(payload.OrderID, 10, 64)
	if err != nil {
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	_, err = c.checkout.HandlePaymentNotification(e.Request().Context(), orderNumber)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", nil)
}
