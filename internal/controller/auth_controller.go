package controller

import (
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/middleware"
	"github.com/alimikegami/quicart/internal/service"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	service service.AuthService
}

func CreateAuthController(e *echo.Group, service service.AuthService, isLoggedIn echo.MiddlewareFunc) {
	c := AuthController{
		service: service,
	}

	e.POST("/auth/sign-up", c.SignUp)
	e.POST("/auth/sign-in", c.SignIn)
	e.POST("/auth/sign-out", c.SignOut, isLoggedIn)
	e.POST("/auth/password-reset", c.SendPasswordReset)
	e.POST("/auth/password-reset/confirm", c.ResetPassword)
}

func (c *AuthController) SignUp(e echo.Context) error {
	payload := dto.SignUpRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "SignUp").Msg("")
	}

	responsePayload, err := c.service.SignUp(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *AuthController) SignIn(e echo.Context) error {
	payload := dto.SignInRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "SignIn").Msg("")
	}

	responsePayload, err := c.service.SignIn(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *AuthController) SignOut(e echo.Context) error {
	err := c.service.SignOut(e.Request().Context(), middleware.ExtractClaims(e))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "signed out", nil)
}

func (c *AuthController) SendPasswordReset(e echo.Context) error {
	payload := dto.PasswordResetRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "SendPasswordReset").Msg("")
	}

	err = c.service.SendPasswordReset(e.Request().Context(), payload.Email)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "if the email belongs to an account a reset code was sent", nil)
}

func (c *AuthController) ResetPassword(e echo.Context) error {
	payload := dto.PasswordResetConfirmRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "ResetPassword").Msg("")
	}

	err = c.service.ResetPassword(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "password updated", nil)
}
