package controller

import (
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/middleware"
	"github.com/alimikegami/quicart/internal/service"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ProfileController struct {
	service service.ProfileService
}

func CreateProfileController(e *echo.Group, service service.ProfileService, isLoggedIn echo.MiddlewareFunc) {
	c := ProfileController{
		service: service,
	}

	e.GET("/profile", c.GetProfile, isLoggedIn)
	e.PUT("/profile", c.UpdateProfile, isLoggedIn)
	e.PUT("/profile/photo", c.SetProfilePhoto, isLoggedIn)
	e.GET("/profile/orders", c.GetOrderHistory, isLoggedIn)
}

func (c *ProfileController) GetProfile(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	responsePayload, err := c.service.Get(e.Request().Context(), claims.UserID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *ProfileController) UpdateProfile(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	payload := dto.ProfileUpdateRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "UpdateProfile").Msg("")
	}

	err = c.service.Update(e.Request().Context(), claims.UserID, payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "profile updated", nil)
}

func (c *ProfileController) SetProfilePhoto(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	payload := dto.ProfilePhotoRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "SetProfilePhoto").Msg("")
	}

	err = c.service.SetProfilePhoto(e.Request().Context(), claims.UserID, payload.URL)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "profile photo updated", nil)
}

func (c *ProfileController) GetOrderHistory(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	responsePayload, err := c.service.ListOrderHistory(e.Request().Context(), claims.UserID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "successfuly retrieved orders record", responsePayload)
}
