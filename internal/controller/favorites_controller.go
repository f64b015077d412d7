package controller

import (
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/middleware"
	"github.com/alimikegami/quicart/internal/service"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/labstack/echo/v4"
)

type FavoritesController struct {
	service service.FavoritesService
}

func CreateFavoritesController(e *echo.Group, service service.FavoritesService, isLoggedIn echo.MiddlewareFunc) {
	c := FavoritesController{
		service: service,
	}

	e.GET("/favorites", c.GetFavorites, isLoggedIn)
	e.GET("/favorites/:uid", c.IsFavorite, isLoggedIn)
	e.POST("/favorites/:category/:uid/toggle", c.ToggleFavorite, isLoggedIn)
	e.DELETE("/favorites/:uid", c.RemoveFavorite, isLoggedIn)
}

func (c *FavoritesController) GetFavorites(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	responsePayload, err := c.service.List(e.Request().Context(), claims.UserID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *FavoritesController) IsFavorite(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	favorite, err := c.service.IsFavorite(e.Request().Context(), claims.UserID, e.Param("uid"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", dto.IsFavoriteResponse{Favorite: favorite})
}

func (c *FavoritesController) ToggleFavorite(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	result, err := c.service.Toggle(e.Request().Context(), claims.UserID, e.Param("category"), e.Param("uid"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", dto.ToggleFavoriteResponse{Result: string(result)})
}

func (c *FavoritesController) RemoveFavorite(e echo.Context) error {
	claims := middleware.ExtractClaims(e)

	err := c.service.Remove(e.Request().Context(), claims.UserID, e.Param("uid"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "removed from favorites", nil)
}
