package controller

import (
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/service"
	pkgdto "github.com/alimikegami/quicart/pkg/dto"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type CatalogController struct {
	service service.CatalogService
}

func CreateCatalogController(e *echo.Group, service service.CatalogService, isLoggedIn echo.MiddlewareFunc) {
	c := CatalogController{
		service: service,
	}

	e.GET("/taxonomy", c.GetTaxonomy)
	e.GET("/products", c.GetAllProducts)
	e.GET("/products/:category", c.GetProducts)
	e.GET("/products/:category/:uid", c.GetProduct)
	e.POST("/products/:category", c.AddProduct, isLoggedIn)
}

func (c *CatalogController) GetTaxonomy(e echo.Context) error {
	return response.WriteSuccessResponse(e, "", c.service.Taxonomy())
}

func (c *CatalogController) GetAllProducts(e echo.Context) error {
	responsePayload, err := c.service.ListAll(e.Request().Context())
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "successfuly retrieved products record", responsePayload)
}

func (c *CatalogController) GetProducts(e echo.Context) error {
	filter := pkgdto.Filter{}
	err := e.Bind(&filter)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "GetProducts").Msg("")
	}

	responsePayload, err := c.service.ListByCategory(e.Request().Context(), e.Param("category"), filter)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "successfuly retrieved products record", responsePayload)
}

func (c *CatalogController) GetProduct(e echo.Context) error {
	responsePayload, err := c.service.GetProduct(e.Request().Context(), e.Param("category"), e.Param("uid"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", responsePayload)
}

func (c *CatalogController) AddProduct(e echo.Context) error {
	payload := dto.ProductRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "AddProduct").Msg("")
	}

	uid, err := c.service.CreateProduct(e.Request().Context(), e.Param("category"), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "product added", dto.ProductCreatedResponse{UID: uid})
}
