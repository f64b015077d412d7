package service

import (
	"context"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/repository"
	pkgdto "github.com/alimikegami/quicart/pkg/dto"
	"github.com/alimikegami/quicart/pkg/snapshot"
	"github.com/rs/zerolog/log"
)

type CatalogServiceImpl struct {
	products  repository.ProductRepository
	publisher EventPublisher
	taxonomy  domain.Taxonomy
	now       func() time.Time
}

func CreateCatalogService(products repository.ProductRepository, publisher EventPublisher, taxonomy domain.Taxonomy) CatalogService {
	return &CatalogServiceImpl{
		products:  products,
		publisher: publisher,
		taxonomy:  taxonomy,
		now:       time.Now,
	}
}

func (s *CatalogServiceImpl) ListByCategory(ctx context.Context, category string, filter pkgdto.Filter) (data []domain.Product, err error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	return s.products.GetProducts(ctx, c, filter)
}

func (s *CatalogServiceImpl) ListAll(ctx context.Context) (data map[domain.Category][]domain.Product, err error) {
	data = make(map[domain.Category][]domain.Product, len(domain.Categories))
	for _, c := range domain.Categories {
		products, err := s.products.GetProducts(ctx, c, pkgdto.Filter{})
		if err != nil {
			return nil, err
		}
		data[c] = products
	}

	return data, nil
}

func (s *CatalogServiceImpl) GetProduct(ctx context.Context, category string, uid string) (product domain.Product, err error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return product, err
	}

	return s.products.GetProductByID(ctx, c, uid)
}

func (s *CatalogServiceImpl) CreateProduct(ctx context.Context, category string, req dto.ProductRequest) (uid string, err error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return "", err
	}

	inventory := make(map[string]string, len(req.Inventory))
	for size, v := range req.Inventory {
		inventory[size] = string(v)
	}

	product, err := domain.NewProduct(c, domain.ProductDraft{
		Name:        req.Name,
		Description: req.Description,
		Price:       string(req.Price),
		SubCategory: req.SubCategory,
		Gender:      req.Gender,
		Brand:       req.Brand,
		Weight:      string(req.Weight),
		Material:    req.Material,
		Images:      req.Images,
		Stock:       string(req.Stock),
		Inventory:   inventory,
	}, s.taxonomy, s.now())
	if err != nil {
		return "", err
	}

	if err = s.products.AddProduct(ctx, product); err != nil {
		return "", err
	}

	err = s.publisher.Publish(ctx, dto.EventProductAdded, product.UID, dto.ProductAddedEvent{
		UID:      product.UID,
		Category: string(product.Category),
		Name:     product.Name,
		Price:    product.Price,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CreateProduct").Msg("")
	}

	return product.UID, nil
}

func (s *CatalogServiceImpl) WatchProduct(ctx context.Context, category string, uid string) (*snapshot.Subscription[domain.Product], error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	return watch(ctx,
		func(ctx context.Context) (repository.ChangeFeed, error) {
			return s.products.WatchProduct(ctx, c, uid)
		},
		func(ctx context.Context) (domain.Product, error) {
			return s.products.GetProductByID(ctx, c, uid)
		},
	)
}

func (s *CatalogServiceImpl) Taxonomy() domain.Taxonomy {
	return s.taxonomy
}
